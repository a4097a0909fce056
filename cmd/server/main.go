package main

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"parkspot/internal/api"
	"parkspot/internal/auth"
	"parkspot/internal/config"
	"parkspot/internal/repository"
	"parkspot/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	spotRepo := repository.NewSpotRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	jobRepo := repository.NewJobRepository(db)

	var payments service.PaymentProvider
	if cfg.StripeSecretKey != "" {
		payments = service.NewStripeService(cfg.StripeSecretKey, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	}
	sender := service.NewSenderService(service.SenderConfig{
		SendgridAPIKey:    cfg.SendgridAPIKey,
		SendgridFromEmail: cfg.SendgridFromEmail,
		SendgridFromName:  cfg.SendgridFromName,
		TwilioAccountSID:  cfg.TwilioAccountSID,
		TwilioAuthToken:   cfg.TwilioAuthToken,
		TwilioFromNumber:  cfg.TwilioFromNumber,
	})

	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret, time.Duration(cfg.JWTExpireMin)*time.Minute)
	spotSvc := service.NewSpotService(spotRepo, bookingRepo)
	bookingSvc := service.NewBookingService(bookingRepo, spotRepo, userRepo, payments, sender)
	searchSvc := service.NewSearchService(spotRepo, bookingRepo)
	jobSvc := service.NewJobService(jobRepo)

	authHandler := api.NewAuthHandler(authSvc)
	spotHandler := api.NewSpotHandler(spotSvc)
	bookingHandler := api.NewBookingHandler(bookingSvc)
	searchHandler := api.NewSearchHandler(searchSvc)
	stripeHandler := api.NewStripeWebhookHandler(cfg.StripeWebhookSecret, bookingSvc)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/users/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/users/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/nearby", searchHandler.NearbySpots).Methods("GET")
	r.HandleFunc("/api/stripe/webhook", stripeHandler.HandleWebhook).Methods("POST")

	// Authenticated endpoints
	private := r.PathPrefix("/api").Subrouter()
	private.Use(auth.Middleware(cfg.JWTSecret))
	private.HandleFunc("/users/profile", authHandler.Profile).Methods("GET")
	private.HandleFunc("/spots", spotHandler.CreateSpot).Methods("POST")
	private.HandleFunc("/spots", spotHandler.ListSpots).Methods("GET")
	private.HandleFunc("/spots/{id}", spotHandler.GetSpot).Methods("GET")
	private.HandleFunc("/spots/{id}", spotHandler.UpdateSpot).Methods("PUT")
	private.HandleFunc("/spots/{id}", spotHandler.DeactivateSpot).Methods("DELETE")
	private.HandleFunc("/spots/{id}/availability", spotHandler.SpotAvailability).Methods("GET")
	private.HandleFunc("/my-spots", spotHandler.ListMySpots).Methods("GET")
	private.HandleFunc("/my-spots/{id}/bookings", spotHandler.MySpotBookings).Methods("GET")
	private.HandleFunc("/search", searchHandler.SearchSpots).Methods("GET")
	private.HandleFunc("/bookings", bookingHandler.CreateBooking).Methods("POST")
	private.HandleFunc("/bookings", bookingHandler.ListBookings).Methods("GET")
	private.HandleFunc("/bookings/{id}", bookingHandler.GetBooking).Methods("GET")
	private.HandleFunc("/bookings/{id}/extend", bookingHandler.ExtendBooking).Methods("POST")
	private.HandleFunc("/bookings/{id}/cancel", bookingHandler.CancelBooking).Methods("POST")
	private.HandleFunc("/bookings/{id}/activate", bookingHandler.ActivateBooking).Methods("POST")

	// Lifecycle sweeps
	c := cron.New()
	c.AddFunc("@every 5m", func() {
		if err := jobSvc.CompleteFinishedBookings(); err != nil {
			log.Printf("Cron Job error: %v", err)
		}
	})
	c.AddFunc("@every 5m", func() {
		if err := jobSvc.ExpireUnusedBookings(time.Duration(cfg.ActivationGraceMin) * time.Minute); err != nil {
			log.Printf("Cron Job error: %v", err)
		}
	})
	c.AddFunc("@every 15m", func() {
		if err := jobSvc.CancelStalePendingBookings(time.Duration(cfg.PendingTTLMin) * time.Minute); err != nil {
			log.Printf("Cron Job error: %v", err)
		}
	})
	c.Start()
	defer c.Stop()

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{cfg.CORSAllowedOrigin}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)

	log.Printf("Server running on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handlers.LoggingHandler(log.Writer(), cors(r))))
}
