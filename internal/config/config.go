package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type App struct {
	Port        string `envconfig:"PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Auth
	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`
	JWTExpireMin int    `envconfig:"JWT_EXPIRE_MIN" default:"1440"`

	// Stripe (payments disabled when the secret key is empty)
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	CheckoutSuccessURL  string `envconfig:"CHECKOUT_SUCCESS_URL" default:"http://localhost:3000/bookings/confirmed?session_id={CHECKOUT_SESSION_ID}"`
	CheckoutCancelURL   string `envconfig:"CHECKOUT_CANCEL_URL" default:"http://localhost:3000/bookings/failed?session_id={CHECKOUT_SESSION_ID}"`

	// Notifications
	SendgridAPIKey    string `envconfig:"SENDGRID_API_KEY"`
	SendgridFromEmail string `envconfig:"SENDGRID_FROM_EMAIL"`
	SendgridFromName  string `envconfig:"SENDGRID_FROM_NAME" default:"ParkSpot"`
	TwilioAccountSID  string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber  string `envconfig:"TWILIO_FROM_NUMBER"`

	// Lifecycle sweeps
	PendingTTLMin      int `envconfig:"PENDING_TTL_MIN" default:"30"`
	ActivationGraceMin int `envconfig:"ACTIVATION_GRACE_MIN" default:"15"`

	CORSAllowedOrigin string `envconfig:"CORS_ALLOWED_ORIGIN" default:"*"`
}

// Load reads .env when present, then resolves the typed config from the
// environment.
func Load() (App, error) {
	godotenv.Load()
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
