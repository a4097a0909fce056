package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	apperrors "parkspot/internal/errors"
	"parkspot/internal/service"
)

type StripeWebhookHandler struct {
	WebhookSecret  string
	BookingService *service.BookingService
}

func NewStripeWebhookHandler(webhookSecret string, bookingService *service.BookingService) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		WebhookSecret:  webhookSecret,
		BookingService: bookingService,
	}
}

func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading webhook body: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.WebhookSecret)
	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			log.Printf("Error parsing checkout.session: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		paymentIntentID := ""
		if sess.PaymentIntent != nil {
			paymentIntentID = sess.PaymentIntent.ID
		}
		if err := h.BookingService.ConfirmBySession(sess.ID, paymentIntentID); err != nil {
			// Conflicts are settled internally (cancel + refund); redeliveries
			// must not loop, so acknowledge everything but storage failures.
			if apperrors.StatusOf(err) == http.StatusInternalServerError {
				log.Printf("Error confirming booking for session %s: %v", sess.ID, err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			log.Printf("Webhook for session %s not applied: %v", sess.ID, err)
		}
	default:
		log.Printf("Unhandled stripe event type: %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}
