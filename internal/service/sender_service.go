package service

import (
	"fmt"
	"log"

	"parkspot/internal/db"
)

// SenderConfig holds the notification provider credentials.
type SenderConfig struct {
	SendgridAPIKey    string
	SendgridFromEmail string
	SendgridFromName  string
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioFromNumber  string
}

// SenderService implements Notifier over SendGrid email and Twilio SMS.
// Deliveries run in background goroutines; failures are logged, never
// surfaced to the request.
type SenderService struct {
	cfg SenderConfig
}

func NewSenderService(cfg SenderConfig) *SenderService {
	return &SenderService{cfg: cfg}
}

func (s *SenderService) BookingStatusChanged(booking *db.Booking, spot *db.ParkingSpot, user *db.User) {
	subject := fmt.Sprintf("Your parking booking %s is %s", booking.Code, booking.Status)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour booking at %s is %s.\n\n"+
			"Booking Details:\n"+
			"Booking Code: %s\n"+
			"Address: %s\n"+
			"Check-in: %s\n"+
			"Check-out: %s\n"+
			"Total: $%.2f\n\n"+
			"Thank you for using ParkSpot.",
		user.FirstName, spot.Title, booking.Status,
		booking.Code, spot.Address,
		booking.StartTime.Format("02 Jan 2006 15:04 MST"),
		booking.EndTime.Format("02 Jan 2006 15:04 MST"),
		booking.TotalPrice,
	)

	go func() {
		err := sendEmailWithSendGrid(
			s.cfg.SendgridAPIKey, s.cfg.SendgridFromEmail, s.cfg.SendgridFromName,
			user.Email, user.FirstName, subject, body,
		)
		if err != nil {
			log.Printf("Email delivery failed for booking %s: %v", booking.Code, err)
		}
	}()

	if user.Phone == "" {
		return
	}
	sms := fmt.Sprintf("ParkSpot: booking %s is %s. Check-in: %s. Details in your email.",
		booking.Code, booking.Status, booking.StartTime.Format("02/01 15:04"))
	go func() {
		if err := sendSMSWithTwilio(
			s.cfg.TwilioAccountSID, s.cfg.TwilioAuthToken, s.cfg.TwilioFromNumber,
			user.Phone, sms,
		); err != nil {
			log.Printf("SMS delivery failed for booking %s: %v", booking.Code, err)
		}
	}()
}
