package handlers

import (
	"strings"
	"time"

	"blueridge/services/booking"
	ai "blueridge/services/intelligence"
	"blueridge/services/oauth"
	"blueridge/services/payment"
	"blueridge/services/scheduling"
)

// HandlerBundle groups the services behind the HTTP endpoints. Chat is nil
// when no language model is configured.
type HandlerBundle struct {
	Availability scheduling.AvailabilityService
	Booking      booking.BookingService
	Chat         ai.ChatService
	OAuth        *oauth.GoogleAuth
	Payments     payment.PaymentService

	// AppBaseURL is where the OAuth callback sends the browser afterwards.
	AppBaseURL string
	Now        func() time.Time
}

func NewHandlerBundle(
	availability scheduling.AvailabilityService,
	bookings booking.BookingService,
	chat ai.ChatService,
	auth *oauth.GoogleAuth,
	payments payment.PaymentService,
	appBaseURL string,
) *HandlerBundle {
	return &HandlerBundle{
		Availability: availability,
		Booking:      bookings,
		Chat:         chat,
		OAuth:        auth,
		Payments:     payments,
		AppBaseURL:   strings.TrimRight(appBaseURL, "/"),
		Now:          time.Now,
	}
}
