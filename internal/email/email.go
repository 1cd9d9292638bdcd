package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/travelstore/internal/domain"
	"github.com/Domenick1991/travelstore/internal/kafka"
)

// Sender delivers booking notifications. Delivery is a log line until a mail
// provider is configured.
type Sender struct {
	logger *slog.Logger
}

func NewSender(logger *slog.Logger) *Sender {
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, n kafka.Notification) error {
	subject, body := Compose(n)
	s.logger.InfoContext(ctx, "send email", "user_id", n.UserID, "subject", subject, "body", body)
	return nil
}

func Compose(n kafka.Notification) (subject, body string) {
	switch n.Kind {
	case domain.BookingEventCancelled:
		subject = "Your booking has been cancelled"
		body = fmt.Sprintf("Booking %s for %s was cancelled.", n.BookingID, n.Date)
	default:
		subject = "Your booking is confirmed"
		status := n.Status
		if status == "" {
			status = domain.BookingStatusConfirmed
		}
		body = fmt.Sprintf("Booking %s for %s is %s.", n.BookingID, n.Date, status)
	}
	return subject, body
}
