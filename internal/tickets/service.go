// Package tickets mints admission credentials and serves ticket lookups.
// Tickets only ever come into existence through order settlement or the
// free-ticket path; there is no standalone create endpoint.
package tickets

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"

	"ms-eventpay/internal/logger"
	"ms-eventpay/internal/models"
	"ms-eventpay/internal/tickets/qr"
)

type DBLayer interface {
	ListByAttendee(ctx context.Context, attendeeID string) ([]models.TicketWithEvent, error)
}

type Service struct {
	db     DBLayer
	logger *logger.Logger
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{db: db, logger: log}
}

// MintCredentials produces an opaque ticket token: the mint timestamp in
// base36 joined with 4 random bytes in hex. The timestamp component
// makes collisions across mints practically impossible; the tickets
// table still enforces uniqueness.
func MintCredentials(now time.Time) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strconv.FormatInt(now.UnixMilli(), 36) + "-" + hex.EncodeToString(buf), nil
}

// BuildTickets mints n tickets for an attendee, each with its own
// credential and QR image. The rows are not persisted here; the caller
// inserts them inside its settlement transaction.
func (s *Service) BuildTickets(eventID, attendeeID string, n int, now time.Time) ([]models.Ticket, error) {
	tickets := make([]models.Ticket, 0, n)
	for i := 0; i < n; i++ {
		credentials, err := MintCredentials(now)
		if err != nil {
			return nil, err
		}
		image, err := qr.Generate(credentials)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, models.Ticket{
			ID:          uuid.New().String(),
			EventID:     eventID,
			AttendeeID:  attendeeID,
			Credentials: credentials,
			QRCode:      image,
			CreatedAt:   now,
		})
	}
	return tickets, nil
}

// ListForUser returns the caller's tickets with event details.
func (s *Service) ListForUser(ctx context.Context, attendeeID string) ([]models.TicketWithEvent, error) {
	return s.db.ListByAttendee(ctx, attendeeID)
}
