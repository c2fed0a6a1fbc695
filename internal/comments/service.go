// Package comments lets attendees rate events they actually paid for.
// Each comment is pinned to one Completed transaction.
package comments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ms-eventpay/internal/apperr"
	"ms-eventpay/internal/logger"
	"ms-eventpay/internal/models"
)

type DBLayer interface {
	FirstUncommentedCompleted(ctx context.Context, userID, eventID string) (*models.Transaction, error)
	HasCompletedTransaction(ctx context.Context, userID, eventID string) (bool, error)
	InsertComment(ctx context.Context, comment models.Comment) error
	ListByEvent(ctx context.Context, eventID string) ([]models.Comment, error)
}

type Service struct {
	db     DBLayer
	logger *logger.Logger
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{db: db, logger: log}
}

// Create posts a comment against the caller's oldest unreviewed
// Completed transaction for the event. A caller who never completed a
// purchase gets Forbidden; one who already reviewed every completed
// purchase gets Conflict.
func (s *Service) Create(ctx context.Context, userID string, req models.CreateCommentRequest) (*models.Comment, error) {
	if req.EventID == "" {
		return nil, apperr.Validation("event id is required")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}

	txn, err := s.db.FirstUncommentedCompleted(ctx, userID, req.EventID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		completed, err := s.db.HasCompletedTransaction(ctx, userID, req.EventID)
		if err != nil {
			return nil, err
		}
		if !completed {
			return nil, apperr.Forbidden("commenting requires a completed purchase for event %s", req.EventID)
		}
		return nil, apperr.Conflict("all completed purchases for event %s are already reviewed", req.EventID)
	}

	comment := models.Comment{
		ID:            uuid.New().String(),
		TransactionID: txn.ID,
		AttendeeID:    userID,
		EventID:       req.EventID,
		Rating:        req.Rating,
		Text:          req.Text,
		CreatedAt:     time.Now(),
	}
	if err := s.db.InsertComment(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("COMMENTS", "comment created for event "+req.EventID)
	return &comment, nil
}

// ListByEvent returns an event's comments, newest first.
func (s *Service) ListByEvent(ctx context.Context, eventID string) ([]models.Comment, error) {
	return s.db.ListByEvent(ctx, eventID)
}
