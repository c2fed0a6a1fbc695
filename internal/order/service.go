// Package order implements order intake and settlement. An order is
// created Pending with server-computed amounts and settles exactly once
// into Completed or Cancelled; only a Completed settlement touches
// points, seats and tickets.
package order

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"ms-eventpay/internal/apperr"
	"ms-eventpay/internal/config"
	"ms-eventpay/internal/logger"
	"ms-eventpay/internal/models"
)

type DBLayer interface {
	CreateTransaction(ctx context.Context, txn models.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error)
	ListTransactionsByUser(ctx context.Context, userID string) ([]models.TransactionWithEvent, error)
	Settle(ctx context.Context, txn models.Transaction, outcome string, tickets []models.Ticket, now time.Time) (int, error)
	IssueFreeTickets(ctx context.Context, eventID string, tickets []models.Ticket) error
}

type EventStore interface {
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
}

type DiscountResolver interface {
	UserDiscountFor(ctx context.Context, id, userID string) (*models.UserDiscount, error)
	Consume(ctx context.Context, id, userID string) error
	ResolveCode(ctx context.Context, eventID, code string) (*models.EventDiscount, error)
}

type LoyaltyLedger interface {
	Balance(ctx context.Context, userID string) (int, error)
}

type TicketMinter interface {
	BuildTickets(eventID, attendeeID string, n int, now time.Time) ([]models.Ticket, error)
}

type LockManager interface {
	LockSettlement(eventID, orderID string) (bool, error)
	UnlockSettlement(eventID, orderID string) error
}

type Publisher interface {
	PublishOrder(topic string, txn models.Transaction) error
	PublishTicketsIssued(topic, eventID, attendeeID string, count int) error
}

// PaymentProvider creates an external checkout for a paid order. May be
// nil when no payment gateway is configured.
type PaymentProvider interface {
	CheckoutURL(ctx context.Context, txn models.Transaction, event models.Event) (string, error)
}

type Service struct {
	db        DBLayer
	events    EventStore
	discounts DiscountResolver
	loyalty   LoyaltyLedger
	minter    TicketMinter
	lock      LockManager
	producer  Publisher
	payments  PaymentProvider
	topics    config.TopicConfig
	logger    *logger.Logger
}

func NewService(
	db DBLayer,
	events EventStore,
	discounts DiscountResolver,
	loyalty LoyaltyLedger,
	minter TicketMinter,
	lock LockManager,
	producer Publisher,
	payments PaymentProvider,
	topics config.TopicConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		db:        db,
		events:    events,
		discounts: discounts,
		loyalty:   loyalty,
		minter:    minter,
		lock:      lock,
		producer:  producer,
		payments:  payments,
		topics:    topics,
		logger:    log,
	}
}

// CreateOrderResponse is the intake result. PaymentURL is set when an
// external checkout was created for the order.
type CreateOrderResponse struct {
	Transaction models.Transaction `json:"transaction"`
	PaymentURL  string             `json:"payment_url,omitempty"`
}

// amountTolerance absorbs client-side float rounding when comparing
// advisory totals against the server's own arithmetic.
const amountTolerance = 0.01

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CreateOrder validates an order and stores it Pending. All amounts are
// recomputed here from the event price, the resolved discounts and the
// caller's point balance; totals submitted by the client are checked
// against the recomputation and rejected when they disagree. Inventory
// is not touched until settlement.
func (s *Service) CreateOrder(ctx context.Context, userID string, req models.CreateOrderRequest) (*CreateOrderResponse, error) {
	if req.TicketAmount < 1 {
		return nil, apperr.Validation("ticket amount must be at least 1")
	}

	event, err := s.events.GetEventByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, apperr.NotFound("event %s not found", req.EventID)
	}
	if event.EventType != models.EventTypePaid {
		return nil, apperr.Validation("free events are booked through the ticket endpoint")
	}
	// Fail before checkout when the event obviously cannot seat the
	// order. Settlement still re-checks under the real guard.
	if req.TicketAmount > event.AvailableSeats {
		return nil, apperr.Conflict("not enough seats left for event %s", req.EventID)
	}

	total := round2(event.Price * float64(req.TicketAmount))

	var discountAmount float64
	var userDiscount *models.UserDiscount
	if req.DiscountID != "" {
		userDiscount, err = s.discounts.UserDiscountFor(ctx, req.DiscountID, userID)
		if err != nil {
			return nil, err
		}
		discountAmount += total * float64(userDiscount.DiscountPercentage) / 100
	}
	if req.Code != "" {
		promo, err := s.discounts.ResolveCode(ctx, req.EventID, req.Code)
		if err != nil {
			return nil, err
		}
		discountAmount += total * float64(promo.DiscountPercentage) / 100
	}
	discountAmount = round2(discountAmount)
	if discountAmount > total {
		discountAmount = total
	}

	if req.PointAmount < 0 {
		return nil, apperr.Validation("point amount cannot be negative")
	}
	if req.PointAmount > 0 {
		balance, err := s.loyalty.Balance(ctx, userID)
		if err != nil {
			return nil, err
		}
		if req.PointAmount > balance {
			return nil, apperr.Validation("point amount %d exceeds balance %d", req.PointAmount, balance)
		}
	}

	payable := round2(total - discountAmount)
	if float64(req.PointAmount) > payable {
		return nil, apperr.Validation("point amount exceeds payable amount")
	}
	final := round2(payable - float64(req.PointAmount))

	if err := checkAdvisoryAmount(req.TotalAmount, total, "totalAmount"); err != nil {
		return nil, err
	}
	if err := checkAdvisoryAmount(req.DiscountAmt, discountAmount, "discountAmount"); err != nil {
		return nil, err
	}
	if err := checkAdvisoryAmount(req.FinalAmount, final, "finalAmount"); err != nil {
		return nil, err
	}

	// A one-time discount burns at intake, even if the order is later
	// cancelled or never settles.
	if userDiscount != nil {
		if err := s.discounts.Consume(ctx, userDiscount.ID, userID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	txn := models.Transaction{
		ID:             uuid.New().String(),
		UserID:         userID,
		EventID:        req.EventID,
		TicketAmount:   req.TicketAmount,
		TotalAmount:    total,
		PointAmount:    req.PointAmount,
		DiscountAmount: discountAmount,
		FinalAmount:    final,
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.db.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}

	s.logger.LogOrder("create", txn.ID, "order created for event "+txn.EventID)
	s.publishOrder(s.topics.OrderCreated, txn)

	resp := &CreateOrderResponse{Transaction: txn}
	if s.payments != nil && final > 0 {
		url, err := s.payments.CheckoutURL(ctx, txn, *event)
		if err != nil {
			s.logger.Error("ORDER", "checkout session for "+txn.ID+" failed: "+err.Error())
		} else {
			resp.PaymentURL = url
		}
	}
	return resp, nil
}

// checkAdvisoryAmount compares a client-submitted amount with the
// server's figure. Zero means the client did not submit one.
func checkAdvisoryAmount(submitted, computed float64, field string) error {
	if submitted == 0 {
		return nil
	}
	if math.Abs(submitted-computed) > amountTolerance {
		return apperr.Validation("%s mismatch: submitted %.2f, computed %.2f", field, submitted, computed)
	}
	return nil
}

// FinishOrder settles a Pending order. outcome must be Completed or
// Cancelled. callerID is the authenticated owner, or empty when the
// caller is a trusted system such as the payment webhook.
func (s *Service) FinishOrder(ctx context.Context, orderID, outcome, callerID string) (*models.Transaction, error) {
	if outcome != models.StatusCompleted && outcome != models.StatusCancelled {
		return nil, apperr.Validation("outcome must be %s or %s", models.StatusCompleted, models.StatusCancelled)
	}

	txn, err := s.db.GetTransactionByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, apperr.NotFound("transaction %s not found", orderID)
	}
	if callerID != "" && txn.UserID != callerID {
		return nil, apperr.Forbidden("transaction %s belongs to another user", orderID)
	}
	if txn.Terminal() {
		return nil, apperr.Conflict("transaction %s already %s", orderID, txn.Status)
	}

	now := time.Now()
	var tickets []models.Ticket
	if outcome == models.StatusCompleted {
		tickets, err = s.minter.BuildTickets(txn.EventID, txn.UserID, txn.TicketAmount, now)
		if err != nil {
			return nil, err
		}
	}

	locked, err := s.lock.LockSettlement(txn.EventID, txn.ID)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, apperr.Conflict("another settlement is in progress for event %s", txn.EventID)
	}
	defer func() {
		if err := s.lock.UnlockSettlement(txn.EventID, txn.ID); err != nil {
			s.logger.Error("ORDER", "unlock settlement for "+txn.ID+" failed: "+err.Error())
		}
	}()

	debited, err := s.db.Settle(ctx, *txn, outcome, tickets, now)
	if err != nil {
		s.logger.LogSettlement(txn.ID, outcome, "settlement failed: "+err.Error())
		return nil, err
	}

	txn.Status = outcome
	txn.UpdatedAt = now
	s.logger.LogSettlement(txn.ID, outcome, fmt.Sprintf("settled, %d points debited, %d tickets minted", debited, len(tickets)))

	if outcome == models.StatusCompleted {
		s.publishOrder(s.topics.OrderCompleted, *txn)
		s.publishTickets(txn.EventID, txn.UserID, len(tickets))
	} else {
		s.publishOrder(s.topics.OrderCancelled, *txn)
	}
	return txn, nil
}

// CreateFreeTicket books seats on a free event directly, with no order.
// The amount requested is checked against stored inventory only; the
// caller's view of remaining seats is ignored.
func (s *Service) CreateFreeTicket(ctx context.Context, userID string, req models.FreeTicketRequest) ([]models.Ticket, error) {
	if req.Amount < 1 {
		return nil, apperr.Validation("ticket amount must be at least 1")
	}

	event, err := s.events.GetEventByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, apperr.NotFound("event %s not found", req.EventID)
	}
	if event.EventType != models.EventTypeFree {
		return nil, apperr.Validation("event %s is not free", req.EventID)
	}

	tickets, err := s.minter.BuildTickets(req.EventID, userID, req.Amount, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.db.IssueFreeTickets(ctx, req.EventID, tickets); err != nil {
		return nil, err
	}

	s.logger.LogOrder("free_ticket", req.EventID, "issued free tickets for "+userID)
	s.publishTickets(req.EventID, userID, len(tickets))
	return tickets, nil
}

// GetTransaction returns one of the caller's transactions.
func (s *Service) GetTransaction(ctx context.Context, orderID, userID string) (*models.Transaction, error) {
	txn, err := s.db.GetTransactionByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if txn == nil || txn.UserID != userID {
		return nil, apperr.NotFound("transaction %s not found", orderID)
	}
	return txn, nil
}

// ListTransactions returns the caller's order history.
func (s *Service) ListTransactions(ctx context.Context, userID string) ([]models.TransactionWithEvent, error) {
	return s.db.ListTransactionsByUser(ctx, userID)
}

func (s *Service) publishOrder(topic string, txn models.Transaction) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishOrder(topic, txn); err != nil {
		s.logger.LogKafka("publish", topic, "failed: "+err.Error())
	}
}

func (s *Service) publishTickets(eventID, attendeeID string, count int) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishTicketsIssued(s.topics.TicketIssued, eventID, attendeeID, count); err != nil {
		s.logger.LogKafka("publish", s.topics.TicketIssued, "failed: "+err.Error())
	}
}
