// Package payment integrates the Stripe checkout flow. It is optional:
// when no secret key is configured, orders settle through the plain
// transaction endpoint instead.
package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"ms-eventpay/internal/config"
	"ms-eventpay/internal/logger"
	"ms-eventpay/internal/models"
)

var ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")

// toCents converts a currency amount to Stripe's integer cents,
// rounding so amounts like 19.99 do not truncate to 1998.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// StripeService creates Checkout Sessions for pending orders.
type StripeService struct {
	client   *client.API
	currency string
	log      *logger.Logger
}

func NewStripeService(cfg config.StripeConfig, log *logger.Logger) (*StripeService, error) {
	if cfg.SecretKey == "" {
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(cfg.SecretKey, nil)
	if sc == nil {
		log.Error("STRIPE", "Failed to initialize Stripe client")
		return nil, ErrStripeClientInitFailed
	}

	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeService{
		client:   sc,
		currency: cfg.Currency,
		log:      log,
	}, nil
}

// CheckoutURL creates a Checkout Session for an order's final amount
// and returns the hosted payment page URL. The order id rides along as
// metadata so the webhook can settle the right transaction.
func (s *StripeService) CheckoutURL(ctx context.Context, txn models.Transaction, event models.Event) (string, error) {
	amountInCents := toCents(txn.FinalAmount)
	if amountInCents <= 0 {
		return "", fmt.Errorf("invalid payment amount: %.2f", txn.FinalAmount)
	}

	successURL := os.Getenv("STRIPE_SUCCESS_URL")
	if successURL == "" {
		successURL = "http://localhost:3000/payments/success"
	}
	cancelURL := os.Getenv("STRIPE_CANCEL_URL")
	if cancelURL == "" {
		cancelURL = "http://localhost:3000/payments/cancel"
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("%s (%d tickets)", event.Name, txn.TicketAmount)),
					},
					UnitAmount: stripe.Int64(amountInCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Metadata: map[string]string{
			"order_id": txn.ID,
			"event_id": txn.EventID,
		},
	}
	params.Context = ctx

	session, err := s.client.CheckoutSessions.New(params)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("Failed to create checkout session for order %s: %v", txn.ID, err))
		return "", err
	}

	s.log.Info("STRIPE", fmt.Sprintf("Checkout session %s created for order %s", session.ID, txn.ID))
	return session.URL, nil
}
