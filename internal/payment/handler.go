package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"ms-eventpay/internal/apperr"
	"ms-eventpay/internal/logger"
	"ms-eventpay/internal/models"
)

// Settler finishes an order on behalf of the payment gateway. The empty
// caller id marks the settlement as system-initiated.
type Settler interface {
	FinishOrder(ctx context.Context, orderID, outcome, callerID string) (*models.Transaction, error)
}

// WebhookHandler consumes Stripe webhook events and settles the orders
// they refer to.
type WebhookHandler struct {
	Settler       Settler
	WebhookSecret string
	Logger        *logger.Logger
}

func NewWebhookHandler(settler Settler, webhookSecret string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		Settler:       settler,
		WebhookSecret: webhookSecret,
		Logger:        log,
	}
}

const maxWebhookBody = 65536

// HandleWebhook handles POST /payments/stripe/webhook. A completed
// checkout settles the order as Completed; an expired one cancels it.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.Logger.Error("STRIPE", "failed to read webhook body: "+err.Error())
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.WebhookSecret)
	if err != nil {
		h.Logger.Warn("STRIPE", "webhook signature verification failed: "+err.Error())
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		h.settleFromSession(r.Context(), w, event, models.StatusCompleted)
	case "checkout.session.expired":
		h.settleFromSession(r.Context(), w, event, models.StatusCancelled)
	default:
		// Not ours; acknowledge so Stripe stops retrying.
		w.WriteHeader(http.StatusOK)
	}
}

func (h *WebhookHandler) settleFromSession(ctx context.Context, w http.ResponseWriter, event stripe.Event, outcome string) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		h.Logger.Error("STRIPE", "failed to parse checkout session: "+err.Error())
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	orderID := session.Metadata["order_id"]
	if orderID == "" {
		h.Logger.Warn("STRIPE", "checkout session "+session.ID+" carries no order_id")
		w.WriteHeader(http.StatusOK)
		return
	}

	if _, err := h.Settler.FinishOrder(ctx, orderID, outcome, ""); err != nil {
		h.Logger.Error("STRIPE", fmt.Sprintf("settling order %s as %s failed: %v", orderID, outcome, err))
		// An already-settled or unknown order will never succeed on
		// retry; acknowledge those so Stripe stops redelivering.
		// Anything else is transient and must be retried.
		if apperr.IsConflict(err) || apperr.IsNotFound(err) {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.Logger.Info("STRIPE", fmt.Sprintf("order %s settled as %s via webhook", orderID, outcome))
	w.WriteHeader(http.StatusOK)
}
