package payment

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"ms-eventpay/internal/apperr"
	"ms-eventpay/internal/logger"
	"ms-eventpay/internal/models"
)

const testWebhookSecret = "whsec_test_secret"

type MockSettler struct {
	mock.Mock
}

func (m *MockSettler) FinishOrder(ctx context.Context, orderID, outcome, callerID string) (*models.Transaction, error) {
	args := m.Called(ctx, orderID, outcome, callerID)
	if txn := args.Get(0); txn != nil {
		return txn.(*models.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func signedWebhookRequest(t *testing.T, eventType, orderID, secret string) *http.Request {
	t.Helper()

	payload := fmt.Sprintf(
		`{"id":"evt_1","api_version":%q,"type":%q,"data":{"object":{"id":"cs_1","metadata":{"order_id":%q}}}}`,
		stripe.APIVersion, eventType, orderID)

	now := time.Now()
	sig := webhook.ComputeSignature(now, []byte(payload), secret)

	r := httptest.NewRequest(http.MethodPost, "/payments/stripe/webhook", strings.NewReader(payload))
	r.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig)))
	return r
}

func newWebhookHandler(settler Settler) *WebhookHandler {
	return NewWebhookHandler(settler, testWebhookSecret, logger.NewLogger())
}

func TestWebhookCompletedSettlesOrder(t *testing.T) {
	settler := new(MockSettler)
	settler.On("FinishOrder", mock.Anything, "order_1", models.StatusCompleted, "").
		Return(&models.Transaction{ID: "order_1", Status: models.StatusCompleted}, nil)

	w := httptest.NewRecorder()
	newWebhookHandler(settler).HandleWebhook(w, signedWebhookRequest(t, "checkout.session.completed", "order_1", testWebhookSecret))

	assert.Equal(t, http.StatusOK, w.Code)
	settler.AssertExpectations(t)
}

func TestWebhookExpiredCancelsOrder(t *testing.T) {
	settler := new(MockSettler)
	settler.On("FinishOrder", mock.Anything, "order_1", models.StatusCancelled, "").
		Return(&models.Transaction{ID: "order_1", Status: models.StatusCancelled}, nil)

	w := httptest.NewRecorder()
	newWebhookHandler(settler).HandleWebhook(w, signedWebhookRequest(t, "checkout.session.expired", "order_1", testWebhookSecret))

	assert.Equal(t, http.StatusOK, w.Code)
	settler.AssertExpectations(t)
}

func TestWebhookTransientFailureAsksForRetry(t *testing.T) {
	settler := new(MockSettler)
	settler.On("FinishOrder", mock.Anything, "order_1", models.StatusCompleted, "").
		Return(nil, errors.New("db connection refused"))

	w := httptest.NewRecorder()
	newWebhookHandler(settler).HandleWebhook(w, signedWebhookRequest(t, "checkout.session.completed", "order_1", testWebhookSecret))

	// Stripe only redelivers on a non-2xx answer.
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWebhookSettledOrderIsAcknowledged(t *testing.T) {
	cases := []error{
		apperr.Conflict("transaction order_1 already Completed"),
		apperr.NotFound("transaction order_1 not found"),
	}
	for _, settleErr := range cases {
		settler := new(MockSettler)
		settler.On("FinishOrder", mock.Anything, "order_1", models.StatusCompleted, "").
			Return(nil, settleErr)

		w := httptest.NewRecorder()
		newWebhookHandler(settler).HandleWebhook(w, signedWebhookRequest(t, "checkout.session.completed", "order_1", testWebhookSecret))

		assert.Equal(t, http.StatusOK, w.Code, "error %v must not trigger redelivery", settleErr)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	settler := new(MockSettler)

	w := httptest.NewRecorder()
	newWebhookHandler(settler).HandleWebhook(w, signedWebhookRequest(t, "checkout.session.completed", "order_1", "whsec_other_secret"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	settler.AssertNotCalled(t, "FinishOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookIgnoresUnrelatedEvents(t *testing.T) {
	settler := new(MockSettler)

	w := httptest.NewRecorder()
	newWebhookHandler(settler).HandleWebhook(w, signedWebhookRequest(t, "invoice.paid", "order_1", testWebhookSecret))

	assert.Equal(t, http.StatusOK, w.Code)
	settler.AssertNotCalled(t, "FinishOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestToCentsRounds(t *testing.T) {
	assert.Equal(t, int64(1999), toCents(19.99))
	assert.Equal(t, int64(5000), toCents(50))
	assert.Equal(t, int64(3333), toCents(33.333))
	assert.Equal(t, int64(0), toCents(0))
}
