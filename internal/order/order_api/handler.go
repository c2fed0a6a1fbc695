package order_api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-eventpay/internal/apperr"
	"ms-eventpay/internal/auth"
	"ms-eventpay/internal/discount"
	"ms-eventpay/internal/logger"
	"ms-eventpay/internal/loyalty"
	"ms-eventpay/internal/models"
	"ms-eventpay/internal/order"
)

// Handler serves the /payments surface: order intake, settlement,
// free tickets and the caller's points, discounts and history.
type Handler struct {
	Order   *order.Service
	Loyalty *loyalty.Service
	Disc    *discount.Service
	Logger  *logger.Logger
}

func NewHandler(orderSvc *order.Service, loyaltySvc *loyalty.Service, discountSvc *discount.Service, log *logger.Logger) *Handler {
	return &Handler{
		Order:   orderSvc,
		Loyalty: loyaltySvc,
		Disc:    discountSvc,
		Logger:  log,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
}

// CreateOrder handles POST /payments/order.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.Validation("invalid request body"))
		return
	}

	resp, err := h.Order.CreateOrder(r.Context(), userID, req)
	if err != nil {
		h.Logger.Error("API", "create order failed: "+err.Error())
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// FinishOrder handles POST /payments/transaction. Type 1 completes the
// order; anything else cancels it.
func (h *Handler) FinishOrder(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req models.FinishOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.Validation("invalid request body"))
		return
	}
	if req.ID == "" {
		respondError(w, apperr.Validation("transaction id is required"))
		return
	}

	outcome := models.StatusCancelled
	if req.Type == 1 {
		outcome = models.StatusCompleted
	}

	txn, err := h.Order.FinishOrder(r.Context(), req.ID, outcome, userID)
	if err != nil {
		h.Logger.Error("API", "finish order failed: "+err.Error())
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, txn)
}

// CreateFreeTicket handles POST /payments/ticket.
func (h *Handler) CreateFreeTicket(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req models.FreeTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.Validation("invalid request body"))
		return
	}

	tickets, err := h.Order.CreateFreeTicket(r.Context(), userID, req)
	if err != nil {
		h.Logger.Error("API", "free ticket failed: "+err.Error())
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, tickets)
}

// GetPoints handles GET /payments/points.
func (h *Handler) GetPoints(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	balance, err := h.Loyalty.Balance(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	points, err := h.Loyalty.Points(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"balance": balance,
		"points":  points,
	})
}

// GetDiscounts handles GET /payments/discounts.
func (h *Handler) GetDiscounts(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	discounts, err := h.Disc.Available(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, discounts)
}

// GetTransactions handles GET /payments/transaction.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	txns, err := h.Order.ListTransactions(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, txns)
}

// GetTransaction handles GET /payments/transaction/{orderID}.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	orderID := chi.URLParam(r, "orderID")

	txn, err := h.Order.GetTransaction(r.Context(), orderID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, txn)
}
