package api

import (
	"encoding/json"
	"net/http"

	"ms-eventpay/internal/analytics"
	"ms-eventpay/internal/apperr"
	"ms-eventpay/internal/auth"
	"ms-eventpay/internal/logger"
)

// Handler serves the /management dashboard for organizers.
type Handler struct {
	Analytics *analytics.Service
	Logger    *logger.Logger
}

func NewHandler(analyticsSvc *analytics.Service, log *logger.Logger) *Handler {
	return &Handler{Analytics: analyticsSvc, Logger: log}
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

// Revenue handles GET /management/revenue.
func (h *Handler) Revenue(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Analytics.Revenue(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.Logger.Error("API", "revenue query failed: "+err.Error())
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// TransactionStats handles GET /management/transactionstats.
func (h *Handler) TransactionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Analytics.Stats(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// AllAvailable handles GET /management/allavailable.
func (h *Handler) AllAvailable(w http.ResponseWriter, r *http.Request) {
	seats, err := h.Analytics.AvailableSeats(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"available_seats": seats})
}

// AllBooked handles GET /management/allbooked.
func (h *Handler) AllBooked(w http.ResponseWriter, r *http.Request) {
	booked, err := h.Analytics.BookedTickets(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"booked_tickets": booked})
}

// Transactions handles GET /management/transactions.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.Analytics.Transactions(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, txns)
}
