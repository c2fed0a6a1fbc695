package ticket_api

import (
	"encoding/json"
	"net/http"

	"ms-eventpay/internal/apperr"
	"ms-eventpay/internal/auth"
	"ms-eventpay/internal/logger"
	"ms-eventpay/internal/tickets"
)

type Handler struct {
	Tickets *tickets.Service
	Logger  *logger.Logger
}

func NewHandler(ticketsSvc *tickets.Service, log *logger.Logger) *Handler {
	return &Handler{Tickets: ticketsSvc, Logger: log}
}

// ListMyTickets handles GET /tickets.
func (h *Handler) ListMyTickets(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	list, err := h.Tickets.ListForUser(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", "list tickets failed: "+err.Error())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(apperr.HTTPStatus(err))
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(list)
}
