package event_api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-eventpay/internal/apperr"
	"ms-eventpay/internal/auth"
	"ms-eventpay/internal/comments"
	"ms-eventpay/internal/discount"
	"ms-eventpay/internal/logger"
	"ms-eventpay/internal/models"
)

// Handler serves the /event surface: organizer promo codes, code
// application and event comments.
type Handler struct {
	Disc     *discount.Service
	Comments *comments.Service
	Logger   *logger.Logger
}

func NewHandler(discountSvc *discount.Service, commentsSvc *comments.Service, log *logger.Logger) *Handler {
	return &Handler{Disc: discountSvc, Comments: commentsSvc, Logger: log}
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

// CreateDiscount handles POST /event/events/{eventID}/discounts.
func (h *Handler) CreateDiscount(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	organizerID := auth.UserID(r.Context())

	var req models.CreateEventDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.Validation("invalid request body"))
		return
	}

	created, err := h.Disc.CreateEventCode(r.Context(), organizerID, eventID, req)
	if err != nil {
		h.Logger.Error("API", "create discount failed: "+err.Error())
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// ApplyDiscount handles POST /event/events/{eventID}/apply-discount.
func (h *Handler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var req models.ApplyDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.Validation("invalid request body"))
		return
	}
	if req.Code == "" {
		respondError(w, apperr.Validation("discount code is required"))
		return
	}

	resp, err := h.Disc.ApplyCode(r.Context(), eventID, req.Code)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// CreateComment handles POST /event/comments.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req models.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.Validation("invalid request body"))
		return
	}

	comment, err := h.Comments.Create(r.Context(), userID, req)
	if err != nil {
		h.Logger.Error("API", "create comment failed: "+err.Error())
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

// ListComments handles GET /event/comments/{eventID}.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	list, err := h.Comments.ListByEvent(r.Context(), eventID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}
