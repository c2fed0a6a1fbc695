package user_api

import (
	"encoding/json"
	"net/http"

	"ms-eventpay/internal/apperr"
	"ms-eventpay/internal/logger"
	"ms-eventpay/internal/models"
	"ms-eventpay/internal/users"
)

type Handler struct {
	Users  *users.Service
	Logger *logger.Logger
}

func NewHandler(usersSvc *users.Service, log *logger.Logger) *Handler {
	return &Handler{Users: usersSvc, Logger: log}
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

// Register handles POST /users.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.Validation("invalid request body"))
		return
	}

	user, err := h.Users.Register(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", "register failed: "+err.Error())
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// Login handles POST /users/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.Validation("invalid request body"))
		return
	}

	resp, err := h.Users.Login(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
