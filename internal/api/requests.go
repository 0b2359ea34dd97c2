package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// RequestsHandler handles the equipment reservation workflow endpoints.
type RequestsHandler struct {
	DB *sql.DB
}

type createRequestRequest struct {
	EquipmentID int64      `json:"equipment_id"`
	Start       *time.Time `json:"start"`
	End         *time.Time `json:"end"`
	Notes       string     `json:"notes"`
}

type rejectRequestRequest struct {
	Notes string `json:"notes"`
}

type returnRequestRequest struct {
	Condition *string `json:"condition"`
	Status    *string `json:"status"`
	Notes     string  `json:"notes"`
}

// Create handles POST /api/requests.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.EquipmentID <= 0 {
		jsonError(w, http.StatusBadRequest, "equipment_id required")
		return
	}
	if req.Start == nil || req.End == nil {
		jsonError(w, http.StatusBadRequest, "start and end times are required")
		return
	}

	claims := GetClaims(r.Context())
	res, err := store.CreateReservation(r.Context(), h.DB, req.EquipmentID, claims.UserID, *req.Start, *req.End, req.Notes)
	if err != nil {
		workflowError(w, err)
		return
	}

	slog.Info("reservation created", "user", claims.Username,
		"equipment", res.EquipmentName, "status", res.Status)
	jsonResponse(w, http.StatusCreated, res)
}

// Mine handles GET /api/requests/mine.
func (h *RequestsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	reservations, err := store.ListReservationsForRequester(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	jsonResponse(w, http.StatusOK, reservations)
}

// List handles GET /api/requests (admin view of everything).
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	reservations, err := store.ListReservations(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	jsonResponse(w, http.StatusOK, reservations)
}

// ListForUser handles GET /api/requests/user/{id}.
func (h *RequestsHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	reservations, err := store.ListReservationsForRequester(r.Context(), h.DB, userID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	jsonResponse(w, http.StatusOK, reservations)
}

// Approve handles PATCH /api/requests/{id}/approve.
func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	claims := GetClaims(r.Context())
	res, err := store.ApproveReservation(r.Context(), h.DB, id, claims.UserID)
	if err != nil {
		workflowError(w, err)
		return
	}

	slog.Info("reservation approved", "admin", claims.Username,
		"equipment", res.EquipmentName, "request", res.ID)
	jsonResponse(w, http.StatusOK, res)
}

// Reject handles PATCH /api/requests/{id}/reject.
func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req rejectRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	res, err := store.RejectReservation(r.Context(), h.DB, id, claims.UserID, req.Notes)
	if err != nil {
		workflowError(w, err)
		return
	}

	slog.Info("reservation rejected", "admin", claims.Username,
		"equipment", res.EquipmentName, "request", res.ID)
	jsonResponse(w, http.StatusOK, res)
}

// Return handles PATCH /api/requests/{id}/return.
func (h *RequestsHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req returnRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Condition != nil && !model.ValidCondition(*req.Condition) {
		jsonError(w, http.StatusBadRequest, "invalid condition")
		return
	}
	if req.Status != nil && !model.ValidStatus(*req.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	claims := GetClaims(r.Context())
	res, err := store.ReturnReservation(r.Context(), h.DB, id, store.ReturnUpdate{
		Condition: req.Condition,
		Status:    req.Status,
		Notes:     req.Notes,
	}, claims.UserID)
	if err != nil {
		workflowError(w, err)
		return
	}

	slog.Info("reservation returned", "admin", claims.Username,
		"equipment", res.EquipmentName, "request", res.ID)
	jsonResponse(w, http.StatusOK, res)
}
