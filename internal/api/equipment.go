package api

import (
	"database/sql"
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/oprema/internal/imaging"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// EquipmentHandler handles equipment catalog endpoints.
type EquipmentHandler struct {
	DB *sql.DB
}

type createEquipmentRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	SerialNumber string `json:"serial_number"`
	Location     string `json:"location"`
	Sensitive    bool   `json:"sensitive"`
}

type updateEquipmentRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	SerialNumber string `json:"serial_number"`
	Location     string `json:"location"`
	Status       string `json:"status"`
	Condition    string `json:"condition"`
}

// List handles GET /api/equipment.
func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListEquipment(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list equipment")
		return
	}
	if items == nil {
		items = []model.Equipment{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Search handles GET /api/equipment/search.
func (h *EquipmentHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := q.Get("status")
	if status != "" && !model.ValidStatus(status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}
	condition := q.Get("condition")
	if condition != "" && !model.ValidCondition(condition) {
		jsonError(w, http.StatusBadRequest, "invalid condition")
		return
	}

	items, err := store.SearchEquipment(r.Context(), h.DB, q.Get("name"), q.Get("type"), status, condition)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to search equipment")
		return
	}
	if items == nil {
		items = []model.Equipment{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/equipment.
func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEquipmentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.SerialNumber == "" {
		jsonError(w, http.StatusBadRequest, "name and serial_number required")
		return
	}

	item, err := store.CreateEquipment(r.Context(), h.DB, req.Name, req.Type, req.SerialNumber, req.Location, req.Sensitive)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create equipment")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("equipment created", "admin", claims.Username, "equipment", item.Name, "sensitive", item.Sensitive)
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/equipment/{id}.
func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	item, err := store.GetEquipment(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "equipment not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/equipment/{id}.
func (h *EquipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	var req updateEquipmentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.SerialNumber == "" {
		jsonError(w, http.StatusBadRequest, "name and serial_number required")
		return
	}
	if !model.ValidStatus(req.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if !model.ValidCondition(req.Condition) {
		jsonError(w, http.StatusBadRequest, "invalid condition")
		return
	}

	item, err := store.GetEquipment(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "equipment not found")
		return
	}

	if err := store.UpdateEquipment(r.Context(), h.DB, id, req.Name, req.Type, req.SerialNumber, req.Location, req.Status, req.Condition); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update equipment")
		return
	}

	// Manual condition edits get a condition log entry too, so the audit
	// trail covers changes made outside the return workflow.
	if req.Condition != item.Condition {
		claims := GetClaims(r.Context())
		if err := store.AppendConditionChange(r.Context(), h.DB, id, item.Condition, req.Condition, &claims.UserID, ""); err != nil {
			slog.Warn("failed to log condition change", "equipment", id, "error", err)
		}
	}

	item, _ = store.GetEquipment(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/equipment/{id}.
func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	item, err := store.GetEquipment(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "equipment not found")
		return
	}

	if err := store.DeleteEquipment(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete equipment")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("equipment deleted", "admin", claims.Username, "equipment", item.Name)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "equipment deleted"})
}

// UploadPhoto handles PUT /api/equipment/{id}/photo.
func (h *EquipmentHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	item, err := store.GetEquipment(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "equipment not found")
		return
	}

	photo, err := imaging.Normalize(http.MaxBytesReader(w, r.Body, 20<<20))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetEquipmentPhoto(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo updated"})
}

// GetPhoto handles GET /api/equipment/{id}/photo.
func (h *EquipmentHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	photo, mime, err := store.GetEquipmentPhoto(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(photo) == 0 {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Write(photo)
}

// GetConditionLog handles GET /api/equipment/{id}/condition-log.
func (h *EquipmentHandler) GetConditionLog(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	logs, err := store.GetConditionLogs(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get condition log")
		return
	}
	if logs == nil {
		logs = []model.ConditionLog{}
	}
	jsonResponse(w, http.StatusOK, logs)
}

// ExportCSV handles GET /api/equipment/export/csv.
func (h *EquipmentHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListEquipment(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to export equipment")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="equipment.csv"`)

	cw := csv.NewWriter(w)
	cw.Write([]string{"id", "name", "type", "serial_number", "condition", "status", "location", "sensitive"})
	for _, e := range items {
		cw.Write([]string{
			strconv.FormatInt(e.ID, 10), e.Name, e.Type, e.SerialNumber,
			e.Condition, e.Status, e.Location, strconv.FormatBool(e.Sensitive),
		})
	}
	cw.Flush()
}

// ExportRequestsCSV handles GET /api/equipment/export/requests/csv.
func (h *EquipmentHandler) ExportRequestsCSV(w http.ResponseWriter, r *http.Request) {
	reservations, err := store.ListReservations(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to export requests")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="requests.csv"`)

	formatTime := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(time.RFC3339)
	}
	formatID := func(id *int64) string {
		if id == nil {
			return ""
		}
		return strconv.FormatInt(*id, 10)
	}

	cw := csv.NewWriter(w)
	cw.Write([]string{"id", "equipment_id", "requester_id", "requested_at", "start", "end",
		"status", "approved_by", "approved_at", "returned_at", "return_notes"})
	for _, res := range reservations {
		cw.Write([]string{
			strconv.FormatInt(res.ID, 10),
			strconv.FormatInt(res.EquipmentID, 10),
			strconv.FormatInt(res.RequesterID, 10),
			res.RequestedAt.Format(time.RFC3339),
			res.Start.Format(time.RFC3339),
			res.End.Format(time.RFC3339),
			res.Status,
			formatID(res.ApprovedBy),
			formatTime(res.ApprovedAt),
			formatTime(res.ReturnedAt),
			res.ReturnNotes,
		})
	}
	cw.Flush()
}
