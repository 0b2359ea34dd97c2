package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// DocumentsHandler handles document metadata endpoints.
type DocumentsHandler struct {
	DB *sql.DB
}

type documentRequest struct {
	Title          string `json:"title"`
	Path           string `json:"path"`
	VisibilityRole string `json:"visibility_role"`
}

// List handles GET /api/documents. Admins see everything; other users only
// see documents visible to the user role.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	visibility := ""
	if claims.Role != model.RoleAdmin {
		visibility = model.RoleUser
	}

	docs, err := store.ListDocuments(r.Context(), h.DB, visibility)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	if docs == nil {
		docs = []model.Document{}
	}
	jsonResponse(w, http.StatusOK, docs)
}

// Create handles POST /api/documents.
func (h *DocumentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" || req.Path == "" {
		jsonError(w, http.StatusBadRequest, "title and path required")
		return
	}
	if req.VisibilityRole == "" {
		req.VisibilityRole = model.RoleUser
	}
	if req.VisibilityRole != model.RoleAdmin && req.VisibilityRole != model.RoleUser {
		jsonError(w, http.StatusBadRequest, "visibility_role must be admin or user")
		return
	}

	claims := GetClaims(r.Context())
	doc, err := store.CreateDocument(r.Context(), h.DB, req.Title, req.Path, req.VisibilityRole, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create document")
		return
	}

	slog.Info("document created", "user", claims.Username, "document", doc.Title)
	jsonResponse(w, http.StatusCreated, doc)
}

// Get handles GET /api/documents/{id}.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := store.GetDocument(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if doc == nil {
		jsonError(w, http.StatusNotFound, "document not found")
		return
	}

	claims := GetClaims(r.Context())
	if claims.Role != model.RoleAdmin && doc.VisibilityRole != model.RoleUser {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}
	jsonResponse(w, http.StatusOK, doc)
}

// Update handles PUT /api/documents/{id}. Only the uploader or an admin may
// update a document.
func (h *DocumentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	var req documentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.Path == "" {
		jsonError(w, http.StatusBadRequest, "title and path required")
		return
	}
	if req.VisibilityRole != model.RoleAdmin && req.VisibilityRole != model.RoleUser {
		jsonError(w, http.StatusBadRequest, "visibility_role must be admin or user")
		return
	}

	doc, err := store.GetDocument(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if doc == nil {
		jsonError(w, http.StatusNotFound, "document not found")
		return
	}

	claims := GetClaims(r.Context())
	if claims.Role != model.RoleAdmin && doc.UploadedBy != claims.UserID {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	if err := store.UpdateDocument(r.Context(), h.DB, id, req.Title, req.Path, req.VisibilityRole); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update document")
		return
	}

	doc, _ = store.GetDocument(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, doc)
}

// Delete handles DELETE /api/documents/{id}. Only the uploader or an admin
// may delete a document.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := store.GetDocument(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if doc == nil {
		jsonError(w, http.StatusNotFound, "document not found")
		return
	}

	claims := GetClaims(r.Context())
	if claims.Role != model.RoleAdmin && doc.UploadedBy != claims.UserID {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	if err := store.DeleteDocument(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}

	slog.Info("document deleted", "user", claims.Username, "document", doc.Title)
	jsonResponse(w, http.StatusOK, map[string]int64{"id": id})
}
