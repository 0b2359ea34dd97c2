package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/oprema/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	equipmentHandler := &EquipmentHandler{DB: db}
	requestsHandler := &RequestsHandler{DB: db}
	documentsHandler := &DocumentsHandler{DB: db}
	reportsHandler := &ReportsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: registration and login.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Equipment: read (all roles), write (admin).
	mux.Handle("GET /api/equipment", authMW(http.HandlerFunc(equipmentHandler.List)))
	mux.Handle("GET /api/equipment/search", authMW(http.HandlerFunc(equipmentHandler.Search)))
	mux.Handle("GET /api/equipment/export/csv", authMW(requireAdmin(http.HandlerFunc(equipmentHandler.ExportCSV))))
	mux.Handle("GET /api/equipment/export/requests/csv", authMW(requireAdmin(http.HandlerFunc(equipmentHandler.ExportRequestsCSV))))
	mux.Handle("POST /api/equipment", authMW(requireAdmin(http.HandlerFunc(equipmentHandler.Create))))
	mux.Handle("GET /api/equipment/{id}", authMW(http.HandlerFunc(equipmentHandler.Get)))
	mux.Handle("PUT /api/equipment/{id}", authMW(requireAdmin(http.HandlerFunc(equipmentHandler.Update))))
	mux.Handle("DELETE /api/equipment/{id}", authMW(requireAdmin(http.HandlerFunc(equipmentHandler.Delete))))
	mux.Handle("PUT /api/equipment/{id}/photo", authMW(requireAdmin(http.HandlerFunc(equipmentHandler.UploadPhoto))))
	mux.Handle("GET /api/equipment/{id}/photo", authMW(http.HandlerFunc(equipmentHandler.GetPhoto)))
	mux.Handle("GET /api/equipment/{id}/condition-log", authMW(http.HandlerFunc(equipmentHandler.GetConditionLog)))

	// Equipment requests: create/list-own (all roles), moderation (admin).
	mux.Handle("POST /api/requests", authMW(http.HandlerFunc(requestsHandler.Create)))
	mux.Handle("GET /api/requests/mine", authMW(http.HandlerFunc(requestsHandler.Mine)))
	mux.Handle("GET /api/requests", authMW(requireAdmin(http.HandlerFunc(requestsHandler.List))))
	mux.Handle("GET /api/requests/user/{id}", authMW(requireAdmin(http.HandlerFunc(requestsHandler.ListForUser))))
	mux.Handle("PATCH /api/requests/{id}/approve", authMW(requireAdmin(http.HandlerFunc(requestsHandler.Approve))))
	mux.Handle("PATCH /api/requests/{id}/reject", authMW(requireAdmin(http.HandlerFunc(requestsHandler.Reject))))
	mux.Handle("PATCH /api/requests/{id}/return", authMW(requireAdmin(http.HandlerFunc(requestsHandler.Return))))

	// Documents (all roles; visibility filtered per role).
	mux.Handle("GET /api/documents", authMW(http.HandlerFunc(documentsHandler.List)))
	mux.Handle("POST /api/documents", authMW(http.HandlerFunc(documentsHandler.Create)))
	mux.Handle("GET /api/documents/{id}", authMW(http.HandlerFunc(documentsHandler.Get)))
	mux.Handle("PUT /api/documents/{id}", authMW(http.HandlerFunc(documentsHandler.Update)))
	mux.Handle("DELETE /api/documents/{id}", authMW(http.HandlerFunc(documentsHandler.Delete)))

	// Reports (admin only).
	mux.Handle("GET /api/reports/usage", authMW(requireAdmin(http.HandlerFunc(reportsHandler.Usage))))
	mux.Handle("GET /api/reports/history", authMW(requireAdmin(http.HandlerFunc(reportsHandler.History))))

	return mux
}
