package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/securevault-systems/vault-core/internal/handlers"
	"github.com/securevault-systems/vault-core/internal/middleware"
)

// NewRouter constructs the ServeMux with every vault route registered. Route
// paths match the browser client's fetch calls.
func NewRouter(h *handlers.Handler, auth *middleware.Authenticator) http.Handler {
	mux := http.NewServeMux()

	// Unauthenticated surface
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /migrate", h.Migrate)

	// Session-holder surface
	mux.Handle("GET /dashboard-stats", auth.Require(http.HandlerFunc(h.DashboardStats)))
	mux.Handle("POST /department-data", auth.Require(http.HandlerFunc(h.DepartmentData)))
	mux.Handle("POST /request-access", auth.Require(http.HandlerFunc(h.RequestAccess)))
	mux.Handle("POST /upload", auth.Require(http.HandlerFunc(h.Upload)))
	mux.Handle("POST /rename-file", auth.Require(http.HandlerFunc(h.RenameFile)))
	mux.Handle("POST /delete-own-file", auth.Require(http.HandlerFunc(h.DeleteOwnFile)))

	// Admin console
	mux.Handle("GET /admin/data", auth.RequireAdmin(http.HandlerFunc(h.AdminData)))
	mux.Handle("POST /admin/settings", auth.RequireAdmin(http.HandlerFunc(h.AdminSettings)))
	mux.Handle("POST /admin/lockdown", auth.RequireAdmin(http.HandlerFunc(h.AdminLockdown)))
	mux.Handle("POST /admin/approve-request", auth.RequireAdmin(http.HandlerFunc(h.AdminDecideRequest)))
	mux.Handle("POST /admin/delete-file", auth.RequireAdmin(http.HandlerFunc(h.AdminDeleteFile)))
	mux.Handle("POST /admin/sectors", auth.RequireAdmin(http.HandlerFunc(h.AdminAddSector)))
	mux.Handle("POST /admin/sectors/delete", auth.RequireAdmin(http.HandlerFunc(h.AdminDeleteSector)))

	// The trap works with or without a session; a valid one gets flagged.
	mux.Handle("POST /trap-trigger", auth.Optional(http.HandlerFunc(h.TrapTrigger)))

	mux.HandleFunc("GET /healthz", h.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
