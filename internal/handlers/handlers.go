package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/securevault-systems/vault-core/internal/logging"
	"github.com/securevault-systems/vault-core/internal/service"
)

// Handler wires the wire surface to the service layer.
type Handler struct {
	identity *service.Identity
	ledger   *service.Ledger
	workflow *service.Workflow
	registry *service.Registry
	files    *service.Files
	honeypot *service.Honeypot
	logger   *logging.Logger
}

func New(identity *service.Identity, ledger *service.Ledger, workflow *service.Workflow,
	registry *service.Registry, files *service.Files, honeypot *service.Honeypot,
	logger *logging.Logger) *Handler {
	return &Handler{
		identity: identity,
		ledger:   ledger,
		workflow: workflow,
		registry: registry,
		files:    files,
		honeypot: honeypot,
		logger:   logger,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// serviceError maps the coarse service error kinds onto HTTP statuses. The
// message is the sentinel's own text; nothing more specific leaks out.
func (h *Handler) serviceError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, service.ErrLockdown):
		status = http.StatusServiceUnavailable
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrMigrationRequired):
		// The client treats this as a branch, not a failure.
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "MIGRATION_REQUIRED"})
		return
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrSectorNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateUsername),
		errors.Is(err, service.ErrDuplicateSector),
		errors.Is(err, service.ErrAlreadyDecided),
		errors.Is(err, service.ErrSectorNotEmpty):
		status = http.StatusConflict
	case errors.Is(err, service.ErrWeakCredential),
		errors.Is(err, service.ErrPatternMismatch),
		errors.Is(err, service.ErrInvalidPattern),
		errors.Is(err, service.ErrInvalidSector),
		errors.Is(err, service.ErrInvalidLevel),
		errors.Is(err, service.ErrInvalidDuration),
		errors.Is(err, service.ErrInvalidAction):
		status = http.StatusBadRequest
	default:
		h.logger.Error("internal error", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}
