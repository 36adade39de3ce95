package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/securevault-systems/vault-core/internal/logging"
	"github.com/securevault-systems/vault-core/internal/middleware"
	"github.com/securevault-systems/vault-core/internal/models"
)

// TrapTrigger accepts anonymous hits; when a valid session accompanies the
// trigger the identity gets flagged. The response says nothing useful.
func (h *Handler) TrapTrigger(w http.ResponseWriter, r *http.Request) {
	var req models.TrapTriggerRequest
	// A malformed body still records an incident; the trap must never
	// error out in a way an intruder could notice.
	_ = json.NewDecoder(r.Body).Decode(&req)

	ip := req.IP
	if ip == "" {
		ip = getClientIP(r)
	}
	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = r.Header.Get("User-Agent")
	}

	user := middleware.GetUser(r.Context())
	actor := "anonymous"
	if user != nil {
		actor = user.Username
	}
	h.logger.WarnContext(r.Context(), "trap trigger received",
		logging.IP(ip), logging.Username(actor))

	if _, err := h.honeypot.Trigger(r.Context(), ip, userAgent, user); err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
