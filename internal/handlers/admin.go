package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/securevault-systems/vault-core/internal/middleware"
	"github.com/securevault-systems/vault-core/internal/models"
)

func (h *Handler) AdminData(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.files.AdminSnapshot(r.Context())
	if err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) AdminSettings(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUser(r.Context())

	var req models.FirewallRulesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.registry.UpdateFirewallRules(r.Context(), admin, req.IDPattern, req.AllowedDomain); err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) AdminLockdown(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUser(r.Context())

	var req models.LockdownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.registry.SetLockdown(r.Context(), admin, req.Enabled); err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"lockdown": req.Enabled})
}

func (h *Handler) AdminDecideRequest(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUser(r.Context())

	var req models.DecideRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	decided, err := h.workflow.Decide(r.Context(), admin, req.RequestID, req.Action)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decided)
}

func (h *Handler) AdminDeleteFile(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUser(r.Context())

	var req models.FileIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.files.AdminPurge(r.Context(), admin, req.ID); err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) AdminAddSector(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUser(r.Context())

	var req models.AddSectorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sector, err := h.registry.AddSector(r.Context(), admin, req.Name, req.Level)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sector)
}

func (h *Handler) AdminDeleteSector(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUser(r.Context())

	var req models.DeleteSectorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.registry.DeleteSector(r.Context(), admin, req.Name); err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
