package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/securevault-systems/vault-core/internal/middleware"
	"github.com/securevault-systems/vault-core/internal/models"
)

func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if err := h.registry.Gate(r.Context(), user); err != nil {
		h.serviceError(w, err)
		return
	}

	stats, err := h.ledger.Summary(r.Context(), user)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DashboardResponse{
		Stats:    stats,
		FullName: user.FullName,
		Username: user.Username,
	})
}

func (h *Handler) DepartmentData(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req models.SectorEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.files.EnterSector(r.Context(), user, req.Department, req.Password)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) RequestAccess(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if err := h.registry.Gate(r.Context(), user); err != nil {
		h.serviceError(w, err)
		return
	}

	var req models.AccessRequestSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The client posts its duration select values verbatim as strings.
	minutes, err := strconv.Atoi(req.Duration)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid duration")
		return
	}

	created, err := h.workflow.Submit(r.Context(), user, req.Department, minutes, req.Reason)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req models.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	file, err := h.files.Upload(r.Context(), user, req.Department, req.Filename, req.Passcode, req.Status)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, file)
}

func (h *Handler) RenameFile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req models.RenameFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.files.Rename(r.Context(), user, req.ID, req.NewName); err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

func (h *Handler) DeleteOwnFile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req models.FileIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.files.Delete(r.Context(), user, req.ID); err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
