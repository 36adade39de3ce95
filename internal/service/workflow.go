package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/securevault-systems/vault-core/internal/audit"
	"github.com/securevault-systems/vault-core/internal/metrics"
	"github.com/securevault-systems/vault-core/internal/models"
	"github.com/securevault-systems/vault-core/internal/repository"
)

// Workflow runs the access request lifecycle: submission by standard users,
// a single-winner decision by an admin, and grant issuance on approval.
type Workflow struct {
	repo   repository.Repository
	ledger *Ledger
	audit  *audit.Recorder
}

func NewWorkflow(repo repository.Repository, ledger *Ledger, recorder *audit.Recorder) *Workflow {
	return &Workflow{repo: repo, ledger: ledger, audit: recorder}
}

func (w *Workflow) Submit(ctx context.Context, requester *models.User, sectorName string, durationMinutes int, reason string) (*models.AccessRequest, error) {
	sector, err := w.repo.GetSector(ctx, sectorName)
	if err != nil {
		if errors.Is(err, repository.ErrSectorNotFound) {
			return nil, ErrInvalidSector
		}
		return nil, err
	}
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	req := &models.AccessRequest{
		ID:              uuid.Must(uuid.NewV7()).String(),
		RequesterID:     requester.ID,
		RequesterName:   requester.Username,
		Sector:          sector.Name,
		DurationMinutes: durationMinutes,
		Reason:          reason,
		Status:          models.RequestPending,
		RequestedAt:     time.Now().UTC(),
	}
	if err := w.repo.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	w.audit.Record(ctx, models.AuditInfo, requester.Username,
		fmt.Sprintf("Access requested for %s (%d min)", sector.Name, durationMinutes))
	return req, nil
}

// Decide moves a pending request to a terminal status. Exactly one of any
// set of concurrent deciders wins; the rest get ErrAlreadyDecided. Approval
// issues the grant before the decision is reported back.
func (w *Workflow) Decide(ctx context.Context, admin *models.User, requestID string, action models.DecisionAction) (*models.AccessRequest, error) {
	var status models.RequestStatus
	switch action {
	case models.ActionApprove:
		status = models.RequestApproved
	case models.ActionDeny:
		status = models.RequestDenied
	default:
		return nil, ErrInvalidAction
	}

	req, err := w.repo.DecideRequest(ctx, requestID, status, admin.Username, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRequestNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrRequestDecided):
			return nil, ErrAlreadyDecided
		}
		return nil, err
	}

	if status == models.RequestApproved {
		duration := time.Duration(req.DurationMinutes) * time.Minute
		if _, err := w.ledger.Issue(ctx, req.RequesterID, req.RequesterName, req.Sector, duration); err != nil {
			return nil, err
		}
		metrics.RequestsDecided.WithLabelValues("approved").Inc()
		w.audit.Record(ctx, models.AuditInfo, admin.Username,
			fmt.Sprintf("Request by %s for %s approved", req.RequesterName, req.Sector))
	} else {
		metrics.RequestsDecided.WithLabelValues("denied").Inc()
		w.audit.Record(ctx, models.AuditWarn, admin.Username,
			fmt.Sprintf("Request by %s for %s denied", req.RequesterName, req.Sector))
	}
	return req, nil
}

func (w *Workflow) List(ctx context.Context) ([]*models.AccessRequest, error) {
	return w.repo.ListRequests(ctx)
}
