package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/securevault-systems/vault-core/internal/audit"
	"github.com/securevault-systems/vault-core/internal/metrics"
	"github.com/securevault-systems/vault-core/internal/models"
	"github.com/securevault-systems/vault-core/internal/repository"
)

// Ledger manages time-boxed access grants. A user holds at most one grant
// per sector; issuing again moves the expiry instead of stacking.
type Ledger struct {
	repo  repository.Repository
	audit *audit.Recorder
}

func NewLedger(repo repository.Repository, recorder *audit.Recorder) *Ledger {
	return &Ledger{repo: repo, audit: recorder}
}

// HasAccess reports whether the user holds an unexpired grant for the
// sector. Admins bypass the ledger entirely.
func (l *Ledger) HasAccess(ctx context.Context, user *models.User, sector string) (bool, error) {
	if user.IsAdmin() {
		return true, nil
	}
	grant, err := l.repo.GetGrant(ctx, user.ID, sector)
	if err != nil {
		if errors.Is(err, repository.ErrGrantNotFound) {
			return false, nil
		}
		return false, err
	}
	return grant.Active(time.Now()), nil
}

// Issue grants access to a sector for the given duration, measured from
// now. An existing grant's expiry is replaced, never extended additively.
func (l *Ledger) Issue(ctx context.Context, userID, username, sector string, duration time.Duration) (time.Time, error) {
	if duration <= 0 {
		return time.Time{}, ErrInvalidDuration
	}

	expiresAt := time.Now().UTC().Add(duration)
	if err := l.repo.UpsertGrant(ctx, userID, sector, expiresAt); err != nil {
		return time.Time{}, err
	}

	metrics.GrantsIssued.Inc()
	l.audit.Record(ctx, models.AuditInfo, username,
		fmt.Sprintf("Access granted to %s until %s", sector, expiresAt.Format(time.RFC3339)))
	return expiresAt, nil
}

// Summary builds the per-sector dashboard rows for one user: file counts,
// whether the user currently has access, and the personal grant expiry.
func (l *Ledger) Summary(ctx context.Context, user *models.User) (map[string]models.DeptStats, error) {
	sectors, err := l.repo.ListSectors(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := l.repo.CountFilesBySector(ctx)
	if err != nil {
		return nil, err
	}
	grants, err := l.repo.ListGrantsByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*models.AccessGrant, len(grants))
	for _, g := range grants {
		byName[g.Sector] = g
	}

	now := time.Now()
	stats := make(map[string]models.DeptStats, len(sectors))
	for _, sector := range sectors {
		row := models.DeptStats{
			Count:         counts[sector.Name],
			SecurityLevel: sector.SecurityLevel,
		}
		if grant, ok := byName[sector.Name]; ok && grant.Active(now) {
			row.HasAccess = true
			expires := grant.ExpiresAt
			row.ExpiresAt = &expires
		}
		if user.IsAdmin() {
			row.HasAccess = true
		}
		stats[sector.Name] = row
	}
	return stats, nil
}
