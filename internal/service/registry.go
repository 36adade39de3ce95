package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/securevault-systems/vault-core/internal/audit"
	"github.com/securevault-systems/vault-core/internal/metrics"
	"github.com/securevault-systems/vault-core/internal/models"
	"github.com/securevault-systems/vault-core/internal/repository"
)

// settingsTTL bounds how stale a cached settings row may get. Polling
// dashboards tolerate a few seconds; the admin that writes a setting sees
// it immediately because writes invalidate the cache.
const settingsTTL = 2 * time.Second

// Registry owns sector definitions and the global firewall/lockdown
// settings. The settings row lives in the repository, not in process
// memory, so multiple service instances stay consistent.
type Registry struct {
	repo  repository.Repository
	audit *audit.Recorder

	mu        sync.Mutex
	cached    models.Settings
	fetchedAt time.Time
}

func NewRegistry(repo repository.Repository, recorder *audit.Recorder) *Registry {
	return &Registry{repo: repo, audit: recorder}
}

// Settings returns the current global settings, cached for at most
// settingsTTL.
func (s *Registry) Settings(ctx context.Context) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.fetchedAt) < settingsTTL {
		return s.cached, nil
	}

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	s.cached = settings
	s.fetchedAt = time.Now()
	return settings, nil
}

func (s *Registry) invalidate() {
	s.mu.Lock()
	s.fetchedAt = time.Time{}
	s.mu.Unlock()
}

// Gate is the lockdown check every non-admin entry point runs first.
// actor may be nil for unauthenticated operations.
func (s *Registry) Gate(ctx context.Context, actor *models.User) error {
	settings, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	if settings.Lockdown && (actor == nil || !actor.IsAdmin()) {
		return ErrLockdown
	}
	return nil
}

func (s *Registry) SetLockdown(ctx context.Context, actor *models.User, enabled bool) error {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return err
	}
	settings.Lockdown = enabled
	settings.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateSettings(ctx, settings); err != nil {
		return err
	}
	s.invalidate()

	if enabled {
		metrics.LockdownActive.Set(1)
		s.audit.Record(ctx, models.AuditAlert, actor.Username, "SYSTEM LOCKDOWN INITIATED")
	} else {
		metrics.LockdownActive.Set(0)
		s.audit.Record(ctx, models.AuditWarn, actor.Username, "System lockdown lifted")
	}
	return nil
}

// UpdateFirewallRules validates idPattern before committing; an invalid
// pattern leaves both fields untouched.
func (s *Registry) UpdateFirewallRules(ctx context.Context, actor *models.User, idPattern, allowedDomain string) error {
	if idPattern != "" {
		if _, err := regexp.Compile(idPattern); err != nil {
			return ErrInvalidPattern
		}
	}

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return err
	}
	settings.IDPattern = idPattern
	settings.AllowedDomain = allowedDomain
	settings.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateSettings(ctx, settings); err != nil {
		return err
	}
	s.invalidate()

	s.audit.Record(ctx, models.AuditInfo, actor.Username,
		fmt.Sprintf("Firewall rules updated (pattern %q, domain %q)", idPattern, allowedDomain))
	return nil
}

func (s *Registry) AddSector(ctx context.Context, actor *models.User, name string, level models.SecurityLevel) (*models.Sector, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidSector
	}
	if !models.ValidSecurityLevel(level) {
		return nil, ErrInvalidLevel
	}

	sector := &models.Sector{
		Name:          name,
		SecurityLevel: level,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.CreateSector(ctx, sector); err != nil {
		if errors.Is(err, repository.ErrSectorExists) {
			return nil, ErrDuplicateSector
		}
		return nil, err
	}

	s.audit.Record(ctx, models.AuditInfo, actor.Username,
		fmt.Sprintf("Sector commissioned: %s (level %s)", name, level))
	return sector, nil
}

// DeleteSector refuses while files still reference the sector, and revokes
// every outstanding grant for it on success.
func (s *Registry) DeleteSector(ctx context.Context, actor *models.User, name string) error {
	sector, err := s.repo.GetSector(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrSectorNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.repo.DeleteSector(ctx, sector.Name); err != nil {
		switch {
		case errors.Is(err, repository.ErrSectorNotFound):
			return ErrNotFound
		case errors.Is(err, repository.ErrSectorNotEmpty):
			return ErrSectorNotEmpty
		}
		return err
	}

	if err := s.repo.ExpireGrantsBySector(ctx, sector.Name, time.Now().UTC()); err != nil {
		return err
	}

	s.audit.Record(ctx, models.AuditWarn, actor.Username,
		fmt.Sprintf("Sector decommissioned: %s (all grants revoked)", sector.Name))
	return nil
}

func (s *Registry) Sectors(ctx context.Context) ([]*models.Sector, error) {
	return s.repo.ListSectors(ctx)
}
