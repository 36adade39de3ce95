package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/securevault-systems/vault-core/internal/audit"
	"github.com/securevault-systems/vault-core/internal/geoip"
	"github.com/securevault-systems/vault-core/internal/logging"
	"github.com/securevault-systems/vault-core/internal/models"
	"github.com/securevault-systems/vault-core/internal/ratelimit"
	"github.com/securevault-systems/vault-core/internal/repository"
	"github.com/securevault-systems/vault-core/pkg/tokens"
)

type testEnv struct {
	repo     *repository.InMemoryRepository
	recorder *audit.Recorder
	registry *Registry
	ledger   *Ledger
	identity *Identity
	workflow *Workflow
	files    *Files
	honeypot *Honeypot
	tokens   *tokens.TokenGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := repository.NewInMemoryRepository()
	logger := logging.Default()
	recorder := audit.NewRecorder("test-audit-secret", repo, logger)
	tg := tokens.NewTokenGenerator("test-jwt-secret", 15*time.Minute)

	registry := NewRegistry(repo, recorder)
	ledger := NewLedger(repo, recorder)

	return &testEnv{
		repo:     repo,
		recorder: recorder,
		registry: registry,
		ledger:   ledger,
		identity: NewIdentity(repo, registry, recorder, tg),
		workflow: NewWorkflow(repo, ledger, recorder),
		files:    NewFiles(repo, registry, ledger, recorder),
		honeypot: NewHoneypot(repo, recorder, nil, ratelimit.NoOpLimiter{}),
		tokens:   tg,
	}
}

func (e *testEnv) withGeo(geo *geoip.Client, limiter ratelimit.Limiter) *testEnv {
	e.honeypot = NewHoneypot(e.repo, e.recorder, geo, limiter)
	return e
}

func (e *testEnv) mustRegister(t *testing.T, fullName, username, password string) *models.User {
	t.Helper()
	user, err := e.identity.Register(context.Background(), fullName, username, password)
	require.NoError(t, err)
	return user
}

func (e *testEnv) mustAddSector(t *testing.T, admin *models.User, name string, level models.SecurityLevel) *models.Sector {
	t.Helper()
	sector, err := e.registry.AddSector(context.Background(), admin, name, level)
	require.NoError(t, err)
	return sector
}

// mustAdmin provisions an administrator directly, the way vaultctl does.
func (e *testEnv) mustAdmin(t *testing.T, username string) *models.User {
	t.Helper()
	admin := e.mustRegister(t, "Admin "+username, username, "sup3r-secret!")
	require.NoError(t, e.repo.SetUserRole(context.Background(), admin.ID, models.RoleAdmin))
	admin.Role = models.RoleAdmin
	return admin
}

func (e *testEnv) lastAudit(t *testing.T) *models.AuditEntry {
	t.Helper()
	entries, err := e.repo.ListAudit(context.Background(), 1)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	return entries[0]
}
