package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securevault-systems/vault-core/internal/models"
)

func TestRegisterRejectsWeakCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		password string
	}{
		{"too short", "a1!"},
		{"no digit", "password!!"},
		{"no symbol", "password12"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.identity.Register(ctx, "Some User", "someone", tc.password)
			assert.ErrorIs(t, err, ErrWeakCredential)
		})
	}

	// The account must not exist after any rejected attempt.
	_, err := env.identity.Login(ctx, "someone", "password12")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mustRegister(t, "Bob One", "bob", "hunter2-99!")
	_, err := env.identity.Register(ctx, "Bob Two", "bob", "hunter2-99!")
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestLoginRoundtrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mustRegister(t, "Alice Vault", "alice", "s3cret-pass!")

	resp, err := env.identity.Login(ctx, "alice", "s3cret-pass!")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStandard, resp.Role)
	assert.Equal(t, "Alice Vault", resp.FullName)

	claims, err := env.tokens.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mustRegister(t, "Alice Vault", "alice", "s3cret-pass!")

	_, err := env.identity.Login(ctx, "alice", "wrong-pass-9!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	entry := env.lastAudit(t)
	assert.Equal(t, models.AuditWarn, entry.Kind)
}

func TestLockdownBlocksStandardLoginButNotAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mustRegister(t, "Alice Vault", "alice", "s3cret-pass!")
	admin := env.mustAdmin(t, "root-admin")

	require.NoError(t, env.registry.SetLockdown(ctx, admin, true))

	_, err := env.identity.Login(ctx, "alice", "s3cret-pass!")
	assert.ErrorIs(t, err, ErrLockdown)

	// Unknown identities get the same answer; lockdown hides existence.
	_, err = env.identity.Login(ctx, "nobody", "whatever-1!")
	assert.ErrorIs(t, err, ErrLockdown)

	resp, err := env.identity.Login(ctx, "root-admin", "sup3r-secret!")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.Role)
}

func TestFlaggedLoginLooksLikeSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.mustRegister(t, "Mallory Intruder", "mallory", "s3cret-pass!")
	require.NoError(t, env.repo.SetUserRole(ctx, user.ID, models.RoleFlagged))

	// Even a wrong credential gets the decoy response; the trap must not
	// reveal that the account is burned.
	resp, err := env.identity.Login(ctx, "mallory", "totally-wrong-0!")
	require.NoError(t, err)
	assert.Equal(t, models.RoleFlagged, resp.Role)
	assert.NotEmpty(t, resp.Token)

	entry := env.lastAudit(t)
	assert.Equal(t, models.AuditAlert, entry.Kind)
}

func TestMigrationRoundtrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mustRegister(t, "Bob Legacy", "bob", "s3cret-pass!")
	admin := env.mustAdmin(t, "root-admin")

	require.NoError(t, env.registry.UpdateFirewallRules(ctx, admin, "^CYBER-[0-9]+$", "vault.example"))

	// Login with a non-conforming identifier defers to migration.
	_, err := env.identity.Login(ctx, "bob", "s3cret-pass!")
	assert.ErrorIs(t, err, ErrMigrationRequired)

	// Wrong credential leaves the identity untouched.
	err = env.identity.Migrate(ctx, "bob", "wrong-pass-9!", "CYBER-42")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.repo.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)

	// A non-conforming target is rejected.
	err = env.identity.Migrate(ctx, "bob", "s3cret-pass!", "still-bob")
	assert.ErrorIs(t, err, ErrPatternMismatch)

	require.NoError(t, env.identity.Migrate(ctx, "bob", "s3cret-pass!", "CYBER-42"))

	_, err = env.identity.Login(ctx, "bob", "s3cret-pass!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := env.identity.Login(ctx, "CYBER-42", "s3cret-pass!")
	require.NoError(t, err)
	assert.Equal(t, "Bob Legacy", resp.FullName)
}

func TestMigrateToTakenUsername(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mustRegister(t, "Bob Legacy", "bob", "s3cret-pass!")
	env.mustRegister(t, "Carol Current", "CYBER-7", "s3cret-pass!")
	admin := env.mustAdmin(t, "root-admin")
	require.NoError(t, env.registry.UpdateFirewallRules(ctx, admin, "^CYBER-[0-9]+$", ""))

	err := env.identity.Migrate(ctx, "bob", "s3cret-pass!", "CYBER-7")
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestRegisterEnforcesPattern(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.mustAdmin(t, "root-admin")
	require.NoError(t, env.registry.UpdateFirewallRules(ctx, admin, "^CYBER-[0-9]+$", ""))

	_, err := env.identity.Register(ctx, "New Person", "plain-name", "s3cret-pass!")
	assert.ErrorIs(t, err, ErrPatternMismatch)

	_, err = env.identity.Register(ctx, "New Person", "CYBER-100", "s3cret-pass!")
	require.NoError(t, err)
}
