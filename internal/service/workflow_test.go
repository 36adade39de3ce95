package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securevault-systems/vault-core/internal/models"
)

func TestSubmitRejectsUnknownSector(t *testing.T) {
	env := newTestEnv(t)
	user := env.mustRegister(t, "Alice Vault", "alice", "s3cret-pass!")

	_, err := env.workflow.Submit(context.Background(), user, "Nonexistent", 30, "need it")
	assert.ErrorIs(t, err, ErrInvalidSector)
}

func TestSubmitResolvesSectorCaseInsensitively(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.mustAdmin(t, "root-admin")
	env.mustAddSector(t, admin, "Finance", models.LevelMedium)
	user := env.mustRegister(t, "Alice Vault", "alice", "s3cret-pass!")

	req, err := env.workflow.Submit(ctx, user, "finance", 30, "audit prep")
	require.NoError(t, err)
	assert.Equal(t, "Finance", req.Sector)
	assert.Equal(t, models.RequestPending, req.Status)
}

func TestApproveIssuesGrant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.mustAdmin(t, "root-admin")
	env.mustAddSector(t, admin, "Finance", models.LevelMedium)
	user := env.mustRegister(t, "Alice Vault", "alice", "s3cret-pass!")

	req, err := env.workflow.Submit(ctx, user, "Finance", 45, "quarterly close")
	require.NoError(t, err)

	decided, err := env.workflow.Decide(ctx, admin, req.ID, models.ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, decided.Status)
	assert.Equal(t, admin.Username, decided.DecidedBy)
	require.NotNil(t, decided.DecidedAt)

	grant, err := env.repo.GetGrant(ctx, user.ID, "Finance")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(45*time.Minute), grant.ExpiresAt, 2*time.Second)
}

func TestDenyIssuesNoGrant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.mustAdmin(t, "root-admin")
	env.mustAddSector(t, admin, "Finance", models.LevelMedium)
	user := env.mustRegister(t, "Alice Vault", "alice", "s3cret-pass!")

	req, err := env.workflow.Submit(ctx, user, "Finance", 45, "")
	require.NoError(t, err)

	decided, err := env.workflow.Decide(ctx, admin, req.ID, models.ActionDeny)
	require.NoError(t, err)
	assert.Equal(t, models.RequestDenied, decided.Status)

	ok, err := env.ledger.HasAccess(ctx, user, "Finance")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecideIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.mustAdmin(t, "root-admin")
	env.mustAddSector(t, admin, "Finance", models.LevelMedium)
	user := env.mustRegister(t, "Alice Vault", "alice", "s3cret-pass!")

	req, err := env.workflow.Submit(ctx, user, "Finance", 30, "")
	require.NoError(t, err)

	_, err = env.workflow.Decide(ctx, admin, req.ID, models.ActionDeny)
	require.NoError(t, err)

	// A terminal request never flips, whatever the second action is.
	_, err = env.workflow.Decide(ctx, admin, req.ID, models.ActionApprove)
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	stored, err := env.repo.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestDenied, stored.Status)
}

func TestConcurrentDecidersExactlyOneWins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.mustAdmin(t, "root-admin")
	env.mustAddSector(t, admin, "Finance", models.LevelMedium)
	user := env.mustRegister(t, "Alice Vault", "alice", "s3cret-pass!")

	req, err := env.workflow.Submit(ctx, user, "Finance", 30, "")
	require.NoError(t, err)

	const deciders = 16
	var wg sync.WaitGroup
	errs := make([]error, deciders)
	for i := 0; i < deciders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			action := models.ActionApprove
			if i%2 == 1 {
				action = models.ActionDeny
			}
			_, errs[i] = env.workflow.Decide(ctx, admin, req.ID, action)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyDecided)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestDecideUnknownRequest(t *testing.T) {
	env := newTestEnv(t)
	admin := env.mustAdmin(t, "root-admin")

	_, err := env.workflow.Decide(context.Background(), admin, "no-such-id", models.ActionApprove)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecideRejectsBogusAction(t *testing.T) {
	env := newTestEnv(t)
	admin := env.mustAdmin(t, "root-admin")

	_, err := env.workflow.Decide(context.Background(), admin, "whatever", models.DecisionAction("Shred"))
	assert.ErrorIs(t, err, ErrInvalidAction)
}
