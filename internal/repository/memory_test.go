package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securevault-systems/vault-core/internal/models"
)

func seedUser(t *testing.T, repo *InMemoryRepository, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:        "id-" + username,
		Username:  username,
		FullName:  "User " + username,
		Role:      models.RoleStandard,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func TestUserLifecycle(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	user := seedUser(t, repo, "alice")

	assert.ErrorIs(t, repo.CreateUser(ctx, &models.User{ID: "other", Username: "alice"}), ErrUserExists)

	got, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	require.NoError(t, repo.UpdateUsername(ctx, user.ID, "CYBER-1"))
	_, err = repo.GetUserByUsername(ctx, "alice")
	assert.ErrorIs(t, err, ErrUserNotFound)
	got, err = repo.GetUserByUsername(ctx, "CYBER-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	require.NoError(t, repo.SetUserRole(ctx, user.ID, models.RoleFlagged))
	got, err = repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleFlagged, got.Role)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	seedUser(t, repo, "alice")
	got, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)

	got.Role = models.RoleAdmin

	fresh, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStandard, fresh.Role)
}

func TestSectorCaseInsensitiveLookup(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.CreateSector(ctx, &models.Sector{Name: "Finance", SecurityLevel: models.LevelMedium}))
	assert.ErrorIs(t, repo.CreateSector(ctx, &models.Sector{Name: "fInAnCe"}), ErrSectorExists)

	sector, err := repo.GetSector(ctx, "FINANCE")
	require.NoError(t, err)
	assert.Equal(t, "Finance", sector.Name)
}

func TestDeleteSectorBlockedByFiles(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.CreateSector(ctx, &models.Sector{Name: "Finance"}))
	require.NoError(t, repo.CreateFile(ctx, &models.FileRecord{ID: "f1", Filename: "a.txt", Sector: "Finance"}))

	assert.ErrorIs(t, repo.DeleteSector(ctx, "Finance"), ErrSectorNotEmpty)

	require.NoError(t, repo.DeleteFile(ctx, "f1"))
	require.NoError(t, repo.DeleteSector(ctx, "Finance"))
	assert.ErrorIs(t, repo.DeleteSector(ctx, "Finance"), ErrSectorNotFound)
}

func TestUpsertGrantReplaces(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	first := time.Now().Add(time.Hour)
	second := time.Now().Add(10 * time.Minute)

	require.NoError(t, repo.UpsertGrant(ctx, "u1", "Finance", first))
	require.NoError(t, repo.UpsertGrant(ctx, "u1", "Finance", second))

	grant, err := repo.GetGrant(ctx, "u1", "Finance")
	require.NoError(t, err)
	assert.WithinDuration(t, second, grant.ExpiresAt, time.Millisecond)

	grants, err := repo.ListGrantsByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, grants, 1)
}

func TestExpireGrantsBySector(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.UpsertGrant(ctx, "u1", "Finance", time.Now().Add(time.Hour)))
	require.NoError(t, repo.UpsertGrant(ctx, "u2", "Finance", time.Now().Add(time.Hour)))
	require.NoError(t, repo.UpsertGrant(ctx, "u1", "HR", time.Now().Add(time.Hour)))

	cutoff := time.Now()
	require.NoError(t, repo.ExpireGrantsBySector(ctx, "Finance", cutoff))

	g, err := repo.GetGrant(ctx, "u1", "Finance")
	require.NoError(t, err)
	assert.False(t, g.Active(time.Now()))

	g, err = repo.GetGrant(ctx, "u1", "HR")
	require.NoError(t, err)
	assert.True(t, g.Active(time.Now()))
}

func TestDecideRequestSingleWinner(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	req := &models.AccessRequest{
		ID:          "r1",
		RequesterID: "u1",
		Sector:      "Finance",
		Status:      models.RequestPending,
		RequestedAt: time.Now(),
	}
	require.NoError(t, repo.CreateRequest(ctx, req))

	const workers = 32
	var wg sync.WaitGroup
	wins := make([]bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.DecideRequest(ctx, "r1", models.RequestApproved, "admin", time.Now())
			wins[i] = err == nil
		}(i)
	}
	wg.Wait()

	count := 0
	for _, w := range wins {
		if w {
			count++
		}
	}
	assert.Equal(t, 1, count)

	_, err := repo.DecideRequest(ctx, "r1", models.RequestDenied, "admin", time.Now())
	assert.ErrorIs(t, err, ErrRequestDecided)

	_, err = repo.DecideRequest(ctx, "missing", models.RequestDenied, "admin", time.Now())
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestListRequestsNewestFirst(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, repo.CreateRequest(ctx, &models.AccessRequest{
			ID:          id,
			Status:      models.RequestPending,
			RequestedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	reqs, err := repo.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, reqs, 3)
	assert.Equal(t, "new", reqs[0].ID)
	assert.Equal(t, "old", reqs[2].ID)
}

func TestCountFilesBySector(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.CreateFile(ctx, &models.FileRecord{ID: "f1", Sector: "Finance"}))
	require.NoError(t, repo.CreateFile(ctx, &models.FileRecord{ID: "f2", Sector: "Finance"}))
	require.NoError(t, repo.CreateFile(ctx, &models.FileRecord{ID: "f3", Sector: "HR"}))

	counts, err := repo.CountFilesBySector(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["Finance"])
	assert.Equal(t, 1, counts["HR"])
}

func TestAuditNewestFirstWithLimit(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.AppendAudit(ctx, &models.AuditEntry{
			ID:        id,
			Timestamp: time.Now().Add(time.Duration(i) * time.Second),
			Kind:      models.AuditInfo,
		}))
	}

	entries, err := repo.ListAudit(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].ID)
}
