package seeder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securevault-systems/vault-core/internal/models"
	"github.com/securevault-systems/vault-core/internal/repository"
)

func TestSeedPopulatesRepository(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, Seed(ctx, repo, Options{Users: 4, FilesPerSector: 2, Seed: 11}))

	sectors, err := repo.ListSectors(ctx)
	require.NoError(t, err)
	assert.Len(t, sectors, len(DefaultSectors))

	files, err := repo.ListFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, files, len(DefaultSectors)*2)

	requests, err := repo.ListRequests(ctx)
	require.NoError(t, err)
	assert.Len(t, requests, 2)
	for _, req := range requests {
		assert.Equal(t, models.RequestPending, req.Status)
	}
}

func TestSeedIsRepeatable(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, Seed(ctx, repo, Options{Users: 4, FilesPerSector: 1, Seed: 11}))
	// Same seed generates the same usernames; the second run must skip
	// them instead of failing.
	require.NoError(t, Seed(ctx, repo, Options{Users: 4, FilesPerSector: 1, Seed: 11}))

	sectors, err := repo.ListSectors(ctx)
	require.NoError(t, err)
	assert.Len(t, sectors, len(DefaultSectors))
}

func TestCreateAdmin(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	ctx := context.Background()

	admin, err := CreateAdmin(ctx, repo, "root", "sup3r-secret!", "Root Admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	stored, err := repo.GetUserByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, stored.Role)
	assert.NotEqual(t, "sup3r-secret!", stored.CredentialHash)
}
