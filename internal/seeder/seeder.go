// Package seeder populates a repository with demo data for local
// development and evaluation environments.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/securevault-systems/vault-core/internal/models"
	"github.com/securevault-systems/vault-core/internal/repository"
)

// DefaultSectors mirrors the departments the original deployment shipped
// with.
var DefaultSectors = []models.Sector{
	{Name: "HR", SecurityLevel: models.LevelLow},
	{Name: "Finance", SecurityLevel: models.LevelMedium},
	{Name: "Engineering", SecurityLevel: models.LevelHigh},
	{Name: "Intelligence", SecurityLevel: models.LevelCritical},
}

type Options struct {
	Users          int
	FilesPerSector int
	Seed           int64
}

// Seed fills the repository with sectors, demo identities and file
// metadata. Existing sectors and usernames are skipped, so seeding is safe
// to repeat.
func Seed(ctx context.Context, repo repository.Repository, opts Options) error {
	if opts.Users <= 0 {
		opts.Users = 8
	}
	if opts.FilesPerSector <= 0 {
		opts.FilesPerSector = 3
	}
	faker := gofakeit.New(opts.Seed)

	now := time.Now().UTC()
	for _, s := range DefaultSectors {
		sector := s
		sector.CreatedAt = now
		if err := repo.CreateSector(ctx, &sector); err != nil && !errors.Is(err, repository.ErrSectorExists) {
			return fmt.Errorf("seed sector %s: %w", sector.Name, err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo-pass-1!"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		first := faker.FirstName()
		last := faker.LastName()
		user := &models.User{
			ID:             uuid.Must(uuid.NewV7()).String(),
			Username:       strings.ToLower(fmt.Sprintf("%s.%s", first, last)),
			FullName:       first + " " + last,
			CredentialHash: string(hash),
			Role:           models.RoleStandard,
			CreatedAt:      now,
		}
		if err := repo.CreateUser(ctx, user); err != nil {
			if errors.Is(err, repository.ErrUserExists) {
				existing, err := repo.GetUserByUsername(ctx, user.Username)
				if err != nil {
					return err
				}
				users = append(users, existing)
				continue
			}
			return fmt.Errorf("seed user %s: %w", user.Username, err)
		}
		users = append(users, user)
	}
	if len(users) == 0 {
		return errors.New("no demo users created")
	}

	for si, sector := range DefaultSectors {
		for i := 0; i < opts.FilesPerSector; i++ {
			owner := users[(si+i)%len(users)]
			lock := models.FileUnlocked
			if faker.Bool() {
				lock = models.FileLocked
			}
			file := &models.FileRecord{
				ID:        uuid.Must(uuid.NewV7()).String(),
				Filename:  fmt.Sprintf("%s.%s", faker.Word(), faker.FileExtension()),
				OwnerID:   owner.ID,
				OwnerName: owner.Username,
				Sector:    sector.Name,
				LockState: lock,
				CreatedAt: now,
			}
			if lock == models.FileLocked {
				file.PasscodeHash = string(hash)
			}
			if err := repo.CreateFile(ctx, file); err != nil {
				return fmt.Errorf("seed file in %s: %w", sector.Name, err)
			}
		}
	}

	// A couple of pending requests give the admin console something to
	// decide on.
	for i := 0; i < 2 && i < len(users); i++ {
		req := &models.AccessRequest{
			ID:              uuid.Must(uuid.NewV7()).String(),
			RequesterID:     users[i].ID,
			RequesterName:   users[i].Username,
			Sector:          DefaultSectors[i%len(DefaultSectors)].Name,
			DurationMinutes: 30,
			Reason:          faker.Sentence(6),
			Status:          models.RequestPending,
			RequestedAt:     now,
		}
		if err := repo.CreateRequest(ctx, req); err != nil {
			return fmt.Errorf("seed request: %w", err)
		}
	}
	return nil
}

// CreateAdmin provisions an administrator account, bypassing the public
// registration policy checks.
func CreateAdmin(ctx context.Context, repo repository.Repository, username, password, fullName string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	admin := &models.User{
		ID:             uuid.Must(uuid.NewV7()).String(),
		Username:       username,
		FullName:       fullName,
		CredentialHash: string(hash),
		Role:           models.RoleAdmin,
		CreatedAt:      time.Now().UTC(),
	}
	if err := repo.CreateUser(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}
