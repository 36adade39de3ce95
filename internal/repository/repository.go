package repository

import (
	"context"
	"errors"
	"time"

	"github.com/securevault-systems/vault-core/internal/models"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrSectorNotFound  = errors.New("sector not found")
	ErrSectorExists    = errors.New("sector already exists")
	ErrSectorNotEmpty  = errors.New("sector still holds files")
	ErrGrantNotFound   = errors.New("grant not found")
	ErrRequestNotFound = errors.New("access request not found")
	ErrRequestDecided  = errors.New("access request already decided")
	ErrFileNotFound    = errors.New("file not found")
)

// Repository is the persistence contract shared by the in-memory and
// PostgreSQL implementations. Sector names are stored canonically; callers
// resolve user input through GetSector (case-insensitive) first.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUsername(ctx context.Context, id, newUsername string) error
	SetUserRole(ctx context.Context, id string, role models.Role) error

	CreateSector(ctx context.Context, sector *models.Sector) error
	GetSector(ctx context.Context, name string) (*models.Sector, error)
	ListSectors(ctx context.Context) ([]*models.Sector, error)
	// DeleteSector fails with ErrSectorNotEmpty while files still reference
	// the sector.
	DeleteSector(ctx context.Context, name string) error

	GetSettings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, settings models.Settings) error

	// UpsertGrant creates or replaces the single grant for (userID, sector);
	// the new expiry overwrites any previous one.
	UpsertGrant(ctx context.Context, userID, sector string, expiresAt time.Time) error
	GetGrant(ctx context.Context, userID, sector string) (*models.AccessGrant, error)
	ListGrantsByUser(ctx context.Context, userID string) ([]*models.AccessGrant, error)
	ExpireGrantsBySector(ctx context.Context, sector string, at time.Time) error

	CreateRequest(ctx context.Context, req *models.AccessRequest) error
	GetRequest(ctx context.Context, id string) (*models.AccessRequest, error)
	// ListRequests returns all requests ordered by requestedAt descending.
	ListRequests(ctx context.Context) ([]*models.AccessRequest, error)
	// DecideRequest atomically moves a Pending request to the given terminal
	// status. A request already decided yields ErrRequestDecided; exactly one
	// concurrent caller wins.
	DecideRequest(ctx context.Context, id string, status models.RequestStatus, decidedBy string, decidedAt time.Time) (*models.AccessRequest, error)

	CreateFile(ctx context.Context, file *models.FileRecord) error
	GetFile(ctx context.Context, id string) (*models.FileRecord, error)
	ListFilesBySector(ctx context.Context, sector string) ([]*models.FileRecord, error)
	ListFiles(ctx context.Context) ([]*models.FileRecord, error)
	CountFilesBySector(ctx context.Context) (map[string]int, error)
	RenameFile(ctx context.Context, id, newName string) error
	DeleteFile(ctx context.Context, id string) error

	AppendAudit(ctx context.Context, entry *models.AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]*models.AuditEntry, error)

	CreateIncident(ctx context.Context, incident *models.HoneypotIncident) error
}
