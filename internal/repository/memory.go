package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/securevault-systems/vault-core/internal/models"
)

// InMemoryRepository backs development and tests. A single mutex guards all
// tables, which also serializes grant upserts and request decisions.
type InMemoryRepository struct {
	mu          sync.RWMutex
	users       map[string]*models.User
	usersByName map[string]*models.User
	sectors     map[string]*models.Sector // keyed by lowercased name
	settings    models.Settings
	grants      map[string]*models.AccessGrant // keyed by userID + "\x00" + sector
	requests    map[string]*models.AccessRequest
	files       map[string]*models.FileRecord
	audit       []*models.AuditEntry
	incidents   []*models.HoneypotIncident
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users:       make(map[string]*models.User),
		usersByName: make(map[string]*models.User),
		sectors:     make(map[string]*models.Sector),
		grants:      make(map[string]*models.AccessGrant),
		requests:    make(map[string]*models.AccessRequest),
		files:       make(map[string]*models.FileRecord),
	}
}

func grantKey(userID, sector string) string {
	return userID + "\x00" + sector
}

func (r *InMemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usersByName[user.Username]; exists {
		return ErrUserExists
	}

	u := *user
	r.users[u.ID] = &u
	r.usersByName[u.Username] = &u
	return nil
}

func (r *InMemoryRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.usersByName[username]
	if !exists {
		return nil, ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (r *InMemoryRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (r *InMemoryRepository) UpdateUsername(ctx context.Context, id, newUsername string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return ErrUserNotFound
	}
	if other, taken := r.usersByName[newUsername]; taken && other.ID != id {
		return ErrUserExists
	}

	delete(r.usersByName, user.Username)
	user.Username = newUsername
	r.usersByName[newUsername] = user
	return nil
}

func (r *InMemoryRepository) SetUserRole(ctx context.Context, id string, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return ErrUserNotFound
	}
	user.Role = role
	return nil
}

func (r *InMemoryRepository) CreateSector(ctx context.Context, sector *models.Sector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(sector.Name)
	if _, exists := r.sectors[key]; exists {
		return ErrSectorExists
	}
	s := *sector
	r.sectors[key] = &s
	return nil
}

func (r *InMemoryRepository) GetSector(ctx context.Context, name string) (*models.Sector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sector, exists := r.sectors[strings.ToLower(name)]
	if !exists {
		return nil, ErrSectorNotFound
	}
	s := *sector
	return &s, nil
}

func (r *InMemoryRepository) ListSectors(ctx context.Context) ([]*models.Sector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sectors := make([]*models.Sector, 0, len(r.sectors))
	for _, sector := range r.sectors {
		s := *sector
		sectors = append(sectors, &s)
	}
	sort.Slice(sectors, func(i, j int) bool { return sectors[i].Name < sectors[j].Name })
	return sectors, nil
}

func (r *InMemoryRepository) DeleteSector(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(name)
	sector, exists := r.sectors[key]
	if !exists {
		return ErrSectorNotFound
	}
	for _, file := range r.files {
		if file.Sector == sector.Name {
			return ErrSectorNotEmpty
		}
	}
	delete(r.sectors, key)
	return nil
}

func (r *InMemoryRepository) GetSettings(ctx context.Context) (models.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings, nil
}

func (r *InMemoryRepository) UpdateSettings(ctx context.Context, settings models.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = settings
	return nil
}

func (r *InMemoryRepository) UpsertGrant(ctx context.Context, userID, sector string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.grants[grantKey(userID, sector)] = &models.AccessGrant{
		UserID:    userID,
		Sector:    sector,
		ExpiresAt: expiresAt,
	}
	return nil
}

func (r *InMemoryRepository) GetGrant(ctx context.Context, userID, sector string) (*models.AccessGrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	grant, exists := r.grants[grantKey(userID, sector)]
	if !exists {
		return nil, ErrGrantNotFound
	}
	g := *grant
	return &g, nil
}

func (r *InMemoryRepository) ListGrantsByUser(ctx context.Context, userID string) ([]*models.AccessGrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var grants []*models.AccessGrant
	for _, grant := range r.grants {
		if grant.UserID == userID {
			g := *grant
			grants = append(grants, &g)
		}
	}
	return grants, nil
}

func (r *InMemoryRepository) ExpireGrantsBySector(ctx context.Context, sector string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, grant := range r.grants {
		if grant.Sector == sector && at.Before(grant.ExpiresAt) {
			grant.ExpiresAt = at
		}
	}
	return nil
}

func (r *InMemoryRepository) CreateRequest(ctx context.Context, req *models.AccessRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := *req
	r.requests[q.ID] = &q
	return nil
}

func (r *InMemoryRepository) GetRequest(ctx context.Context, id string) (*models.AccessRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, exists := r.requests[id]
	if !exists {
		return nil, ErrRequestNotFound
	}
	q := *req
	return &q, nil
}

func (r *InMemoryRepository) ListRequests(ctx context.Context) ([]*models.AccessRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requests := make([]*models.AccessRequest, 0, len(r.requests))
	for _, req := range r.requests {
		q := *req
		requests = append(requests, &q)
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].RequestedAt.After(requests[j].RequestedAt)
	})
	return requests, nil
}

func (r *InMemoryRepository) DecideRequest(ctx context.Context, id string, status models.RequestStatus, decidedBy string, decidedAt time.Time) (*models.AccessRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, exists := r.requests[id]
	if !exists {
		return nil, ErrRequestNotFound
	}
	if req.Status != models.RequestPending {
		return nil, ErrRequestDecided
	}

	req.Status = status
	req.DecidedAt = &decidedAt
	req.DecidedBy = decidedBy

	q := *req
	return &q, nil
}

func (r *InMemoryRepository) CreateFile(ctx context.Context, file *models.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := *file
	r.files[f.ID] = &f
	return nil
}

func (r *InMemoryRepository) GetFile(ctx context.Context, id string) (*models.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	file, exists := r.files[id]
	if !exists {
		return nil, ErrFileNotFound
	}
	f := *file
	return &f, nil
}

func (r *InMemoryRepository) ListFilesBySector(ctx context.Context, sector string) ([]*models.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var files []*models.FileRecord
	for _, file := range r.files {
		if file.Sector == sector {
			f := *file
			files = append(files, &f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].CreatedAt.Before(files[j].CreatedAt) })
	return files, nil
}

func (r *InMemoryRepository) ListFiles(ctx context.Context) ([]*models.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	files := make([]*models.FileRecord, 0, len(r.files))
	for _, file := range r.files {
		f := *file
		files = append(files, &f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].CreatedAt.Before(files[j].CreatedAt) })
	return files, nil
}

func (r *InMemoryRepository) CountFilesBySector(ctx context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, file := range r.files {
		counts[file.Sector]++
	}
	return counts, nil
}

func (r *InMemoryRepository) RenameFile(ctx context.Context, id, newName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, exists := r.files[id]
	if !exists {
		return ErrFileNotFound
	}
	file.Filename = newName
	return nil
}

func (r *InMemoryRepository) DeleteFile(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.files[id]; !exists {
		return ErrFileNotFound
	}
	delete(r.files, id)
	return nil
}

func (r *InMemoryRepository) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := *entry
	r.audit = append(r.audit, &e)
	return nil
}

func (r *InMemoryRepository) ListAudit(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.audit)
	if limit <= 0 || limit > n {
		limit = n
	}
	// Newest first.
	entries := make([]*models.AuditEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		e := *r.audit[i]
		entries = append(entries, &e)
	}
	return entries, nil
}

func (r *InMemoryRepository) CreateIncident(ctx context.Context, incident *models.HoneypotIncident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	in := *incident
	r.incidents = append(r.incidents, &in)
	return nil
}
