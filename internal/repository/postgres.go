package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/securevault-systems/vault-core/internal/models"
)

const uniqueViolation = "23505"

// PostgresRepository implements Repository on a pgx connection pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO users (id, username, full_name, credential_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Username, user.FullName, user.CredentialHash,
		string(user.Role), user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *PostgresRepository) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		SELECT id, username, full_name, credential_hash, role, created_at
		FROM users
		WHERE ` + where

	var user models.User
	var role string
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.FullName, &user.CredentialHash,
		&role, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Role = models.Role(role)

	return &user, nil
}

func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUser(ctx, "username = $1", username)
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getUser(ctx, "id = $1", id)
}

func (r *PostgresRepository) UpdateUsername(ctx context.Context, id, newUsername string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, `UPDATE users SET username = $2 WHERE id = $1`, id, newUsername)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to rename user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *PostgresRepository) SetUserRole(ctx context.Context, id string, role models.Role) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, string(role))
	if err != nil {
		return fmt.Errorf("failed to set user role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *PostgresRepository) CreateSector(ctx context.Context, sector *models.Sector) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO sectors (name, security_level, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, sector.Name, string(sector.SecurityLevel), sector.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSectorExists
		}
		return fmt.Errorf("failed to create sector: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetSector(ctx context.Context, name string) (*models.Sector, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		SELECT name, security_level, created_at
		FROM sectors
		WHERE lower(name) = lower($1)
	`

	var sector models.Sector
	var level string
	err := r.pool.QueryRow(ctx, query, name).Scan(&sector.Name, &level, &sector.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSectorNotFound
		}
		return nil, fmt.Errorf("failed to get sector: %w", err)
	}
	sector.SecurityLevel = models.SecurityLevel(level)

	return &sector, nil
}

func (r *PostgresRepository) ListSectors(ctx context.Context) ([]*models.Sector, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT name, security_level, created_at FROM sectors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sectors: %w", err)
	}
	defer rows.Close()

	var sectors []*models.Sector
	for rows.Next() {
		var sector models.Sector
		var level string
		if err := rows.Scan(&sector.Name, &level, &sector.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sector: %w", err)
		}
		sector.SecurityLevel = models.SecurityLevel(level)
		sectors = append(sectors, &sector)
	}

	return sectors, rows.Err()
}

func (r *PostgresRepository) DeleteSector(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Refuse while files still reference the sector; the existence check and
	// the delete run as one statement so a concurrent upload cannot slip in
	// between them.
	query := `
		DELETE FROM sectors s
		WHERE lower(s.name) = lower($1)
		  AND NOT EXISTS (SELECT 1 FROM files f WHERE f.sector = s.name)
	`

	result, err := r.pool.Exec(ctx, query, name)
	if err != nil {
		return fmt.Errorf("failed to delete sector: %w", err)
	}
	if result.RowsAffected() == 0 {
		if _, err := r.GetSector(ctx, name); err != nil {
			return err
		}
		return ErrSectorNotEmpty
	}

	return nil
}

func (r *PostgresRepository) GetSettings(ctx context.Context) (models.Settings, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var settings models.Settings
	err := r.pool.QueryRow(ctx,
		`SELECT id_pattern, allowed_domain, lockdown, updated_at FROM settings WHERE id = 1`,
	).Scan(&settings.IDPattern, &settings.AllowedDomain, &settings.Lockdown, &settings.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Settings{}, nil
		}
		return models.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}

	return settings, nil
}

func (r *PostgresRepository) UpdateSettings(ctx context.Context, settings models.Settings) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO settings (id, id_pattern, allowed_domain, lockdown, updated_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			id_pattern = EXCLUDED.id_pattern,
			allowed_domain = EXCLUDED.allowed_domain,
			lockdown = EXCLUDED.lockdown,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		settings.IDPattern, settings.AllowedDomain, settings.Lockdown, settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	return nil
}

func (r *PostgresRepository) UpsertGrant(ctx context.Context, userID, sector string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Single upsert: the database serializes concurrent issues on the same
	// key, and the new expiry replaces (never extends) the old one.
	query := `
		INSERT INTO access_grants (user_id, sector, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, sector) DO UPDATE SET expires_at = EXCLUDED.expires_at
	`

	_, err := r.pool.Exec(ctx, query, userID, sector, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to upsert grant: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetGrant(ctx context.Context, userID, sector string) (*models.AccessGrant, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var grant models.AccessGrant
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, sector, expires_at FROM access_grants WHERE user_id = $1 AND sector = $2`,
		userID, sector,
	).Scan(&grant.UserID, &grant.Sector, &grant.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGrantNotFound
		}
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}

	return &grant, nil
}

func (r *PostgresRepository) ListGrantsByUser(ctx context.Context, userID string) ([]*models.AccessGrant, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT user_id, sector, expires_at FROM access_grants WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	defer rows.Close()

	var grants []*models.AccessGrant
	for rows.Next() {
		var grant models.AccessGrant
		if err := rows.Scan(&grant.UserID, &grant.Sector, &grant.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		grants = append(grants, &grant)
	}

	return grants, rows.Err()
}

func (r *PostgresRepository) ExpireGrantsBySector(ctx context.Context, sector string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx,
		`UPDATE access_grants SET expires_at = $2 WHERE sector = $1 AND expires_at > $2`,
		sector, at)
	if err != nil {
		return fmt.Errorf("failed to expire grants: %w", err)
	}

	return nil
}

func (r *PostgresRepository) CreateRequest(ctx context.Context, req *models.AccessRequest) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO access_requests
			(id, requester_id, requester_name, sector, duration_minutes, reason, status, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		req.ID, req.RequesterID, req.RequesterName, req.Sector,
		req.DurationMinutes, req.Reason, string(req.Status), req.RequestedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return nil
}

func scanRequest(row pgx.Row) (*models.AccessRequest, error) {
	var req models.AccessRequest
	var status string
	err := row.Scan(
		&req.ID, &req.RequesterID, &req.RequesterName, &req.Sector,
		&req.DurationMinutes, &req.Reason, &status, &req.RequestedAt,
		&req.DecidedAt, &req.DecidedBy,
	)
	if err != nil {
		return nil, err
	}
	req.Status = models.RequestStatus(status)
	return &req, nil
}

const requestColumns = `id, requester_id, requester_name, sector, duration_minutes,
	reason, status, requested_at, decided_at, coalesce(decided_by, '')`

func (r *PostgresRepository) GetRequest(ctx context.Context, id string) (*models.AccessRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := scanRequest(r.pool.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM access_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return req, nil
}

func (r *PostgresRepository) ListRequests(ctx context.Context) ([]*models.AccessRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT `+requestColumns+` FROM access_requests ORDER BY requested_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.AccessRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

func (r *PostgresRepository) DecideRequest(ctx context.Context, id string, status models.RequestStatus, decidedBy string, decidedAt time.Time) (*models.AccessRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Compare-and-set on status: only a Pending row matches, so exactly one
	// concurrent decision commits.
	query := `
		UPDATE access_requests
		SET status = $2, decided_by = $3, decided_at = $4
		WHERE id = $1 AND status = 'Pending'
		RETURNING ` + requestColumns

	req, err := scanRequest(r.pool.QueryRow(ctx, query, id, string(status), decidedBy, decidedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, lookupErr := r.GetRequest(ctx, id); lookupErr != nil {
				return nil, lookupErr
			}
			return nil, ErrRequestDecided
		}
		return nil, fmt.Errorf("failed to decide request: %w", err)
	}

	return req, nil
}

func (r *PostgresRepository) CreateFile(ctx context.Context, file *models.FileRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO files (id, filename, owner_id, owner_name, sector, lock_state, passcode_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		file.ID, file.Filename, file.OwnerID, file.OwnerName, file.Sector,
		string(file.LockState), file.PasscodeHash, file.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	return nil
}

const fileColumns = `id, filename, owner_id, owner_name, sector, lock_state, passcode_hash, created_at`

func scanFile(row pgx.Row) (*models.FileRecord, error) {
	var file models.FileRecord
	var lockState string
	err := row.Scan(
		&file.ID, &file.Filename, &file.OwnerID, &file.OwnerName,
		&file.Sector, &lockState, &file.PasscodeHash, &file.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	file.LockState = models.LockState(lockState)
	return &file, nil
}

func (r *PostgresRepository) GetFile(ctx context.Context, id string) (*models.FileRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	file, err := scanFile(r.pool.QueryRow(ctx,
		`SELECT `+fileColumns+` FROM files WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	return file, nil
}

func (r *PostgresRepository) listFiles(ctx context.Context, query string, args ...any) ([]*models.FileRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []*models.FileRecord
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, file)
	}

	return files, rows.Err()
}

func (r *PostgresRepository) ListFilesBySector(ctx context.Context, sector string) ([]*models.FileRecord, error) {
	return r.listFiles(ctx,
		`SELECT `+fileColumns+` FROM files WHERE sector = $1 ORDER BY created_at`, sector)
}

func (r *PostgresRepository) ListFiles(ctx context.Context) ([]*models.FileRecord, error) {
	return r.listFiles(ctx, `SELECT `+fileColumns+` FROM files ORDER BY created_at`)
}

func (r *PostgresRepository) CountFilesBySector(ctx context.Context) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT sector, count(*) FROM files GROUP BY sector`)
	if err != nil {
		return nil, fmt.Errorf("failed to count files: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var sector string
		var count int
		if err := rows.Scan(&sector, &count); err != nil {
			return nil, fmt.Errorf("failed to scan file count: %w", err)
		}
		counts[sector] = count
	}

	return counts, rows.Err()
}

func (r *PostgresRepository) RenameFile(ctx context.Context, id, newName string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, `UPDATE files SET filename = $2 WHERE id = $1`, id, newName)
	if err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrFileNotFound
	}

	return nil
}

func (r *PostgresRepository) DeleteFile(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrFileNotFound
	}

	return nil
}

func (r *PostgresRepository) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO audit_log (id, ts, kind, message, actor, signature)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.Timestamp, string(entry.Kind), entry.Message, entry.Actor, entry.Signature)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListAudit(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = 200
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, ts, kind, message, actor, signature FROM audit_log ORDER BY ts DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		var entry models.AuditEntry
		var kind string
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &kind, &entry.Message, &entry.Actor, &entry.Signature); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.Kind = models.AuditKind(kind)
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

func (r *PostgresRepository) CreateIncident(ctx context.Context, incident *models.HoneypotIncident) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO honeypot_incidents
			(id, source_ip, user_agent, geo_city, geo_isp, lat, lon, triggered_at, associated_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		incident.ID, incident.SourceIP, incident.UserAgent, incident.GeoCity, incident.GeoISP,
		incident.Latitude, incident.Longitude, incident.TriggeredAt, incident.AssociatedUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}

	return nil
}
