package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/securevault-systems/vault-core/internal/audit"
	"github.com/securevault-systems/vault-core/internal/models"
	"github.com/securevault-systems/vault-core/internal/repository"
)

// AdminAccess and StandardAccess label how a caller got into a sector view.
const (
	AdminAccess    = "ADMIN"
	StandardAccess = "STANDARD"
)

// Files manages the per-sector file catalogue. Mutations are owner-only for
// standard users; admins may purge any file through the separate admin path.
type Files struct {
	repo     repository.Repository
	registry *Registry
	ledger   *Ledger
	audit    *audit.Recorder
}

func NewFiles(repo repository.Repository, registry *Registry, ledger *Ledger, recorder *audit.Recorder) *Files {
	return &Files{repo: repo, registry: registry, ledger: ledger, audit: recorder}
}

// EnterSector re-verifies the caller's account credential and returns the
// sector's file listing. A dead sector is reported distinctly; everything
// else that goes wrong is a flat denial.
func (f *Files) EnterSector(ctx context.Context, caller *models.User, sectorName, password string) (*models.SectorEntryResponse, error) {
	if err := f.registry.Gate(ctx, caller); err != nil {
		return nil, err
	}

	sector, err := f.repo.GetSector(ctx, sectorName)
	if err != nil {
		if errors.Is(err, repository.ErrSectorNotFound) {
			return nil, ErrSectorNotFound
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(caller.CredentialHash), []byte(password)); err != nil {
		f.audit.Record(ctx, models.AuditWarn, caller.Username,
			fmt.Sprintf("Sector entry denied for %s: bad credential", sector.Name))
		return nil, ErrAccessDenied
	}

	accessType := StandardAccess
	if caller.IsAdmin() {
		accessType = AdminAccess
	} else {
		ok, err := f.ledger.HasAccess(ctx, caller, sector.Name)
		if err != nil {
			return nil, err
		}
		if !ok {
			f.audit.Record(ctx, models.AuditWarn, caller.Username,
				fmt.Sprintf("Sector entry denied for %s: no active grant", sector.Name))
			return nil, ErrAccessDenied
		}
	}

	files, err := f.repo.ListFilesBySector(ctx, sector.Name)
	if err != nil {
		return nil, err
	}
	return &models.SectorEntryResponse{Files: files, AccessType: accessType}, nil
}

// Upload records file metadata in a sector the caller currently has access
// to. Locked files carry a hash of their passcode, which lives apart from
// the account credential.
func (f *Files) Upload(ctx context.Context, caller *models.User, sectorName, filename, passcode string, lock models.LockState) (*models.FileRecord, error) {
	if err := f.registry.Gate(ctx, caller); err != nil {
		return nil, err
	}

	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, ErrAccessDenied
	}
	if lock != models.FileLocked && lock != models.FileUnlocked {
		lock = models.FileUnlocked
	}

	sector, err := f.repo.GetSector(ctx, sectorName)
	if err != nil {
		if errors.Is(err, repository.ErrSectorNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, err
	}

	ok, err := f.ledger.HasAccess(ctx, caller, sector.Name)
	if err != nil {
		return nil, err
	}
	if !ok {
		f.audit.Record(ctx, models.AuditWarn, caller.Username,
			fmt.Sprintf("Upload denied for %s: no active grant", sector.Name))
		return nil, ErrAccessDenied
	}

	var passcodeHash string
	if lock == models.FileLocked {
		hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash passcode: %w", err)
		}
		passcodeHash = string(hash)
	}

	file := &models.FileRecord{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Filename:     filename,
		OwnerID:      caller.ID,
		OwnerName:    caller.Username,
		Sector:       sector.Name,
		LockState:    lock,
		PasscodeHash: passcodeHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := f.repo.CreateFile(ctx, file); err != nil {
		return nil, err
	}

	f.audit.Record(ctx, models.AuditInfo, caller.Username,
		fmt.Sprintf("File uploaded to %s: %s (%s)", sector.Name, filename, lock))
	return file, nil
}

// Rename changes a file's name. Only the owner may do this; a valid file ID
// belonging to someone else gets the same denial as a bogus one.
func (f *Files) Rename(ctx context.Context, caller *models.User, fileID, newName string) error {
	if err := f.registry.Gate(ctx, caller); err != nil {
		return err
	}

	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrAccessDenied
	}

	file, err := f.ownedFile(ctx, caller, fileID)
	if err != nil {
		return err
	}

	if err := f.repo.RenameFile(ctx, file.ID, newName); err != nil {
		return err
	}
	f.audit.Record(ctx, models.AuditInfo, caller.Username,
		fmt.Sprintf("File renamed in %s: %s -> %s", file.Sector, file.Filename, newName))
	return nil
}

// Delete removes the caller's own file.
func (f *Files) Delete(ctx context.Context, caller *models.User, fileID string) error {
	if err := f.registry.Gate(ctx, caller); err != nil {
		return err
	}

	file, err := f.ownedFile(ctx, caller, fileID)
	if err != nil {
		return err
	}

	if err := f.repo.DeleteFile(ctx, file.ID); err != nil {
		return err
	}
	f.audit.Record(ctx, models.AuditInfo, caller.Username,
		fmt.Sprintf("File deleted from %s: %s", file.Sector, file.Filename))
	return nil
}

func (f *Files) ownedFile(ctx context.Context, caller *models.User, fileID string) (*models.FileRecord, error) {
	file, err := f.repo.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, err
	}
	if file.OwnerID != caller.ID {
		f.audit.Record(ctx, models.AuditWarn, caller.Username,
			fmt.Sprintf("Ownership violation attempt on file %s", file.ID))
		return nil, ErrAccessDenied
	}
	return file, nil
}

// AdminPurge removes any file regardless of ownership.
func (f *Files) AdminPurge(ctx context.Context, admin *models.User, fileID string) error {
	file, err := f.repo.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := f.repo.DeleteFile(ctx, file.ID); err != nil {
		return err
	}
	f.audit.Record(ctx, models.AuditWarn, admin.Username,
		fmt.Sprintf("File purged from %s: %s (owner %s)", file.Sector, file.Filename, file.OwnerName))
	return nil
}

// AdminSnapshot assembles the full console view: settings, sectors, files,
// requests and the recent audit tail.
func (f *Files) AdminSnapshot(ctx context.Context) (*models.AdminDataResponse, error) {
	settings, err := f.registry.Settings(ctx)
	if err != nil {
		return nil, err
	}
	sectors, err := f.repo.ListSectors(ctx)
	if err != nil {
		return nil, err
	}
	files, err := f.repo.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	requests, err := f.repo.ListRequests(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := f.repo.ListAudit(ctx, 200)
	if err != nil {
		return nil, err
	}
	return &models.AdminDataResponse{
		Settings: settings,
		Sectors:  sectors,
		Files:    files,
		Requests: requests,
		Logs:     logs,
	}, nil
}
