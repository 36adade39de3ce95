package models

import "time"

type LockState string

const (
	FileLocked   LockState = "Locked"
	FileUnlocked LockState = "Unlocked"
)

// FileRecord is file metadata only; content bytes are an opaque payload
// handled elsewhere. PasscodeHash is set for Locked files and lives in a
// credential namespace independent from account credentials.
type FileRecord struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OwnerID      string    `json:"owner_id"`
	OwnerName    string    `json:"owner"`
	Sector       string    `json:"department"`
	LockState    LockState `json:"status"`
	PasscodeHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
