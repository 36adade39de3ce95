// Package service implements the access-control and incident-response core:
// identity and login, the access grant ledger, the request workflow, the
// sector registry with its lockdown gate, the file catalogue, and the
// honeypot incident responder. Error kinds are deliberately coarse; handlers
// map them onto the wire surface without adding detail an outsider could use.
package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLockdown           = errors.New("service unavailable")
	ErrAccessDenied       = errors.New("access denied")
	ErrMigrationRequired  = errors.New("identifier migration required")
	ErrWeakCredential     = errors.New("credential does not meet policy")
	ErrPatternMismatch    = errors.New("identifier does not match required pattern")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrDuplicateSector    = errors.New("sector already exists")
	ErrSectorNotFound     = errors.New("sector not found")
	ErrSectorNotEmpty     = errors.New("sector still holds files")
	ErrInvalidSector      = errors.New("invalid sector")
	ErrInvalidPattern     = errors.New("invalid identifier pattern")
	ErrInvalidLevel       = errors.New("invalid security level")
	ErrInvalidDuration    = errors.New("invalid duration")
	ErrInvalidAction      = errors.New("invalid decision action")
	ErrAlreadyDecided     = errors.New("request already decided")
	ErrNotFound           = errors.New("not found")
)
