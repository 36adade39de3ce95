package models

import "time"

type AuditKind string

const (
	AuditInfo  AuditKind = "INFO"
	AuditWarn  AuditKind = "WARN"
	AuditAlert AuditKind = "ALERT"
)

// AuditEntry is one append-only record of a security-relevant event.
// Entries are never edited or removed through the public contract; the
// Signature is an HMAC over the stable fields for tamper evidence.
type AuditEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      AuditKind `json:"type"`
	Message   string    `json:"message"`
	Actor     string    `json:"user"`
	Signature string    `json:"signature,omitempty"`
}
