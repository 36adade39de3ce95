package models

import "time"

// Wire-level request and response bodies. Field names follow the browser
// client's payloads.

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Role     Role   `json:"role"`
	FullName string `json:"fullName"`
}

type MigrateRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	NewUsername string `json:"newUsername"`
}

// DeptStats is one sector's row in the dashboard summary.
type DeptStats struct {
	Count         int           `json:"count"`
	HasAccess     bool          `json:"hasAccess"`
	ExpiresAt     *time.Time    `json:"expiresAt,omitempty"`
	SecurityLevel SecurityLevel `json:"securityLevel"`
}

type DashboardResponse struct {
	Stats    map[string]DeptStats `json:"stats"`
	FullName string               `json:"fullName"`
	Username string               `json:"username"`
}

type SectorEntryRequest struct {
	Department string `json:"department"`
	Password   string `json:"password"`
}

type SectorEntryResponse struct {
	Files      []*FileRecord `json:"files"`
	AccessType string        `json:"accessType"`
}

type AccessRequestSubmission struct {
	Department string `json:"department"`
	// Duration arrives as a string; the client posts its select values
	// verbatim ("15", "30", "60").
	Duration string `json:"duration"`
	Reason   string `json:"reason"`
}

type UploadRequest struct {
	Department string    `json:"department"`
	Filename   string    `json:"filename"`
	Passcode   string    `json:"passcode"`
	Status     LockState `json:"status"`
}

type RenameFileRequest struct {
	ID      string `json:"id"`
	NewName string `json:"newName"`
}

type FileIDRequest struct {
	ID string `json:"id"`
}

type AdminDataResponse struct {
	Settings Settings         `json:"settings"`
	Sectors  []*Sector        `json:"sectors"`
	Files    []*FileRecord    `json:"files"`
	Requests []*AccessRequest `json:"requests"`
	Logs     []*AuditEntry    `json:"logs"`
}

type FirewallRulesRequest struct {
	IDPattern     string `json:"idPattern"`
	AllowedDomain string `json:"allowedDomain"`
}

type LockdownRequest struct {
	Enabled bool `json:"enabled"`
}

type DecideRequestBody struct {
	RequestID string         `json:"requestId"`
	Action    DecisionAction `json:"action"`
}

type AddSectorRequest struct {
	Name  string        `json:"name"`
	Level SecurityLevel `json:"level"`
}

type DeleteSectorRequest struct {
	Name string `json:"name"`
}

type TrapTriggerRequest struct {
	IP        string `json:"ip"`
	UserAgent string `json:"userAgent"`
}
