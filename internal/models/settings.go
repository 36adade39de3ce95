package models

import "time"

// Settings is the single global firewall/lockdown row. Lockdown short-circuits
// every non-admin operation; IDPattern drives identifier-migration enforcement.
type Settings struct {
	IDPattern     string    `json:"idPattern"`
	AllowedDomain string    `json:"allowedDomain"`
	Lockdown      bool      `json:"lockdown"`
	UpdatedAt     time.Time `json:"updated_at"`
}
