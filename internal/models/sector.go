package models

import "time"

type SecurityLevel string

const (
	LevelLow      SecurityLevel = "Low"
	LevelMedium   SecurityLevel = "Medium"
	LevelHigh     SecurityLevel = "High"
	LevelCritical SecurityLevel = "Critical"
)

// ValidSecurityLevel reports whether level is one of the defined tiers.
func ValidSecurityLevel(level SecurityLevel) bool {
	switch level {
	case LevelLow, LevelMedium, LevelHigh, LevelCritical:
		return true
	}
	return false
}

// Sector is a named access domain grouping files. Names are unique
// case-insensitively.
type Sector struct {
	Name          string        `json:"name"`
	SecurityLevel SecurityLevel `json:"securityLevel"`
	CreatedAt     time.Time     `json:"created_at"`
}
