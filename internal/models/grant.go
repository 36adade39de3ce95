package models

import "time"

// AccessGrant is a time-boxed authorization for one user within one sector.
// At most one grant exists per (UserID, Sector); re-issuing replaces the
// expiry rather than stacking a second grant.
type AccessGrant struct {
	UserID    string    `json:"user_id"`
	Sector    string    `json:"sector"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Active reports whether the grant authorizes access at the given instant.
// Expired grants are inert, not deleted.
func (g *AccessGrant) Active(now time.Time) bool {
	return now.Before(g.ExpiresAt)
}
