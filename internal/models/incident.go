package models

import "time"

// HoneypotIncident records one trap trigger. AssociatedUserID is empty when
// the trigger arrived without a usable session token. Duplicate incidents
// from the same source are kept for forensic completeness.
type HoneypotIncident struct {
	ID               string    `json:"id"`
	SourceIP         string    `json:"source_ip"`
	UserAgent        string    `json:"user_agent"`
	GeoCity          string    `json:"geo_city"`
	GeoISP           string    `json:"geo_isp"`
	Latitude         float64   `json:"lat"`
	Longitude        float64   `json:"lon"`
	TriggeredAt      time.Time `json:"triggered_at"`
	AssociatedUserID string    `json:"associated_user_id,omitempty"`
}
