package models

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "Pending"
	RequestApproved RequestStatus = "Approved"
	RequestDenied   RequestStatus = "Denied"
)

type DecisionAction string

const (
	ActionApprove DecisionAction = "Approve"
	ActionDeny    DecisionAction = "Deny"
)

// AccessRequest is a pending or decided petition for a time-boxed sector
// grant. Status moves Pending -> Approved|Denied exactly once; terminal
// states are immutable.
type AccessRequest struct {
	ID              string        `json:"id"`
	RequesterID     string        `json:"requester_id"`
	RequesterName   string        `json:"username"`
	Sector          string        `json:"department"`
	DurationMinutes int           `json:"duration"`
	Reason          string        `json:"reason"`
	Status          RequestStatus `json:"status"`
	RequestedAt     time.Time     `json:"requestedAt"`
	DecidedAt       *time.Time    `json:"decidedAt,omitempty"`
	DecidedBy       string        `json:"decidedBy,omitempty"`
}
