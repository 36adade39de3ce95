package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/securevault-systems/vault-core/internal/audit"
	"github.com/securevault-systems/vault-core/internal/geoip"
	"github.com/securevault-systems/vault-core/internal/metrics"
	"github.com/securevault-systems/vault-core/internal/models"
	"github.com/securevault-systems/vault-core/internal/ratelimit"
	"github.com/securevault-systems/vault-core/internal/repository"
)

// Honeypot captures trap triggers: it records an incident, flags the
// associated identity if one is attached, and raises exactly one ALERT per
// trigger. Geolocation is best-effort and rate limited per source IP so a
// trigger storm cannot turn into an outbound flood.
type Honeypot struct {
	repo    repository.Repository
	audit   *audit.Recorder
	geo     *geoip.Client
	limiter ratelimit.Limiter
}

func NewHoneypot(repo repository.Repository, recorder *audit.Recorder, geo *geoip.Client, limiter ratelimit.Limiter) *Honeypot {
	if limiter == nil {
		limiter = ratelimit.NoOpLimiter{}
	}
	return &Honeypot{repo: repo, audit: recorder, geo: geo, limiter: limiter}
}

// Trigger handles one trap activation. user is nil when no usable session
// accompanied the trigger. The incident is always recorded and the ALERT is
// always raised, whatever the geolocation outcome.
func (h *Honeypot) Trigger(ctx context.Context, sourceIP, userAgent string, user *models.User) (*models.HoneypotIncident, error) {
	loc := &geoip.Location{}
	if h.geo != nil {
		allowed, err := h.limiter.Allow(ctx, "geo:"+sourceIP)
		if err != nil {
			allowed = false
		}
		if allowed {
			if resolved, err := h.geo.Lookup(ctx, sourceIP); err != nil {
				metrics.GeoLookupFailures.Inc()
			} else {
				loc = resolved
			}
		}
	}

	incident := &models.HoneypotIncident{
		ID:          uuid.Must(uuid.NewV7()).String(),
		SourceIP:    sourceIP,
		UserAgent:   userAgent,
		GeoCity:     loc.Describe(),
		GeoISP:      loc.ISP,
		Latitude:    loc.Latitude,
		Longitude:   loc.Longitude,
		TriggeredAt: time.Now().UTC(),
	}
	if user != nil {
		incident.AssociatedUserID = user.ID
	}
	if err := h.repo.CreateIncident(ctx, incident); err != nil {
		return nil, err
	}

	actor := "unknown"
	if user != nil {
		actor = user.Username
		// Flagging is idempotent and never reversed here.
		if !user.IsFlagged() {
			if err := h.repo.SetUserRole(ctx, user.ID, models.RoleFlagged); err != nil {
				return nil, err
			}
		}
	}

	metrics.IncidentsTotal.Inc()
	h.audit.Record(ctx, models.AuditAlert, actor,
		fmt.Sprintf("HONEYPOT TRIGGERED from %s (%s)", sourceIP, incident.GeoCity))
	return incident, nil
}
