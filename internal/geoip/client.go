// Package geoip looks up the approximate origin of an IP address. Lookups
// are best-effort: the incident path treats any failure as unknown fields.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Location struct {
	City      string
	Region    string
	Country   string
	ISP       string
	Latitude  float64
	Longitude float64
}

// Describe renders the location the way the audit log and incident records
// present it, or "UNKNOWN" when nothing was resolved.
func (l *Location) Describe() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.City, l.Region, l.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "UNKNOWN"
	}
	return strings.Join(parts, ", ")
}

type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a lookup client against an ipapi.co-compatible endpoint.
// The timeout bounds the whole lookup so the alert path is never blocked.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type lookupResponse struct {
	City        string  `json:"city"`
	Region      string  `json:"region"`
	CountryName string  `json:"country_name"`
	Org         string  `json:"org"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

func (c *Client) Lookup(ctx context.Context, ip string) (*Location, error) {
	url := fmt.Sprintf("%s/%s/json/", c.baseURL, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create geo request: %w", err)
	}
	req.Header.Set("User-Agent", "SecureVault/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("geo lookup returned status %d", resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode geo response: %w", err)
	}

	return &Location{
		City:      body.City,
		Region:    body.Region,
		Country:   body.CountryName,
		ISP:       body.Org,
		Latitude:  body.Latitude,
		Longitude: body.Longitude,
	}, nil
}
