// Package match implements the donation matching core: a haversine scan of a
// read-only recipient directory, fronted by a TTL cache keyed on quantized
// coordinates. Cache and directory implementations live in subpackages; the
// engine only sees their interfaces.
package match

import (
	"fmt"
	"time"
)

// Coordinate is a geographic point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate rejects coordinates outside the valid latitude/longitude ranges.
// Intake boundaries call this before handing a point to the engine; the
// engine itself assumes validated input.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", c.Lon)
	}
	return nil
}

// Recipient is an organization eligible to receive a donation.
type Recipient struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Area   string  `json:"area"`
	Active bool    `json:"active"`
}

// Coordinate returns the recipient's location as a value type.
func (r Recipient) Coordinate() Coordinate {
	return Coordinate{Lat: r.Lat, Lon: r.Lon}
}

// DonationEvent is the wire shape consumed from the donation events topic.
// Timestamp stays an opaque string; the matcher never interprets it.
type DonationEvent struct {
	DonationID string  `json:"donationId"`
	DonorID    string  `json:"donorId"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Quantity   int     `json:"quantity"`
	Timestamp  string  `json:"timestamp"`
}

// Coordinate returns the donation's drop-off point.
func (e DonationEvent) Coordinate() Coordinate {
	return Coordinate{Lat: e.Lat, Lon: e.Lon}
}

// MatchedDonation joins a donation with the recipient it was matched to.
// This is the row handed to the persistence boundary.
type MatchedDonation struct {
	DonationID string    `json:"donationId"`
	DonorID    string    `json:"donorId"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Quantity   int       `json:"quantity"`
	Timestamp  string    `json:"timestamp"`
	NgoID      string    `json:"ngoId"`
	NgoName    string    `json:"ngoName"`
	NgoLat     float64   `json:"ngoLat"`
	NgoLon     float64   `json:"ngoLon"`
	MatchedAt  time.Time `json:"matchedAt"`
}

// MatchResult is the outcome of a nearest-recipient lookup. Recipient is nil
// when nothing was within the service radius; DistanceKm is meaningful only
// when Recipient is set.
type MatchResult struct {
	Recipient  *Recipient
	DistanceKm float64
}

// Matched reports whether a recipient was found within the service radius.
func (r MatchResult) Matched() bool {
	return r.Recipient != nil
}
