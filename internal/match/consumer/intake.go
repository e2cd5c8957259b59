// Package consumer receives donation events from Kafka and drives the
// matching engine. The Intake handles one event; the Consumer owns the poll
// loop and worker fan-out.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"foodmatch/internal/match"
	"foodmatch/internal/match/metrics"
)

// Finder resolves a donation point to its nearest recipient.
type Finder interface {
	Find(ctx context.Context, point match.Coordinate) match.MatchResult
}

// Saver persists a matched donation. Save must upsert on donation ID so
// redelivered events overwrite instead of duplicating.
type Saver interface {
	Save(ctx context.Context, m match.MatchedDonation) error
}

// Intake is the per-event boundary: decode, validate, match, persist.
type Intake struct {
	engine  Finder
	matches Saver
	logger  *slog.Logger
	now     func() time.Time
}

// IntakeOption configures an Intake.
type IntakeOption func(*Intake)

// WithIntakeLogger sets the structured logger.
func WithIntakeLogger(logger *slog.Logger) IntakeOption {
	return func(i *Intake) {
		i.logger = logger
	}
}

// WithIntakeClock overrides the matched-at time source for tests.
func WithIntakeClock(now func() time.Time) IntakeOption {
	return func(i *Intake) {
		i.now = now
	}
}

// NewIntake constructs the event boundary.
func NewIntake(engine Finder, matches Saver, opts ...IntakeOption) *Intake {
	i := &Intake{
		engine:  engine,
		matches: matches,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = slog.Default()
	}
	return i
}

// Handle processes one raw donation event. Malformed payloads and
// out-of-range coordinates are dropped with a nil return: redelivering them
// cannot help. An unmatched donation is a normal outcome, not an error. Only
// persistence failures propagate, so the transport can redeliver.
func (i *Intake) Handle(ctx context.Context, raw []byte) error {
	var event match.DonationEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		metrics.EventsSkipped.Inc()
		i.logger.Warn("dropping malformed donation event", "error", err)
		return nil
	}
	if err := event.Coordinate().Validate(); err != nil {
		metrics.EventsSkipped.Inc()
		i.logger.Warn("dropping donation event with invalid coordinates",
			"donation_id", event.DonationID, "error", err)
		return nil
	}

	metrics.EventsConsumed.Inc()
	i.logger.Info("received donation event",
		"donation_id", event.DonationID,
		"donor_id", event.DonorID,
		"lat", event.Lat,
		"lon", event.Lon,
		"quantity", event.Quantity,
	)

	result := i.engine.Find(ctx, event.Coordinate())
	if !result.Matched() {
		i.logger.Info("no recipient in range for donation", "donation_id", event.DonationID)
		return nil
	}

	recipient := result.Recipient
	i.logger.Info("matched donation to recipient",
		"donation_id", event.DonationID,
		"ngo_id", recipient.ID,
		"ngo_name", recipient.Name,
		"distance_km", result.DistanceKm,
	)

	matched := match.MatchedDonation{
		DonationID: event.DonationID,
		DonorID:    event.DonorID,
		Lat:        event.Lat,
		Lon:        event.Lon,
		Quantity:   event.Quantity,
		Timestamp:  event.Timestamp,
		NgoID:      recipient.ID,
		NgoName:    recipient.Name,
		NgoLat:     recipient.Lat,
		NgoLon:     recipient.Lon,
		MatchedAt:  i.now().UTC(),
	}
	if err := i.matches.Save(ctx, matched); err != nil {
		return fmt.Errorf("persist match for donation %q: %w", event.DonationID, err)
	}
	return nil
}
