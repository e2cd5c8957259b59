package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"foodmatch/internal/match"
	"foodmatch/pkg/platform/sentinel"
)

// Postgres is the production matched-donation repository.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a repository over an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS matched_donations (
	donation_id TEXT PRIMARY KEY,
	donor_id    TEXT NOT NULL,
	lat         DOUBLE PRECISION NOT NULL,
	lon         DOUBLE PRECISION NOT NULL,
	quantity    INTEGER NOT NULL,
	ts          TEXT NOT NULL DEFAULT '',
	ngo_id      TEXT NOT NULL,
	ngo_name    TEXT NOT NULL,
	ngo_lat     DOUBLE PRECISION NOT NULL,
	ngo_lon     DOUBLE PRECISION NOT NULL,
	matched_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS matched_donations_donor_id_idx ON matched_donations (donor_id);
`

// Migrate creates the matched_donations table when absent.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate matched_donations: %w", err)
	}
	return nil
}

// Save upserts by donation ID: redelivered events overwrite the earlier row.
func (s *Postgres) Save(ctx context.Context, m match.MatchedDonation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO matched_donations
			(donation_id, donor_id, lat, lon, quantity, ts, ngo_id, ngo_name, ngo_lat, ngo_lon, matched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (donation_id) DO UPDATE SET
			donor_id = EXCLUDED.donor_id,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			quantity = EXCLUDED.quantity,
			ts = EXCLUDED.ts,
			ngo_id = EXCLUDED.ngo_id,
			ngo_name = EXCLUDED.ngo_name,
			ngo_lat = EXCLUDED.ngo_lat,
			ngo_lon = EXCLUDED.ngo_lon,
			matched_at = EXCLUDED.matched_at`,
		m.DonationID, m.DonorID, m.Lat, m.Lon, m.Quantity, m.Timestamp,
		m.NgoID, m.NgoName, m.NgoLat, m.NgoLon, m.MatchedAt,
	)
	if err != nil {
		return fmt.Errorf("save match %q: %w", m.DonationID, err)
	}
	return nil
}

const selectColumns = `
	SELECT donation_id, donor_id, lat, lon, quantity, ts, ngo_id, ngo_name, ngo_lat, ngo_lon, matched_at
	FROM matched_donations`

// FindAll returns every match, newest first.
func (s *Postgres) FindAll(ctx context.Context) ([]match.MatchedDonation, error) {
	rows, err := s.pool.Query(ctx, selectColumns+` ORDER BY matched_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("find all matches: %w", err)
	}
	defer rows.Close()
	return scanMatches(rows)
}

// FindByDonorID returns the donor's matches, newest first.
func (s *Postgres) FindByDonorID(ctx context.Context, donorID string) ([]match.MatchedDonation, error) {
	rows, err := s.pool.Query(ctx, selectColumns+` WHERE donor_id = $1 ORDER BY matched_at DESC`, donorID)
	if err != nil {
		return nil, fmt.Errorf("find matches for donor %q: %w", donorID, err)
	}
	defer rows.Close()
	return scanMatches(rows)
}

// FindByID returns one match or sentinel.ErrNotFound.
func (s *Postgres) FindByID(ctx context.Context, donationID string) (*match.MatchedDonation, error) {
	row := s.pool.QueryRow(ctx, selectColumns+` WHERE donation_id = $1`, donationID)
	m, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find match %q: %w", donationID, err)
	}
	return &m, nil
}

// DeleteByID removes one match or reports sentinel.ErrNotFound.
func (s *Postgres) DeleteByID(ctx context.Context, donationID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM matched_donations WHERE donation_id = $1`, donationID)
	if err != nil {
		return fmt.Errorf("delete match %q: %w", donationID, err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// DeleteAll removes every match.
func (s *Postgres) DeleteAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM matched_donations`); err != nil {
		return fmt.Errorf("delete all matches: %w", err)
	}
	return nil
}

// ExistsByID reports whether a match is stored for the donation.
func (s *Postgres) ExistsByID(ctx context.Context, donationID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM matched_donations WHERE donation_id = $1)`, donationID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists match %q: %w", donationID, err)
	}
	return exists, nil
}

// Count returns the number of stored matches.
func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM matched_donations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count matches: %w", err)
	}
	return count, nil
}

func scanMatches(rows pgx.Rows) ([]match.MatchedDonation, error) {
	var out []match.MatchedDonation
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match rows: %w", err)
	}
	return out, nil
}

func scanMatch(row pgx.Row) (match.MatchedDonation, error) {
	var m match.MatchedDonation
	err := row.Scan(
		&m.DonationID, &m.DonorID, &m.Lat, &m.Lon, &m.Quantity, &m.Timestamp,
		&m.NgoID, &m.NgoName, &m.NgoLat, &m.NgoLon, &m.MatchedAt,
	)
	return m, err
}
