// Package store persists matched donations. The memory implementation backs
// unit tests and storage-less local runs; the Postgres implementation is the
// production repository. Both upsert on donation ID so at-least-once event
// delivery overwrites instead of duplicating.
package store

import (
	"context"
	"sort"
	"sync"

	"foodmatch/internal/match"
	"foodmatch/pkg/platform/sentinel"
)

// Memory is an in-process matched-donation repository.
type Memory struct {
	mu      sync.RWMutex
	matches map[string]match.MatchedDonation
}

// NewMemory constructs an empty repository.
func NewMemory() *Memory {
	return &Memory{matches: make(map[string]match.MatchedDonation)}
}

// Save upserts by donation ID.
func (s *Memory) Save(_ context.Context, m match.MatchedDonation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.DonationID] = m
	return nil
}

// FindAll returns every match, ordered by donation ID for stable output.
func (s *Memory) FindAll(context.Context) ([]match.MatchedDonation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]match.MatchedDonation, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DonationID < out[j].DonationID })
	return out, nil
}

// FindByDonorID returns the donor's matches, ordered by donation ID.
func (s *Memory) FindByDonorID(_ context.Context, donorID string) ([]match.MatchedDonation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []match.MatchedDonation
	for _, m := range s.matches {
		if m.DonorID == donorID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DonationID < out[j].DonationID })
	return out, nil
}

// FindByID returns one match or sentinel.ErrNotFound.
func (s *Memory) FindByID(_ context.Context, donationID string) (*match.MatchedDonation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.matches[donationID]; ok {
		return &m, nil
	}
	return nil, sentinel.ErrNotFound
}

// DeleteByID removes one match or reports sentinel.ErrNotFound.
func (s *Memory) DeleteByID(_ context.Context, donationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[donationID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.matches, donationID)
	return nil
}

// DeleteAll removes every match.
func (s *Memory) DeleteAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = make(map[string]match.MatchedDonation)
	return nil
}

// ExistsByID reports whether a match is stored for the donation.
func (s *Memory) ExistsByID(_ context.Context, donationID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.matches[donationID]
	return ok, nil
}

// Count returns the number of stored matches.
func (s *Memory) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches), nil
}
