//go:build integration

package consumer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"foodmatch/internal/match"
	"foodmatch/internal/match/cache"
	"foodmatch/internal/match/consumer"
	"foodmatch/internal/match/store"
	"foodmatch/pkg/testutil/containers"
)

func TestConsumerEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := containers.GetManager().GetRedpanda(t).Broker
	topic := "donation.events." + uuid.NewString()

	directory := match.NewDirectory([]match.Recipient{
		{ID: "ngo001", Name: "Helping Hands", Lat: 12.933, Lon: 77.610, Active: true},
	})
	matches := store.NewMemory()
	engine := match.NewEngine(directory, cache.NewMemory())
	intake := consumer.NewIntake(engine, matches)

	c, err := consumer.New(consumer.Config{
		Brokers: []string{broker},
		Topic:   topic,
		Group:   "matching-service-group-" + uuid.NewString(),
		Workers: 2,
	}, intake, nil)
	require.NoError(t, err)
	defer c.Close()

	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()
	go func() {
		_ = c.Run(runCtx)
	}()

	producer, err := kgo.NewClient(kgo.SeedBrokers(broker))
	require.NoError(t, err)
	defer producer.Close()

	event := []byte(`{"donationId":"don-42","donorId":"donor-7","lat":12.9335,"lon":77.6105,"quantity":10,"timestamp":"2026-08-01T12:00:00Z"}`)
	require.NoError(t, producer.ProduceSync(ctx, &kgo.Record{Topic: topic, Value: event}).FirstErr())

	require.Eventually(t, func() bool {
		m, err := matches.FindByID(ctx, "don-42")
		return err == nil && m.NgoID == "ngo001"
	}, time.Minute, 250*time.Millisecond, "produced event must end up as a persisted match")
}

// flakySaver fails a fixed number of saves before delegating to the real
// repository, standing in for a transient Postgres outage.
type flakySaver struct {
	mu       sync.Mutex
	failures int
	inner    *store.Memory
}

func (f *flakySaver) Save(ctx context.Context, m match.MatchedDonation) error {
	f.mu.Lock()
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return errors.New("repository unavailable")
	}
	f.mu.Unlock()
	return f.inner.Save(ctx, m)
}

func TestConsumerRedeliversBatchAfterPersistenceFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	broker := containers.GetManager().GetRedpanda(t).Broker
	topic := "donation.events." + uuid.NewString()
	cfg := consumer.Config{
		Brokers: []string{broker},
		Topic:   topic,
		Group:   "matching-service-group-" + uuid.NewString(),
		Workers: 2,
	}

	directory := match.NewDirectory([]match.Recipient{
		{ID: "ngo001", Name: "Helping Hands", Lat: 12.933, Lon: 77.610, Active: true},
	})
	saver := &flakySaver{failures: 1, inner: store.NewMemory()}
	engine := match.NewEngine(directory, cache.NewMemory())
	intake := consumer.NewIntake(engine, saver)

	producer, err := kgo.NewClient(kgo.SeedBrokers(broker))
	require.NoError(t, err)
	defer producer.Close()

	event := []byte(`{"donationId":"don-77","donorId":"donor-7","lat":12.9335,"lon":77.6105,"quantity":10,"timestamp":"2026-08-01T12:00:00Z"}`)
	require.NoError(t, producer.ProduceSync(ctx, &kgo.Record{Topic: topic, Value: event}).FirstErr())

	// The first consumer hits the outage: Run must surface the error with
	// the batch uncommitted instead of polling past it.
	first, err := consumer.New(cfg, intake, nil)
	require.NoError(t, err)
	runErr := make(chan error, 1)
	go func() {
		runErr <- first.Run(ctx)
	}()
	select {
	case err := <-runErr:
		require.Error(t, err, "a failed batch must stop the poll loop")
	case <-ctx.Done():
		t.Fatal("consumer kept running past the failed batch")
	}
	first.Close()

	// A replacement in the same group resumes at the uncommitted offsets
	// and redelivers the event to the now-healthy repository.
	second, err := consumer.New(cfg, intake, nil)
	require.NoError(t, err)
	defer second.Close()
	go func() {
		_ = second.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		m, err := saver.inner.FindByID(ctx, "don-77")
		return err == nil && m.NgoID == "ngo001"
	}, time.Minute, 250*time.Millisecond, "failed batch must be redelivered and persisted")
}
