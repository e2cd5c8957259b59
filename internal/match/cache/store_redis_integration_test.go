//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"foodmatch/internal/match"
	"foodmatch/internal/match/cache"
	"foodmatch/pkg/platform/sentinel"
	"foodmatch/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	ctx   context.Context
	redis *containers.RedisContainer
	store *cache.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = cache.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func recipient() match.Recipient {
	return match.Recipient{ID: "ngo001", Name: "Helping Hands", Lat: 12.933, Lon: 77.610, Area: "Koramangala, Bangalore", Active: true}
}

func (s *RedisStoreSuite) TestRoundTrip() {
	r := recipient()
	s.Require().NoError(s.store.Put(s.ctx, "12.93:77.61", r, time.Minute))

	got, err := s.store.Get(s.ctx, "12.93:77.61")
	s.Require().NoError(err)
	s.Equal(r, *got)
}

func (s *RedisStoreSuite) TestMissIsNotFound() {
	_, err := s.store.Get(s.ctx, "0.00:0.00")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestTTLExpiry() {
	s.Require().NoError(s.store.Put(s.ctx, "k", recipient(), time.Second))

	s.Require().Eventually(func() bool {
		_, err := s.store.Get(s.ctx, "k")
		return err != nil
	}, 5*time.Second, 100*time.Millisecond, "entry must expire after its TTL")
}

func (s *RedisStoreSuite) TestInvalidate() {
	s.Require().NoError(s.store.Put(s.ctx, "k", recipient(), time.Minute))
	s.Require().NoError(s.store.Invalidate(s.ctx, "k"))

	_, err := s.store.Get(s.ctx, "k")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.Invalidate(s.ctx, "missing"))
}

func (s *RedisStoreSuite) TestClearAndSize() {
	s.Require().NoError(s.store.Put(s.ctx, "a", recipient(), time.Minute))
	s.Require().NoError(s.store.Put(s.ctx, "b", recipient(), time.Minute))

	// An unrelated key must survive the namespaced clear.
	s.Require().NoError(s.redis.Client.Set(s.ctx, "other:key", "1", 0).Err())

	size, err := s.store.Size(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, size)

	s.Require().NoError(s.store.Clear(s.ctx))

	size, err = s.store.Size(s.ctx)
	s.Require().NoError(err)
	s.Zero(size)

	other, err := s.redis.Client.Get(s.ctx, "other:key").Result()
	s.Require().NoError(err)
	s.Equal("1", other)
}

func (s *RedisStoreSuite) TestHealthy() {
	s.True(s.store.Healthy(s.ctx))
}
