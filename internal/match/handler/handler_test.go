package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"foodmatch/internal/match"
	"foodmatch/internal/match/cache"
	"foodmatch/internal/match/handler"
	"foodmatch/internal/match/store"
)

type HandlerSuite struct {
	suite.Suite
	ctx     context.Context
	cache   *cache.MemoryStore
	matches *store.Memory
	engine  *match.Engine
	router  chi.Router
}

func (s *HandlerSuite) SetupTest() {
	s.ctx = context.Background()
	s.cache = cache.NewMemory()
	s.matches = store.NewMemory()
	directory := match.SeedDirectory()
	s.engine = match.NewEngine(directory, s.cache)

	s.router = chi.NewRouter()
	handler.New(s.engine, s.cache, s.matches, directory.Len(), nil).Register(s.router)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.NewDecoder(w.Body).Decode(v))
}

func (s *HandlerSuite) TestCacheStatus() {
	w := s.do(http.MethodGet, "/cache/status", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var body map[string]any
	s.decode(w, &body)
	s.Equal(true, body["cacheEnabled"])
	s.EqualValues(0, body["cacheSize"])
	s.Contains(body, "timestamp")
}

func (s *HandlerSuite) TestCacheStats() {
	// Populate one cell first.
	s.engine.Find(s.ctx, match.Coordinate{Lat: 12.933, Lon: 77.610})

	w := s.do(http.MethodGet, "/cache/stats", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var body map[string]any
	s.decode(w, &body)
	s.EqualValues(1, body["cacheSize"])
	s.EqualValues(3, body["totalRecipients"])
}

func (s *HandlerSuite) TestCacheClear() {
	s.engine.Find(s.ctx, match.Coordinate{Lat: 12.933, Lon: 77.610})

	w := s.do(http.MethodDelete, "/cache/clear", "")
	s.Require().Equal(http.StatusOK, w.Code)

	size, err := s.cache.Size(s.ctx)
	s.Require().NoError(err)
	s.Zero(size)
}

func (s *HandlerSuite) TestCacheClearLocation() {
	point := match.Coordinate{Lat: 12.933, Lon: 77.610}
	s.engine.Find(s.ctx, point)

	w := s.do(http.MethodDelete, "/cache/clear/location?lat=12.933&lon=77.610", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var body map[string]any
	s.decode(w, &body)
	s.Equal(match.CellKey(point), body["location"])

	size, err := s.cache.Size(s.ctx)
	s.Require().NoError(err)
	s.Zero(size)
}

func (s *HandlerSuite) TestCacheClearLocationRejectsBadParams() {
	s.Equal(http.StatusBadRequest, s.do(http.MethodDelete, "/cache/clear/location?lat=abc&lon=77.6", "").Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodDelete, "/cache/clear/location?lat=12.9", "").Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodDelete, "/cache/clear/location?lat=95&lon=77.6", "").Code)
}

func (s *HandlerSuite) TestCacheWarm() {
	w := s.do(http.MethodPost, "/cache/warm", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var body map[string]any
	s.decode(w, &body)
	s.EqualValues(4, body["locationsWarmed"])

	size, err := s.cache.Size(s.ctx)
	s.Require().NoError(err)
	s.Greater(size, 0)
}

func (s *HandlerSuite) TestListMatchesEmpty() {
	w := s.do(http.MethodGet, "/matches/", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("[]\n", w.Body.String())
}

func (s *HandlerSuite) TestMatchesByDonor() {
	s.Require().NoError(s.matches.Save(s.ctx, match.MatchedDonation{DonationID: "d1", DonorID: "donor1", NgoID: "ngo001"}))
	s.Require().NoError(s.matches.Save(s.ctx, match.MatchedDonation{DonationID: "d2", DonorID: "donor2", NgoID: "ngo001"}))

	w := s.do(http.MethodGet, "/matches/donor1", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var body []match.MatchedDonation
	s.decode(w, &body)
	s.Require().Len(body, 1)
	s.Equal("d1", body[0].DonationID)
}

func (s *HandlerSuite) TestUpdateMatch() {
	s.Require().NoError(s.matches.Save(s.ctx, match.MatchedDonation{
		DonationID: "d1", DonorID: "donor1", NgoID: "ngo001", NgoName: "Helping Hands", Quantity: 10,
	}))

	w := s.do(http.MethodPut, "/matches/d1", `{"quantity": 20, "ngoName": "Helping Hands HQ"}`)
	s.Require().Equal(http.StatusOK, w.Code)

	updated, err := s.matches.FindByID(s.ctx, "d1")
	s.Require().NoError(err)
	s.Equal(20, updated.Quantity)
	s.Equal("Helping Hands HQ", updated.NgoName)
	s.Equal("ngo001", updated.NgoID, "update must not touch other fields")
}

func (s *HandlerSuite) TestUpdateMatchNotFound() {
	w := s.do(http.MethodPut, "/matches/missing", `{"quantity": 20, "ngoName": "x"}`)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerSuite) TestUpdateMatchRejectsBadBody() {
	w := s.do(http.MethodPut, "/matches/d1", `{not json`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestDeleteMatch() {
	s.Require().NoError(s.matches.Save(s.ctx, match.MatchedDonation{DonationID: "d1", DonorID: "donor1"}))

	s.Equal(http.StatusOK, s.do(http.MethodDelete, "/matches/d1", "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/matches/d1", "").Code)
}

func (s *HandlerSuite) TestClearMatches() {
	s.Require().NoError(s.matches.Save(s.ctx, match.MatchedDonation{DonationID: "d1", DonorID: "donor1"}))

	w := s.do(http.MethodDelete, "/matches/clear", "")
	s.Require().Equal(http.StatusOK, w.Code)

	count, err := s.matches.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *HandlerSuite) TestMatchesHealth() {
	s.Require().NoError(s.matches.Save(s.ctx, match.MatchedDonation{DonationID: "d1", DonorID: "donor1"}))

	w := s.do(http.MethodGet, "/matches/health", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var body map[string]any
	s.decode(w, &body)
	s.Equal("healthy", body["status"])
	s.EqualValues(1, body["totalMatches"])
}
