package rating

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/photostream/photostream-api/internal/middleware"
	"github.com/photostream/photostream-api/internal/pkg/cache"
)

// fakeRepo keeps one score per (photo, user) and mirrors the aggregate
// columns the real recount writes.
type fakeRepo struct {
	scores    map[uuid.UUID]map[uuid.UUID]*Rating
	aggregate  map[uuid.UUID][2]float64
	distCalls  int
	recountErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		scores:    map[uuid.UUID]map[uuid.UUID]*Rating{},
		aggregate: map[uuid.UUID][2]float64{},
	}
}

func (f *fakeRepo) Upsert(ctx context.Context, r *Rating) (*Rating, error) {
	byUser, ok := f.scores[r.PhotoID]
	if !ok {
		byUser = map[uuid.UUID]*Rating{}
		f.scores[r.PhotoID] = byUser
	}
	if existing, ok := byUser[r.UserID]; ok {
		existing.Rating = r.Rating
		return existing, nil
	}
	cp := *r
	byUser[r.UserID] = &cp
	return &cp, nil
}

func (f *fakeRepo) Distribution(ctx context.Context, photoID uuid.UUID) (map[int]int, error) {
	f.distCalls++
	dist := map[int]int{}
	for _, r := range f.scores[photoID] {
		dist[r.Rating]++
	}
	return dist, nil
}

func (f *fakeRepo) Recount(ctx context.Context, photoID uuid.UUID) (float64, int, error) {
	if f.recountErr != nil {
		return 0, 0, f.recountErr
	}
	dist, _ := f.Distribution(ctx, photoID)
	stats := StatsFromDistribution(dist)
	f.aggregate[photoID] = [2]float64{stats.AverageRating, float64(stats.TotalRatings)}
	return stats.AverageRating, stats.TotalRatings, nil
}

type fakePhotos map[uuid.UUID]bool

func (f fakePhotos) Exists(ctx context.Context, id uuid.UUID) (bool, error) { return f[id], nil }

func newTestService(t *testing.T, photos fakePhotos) (*Service, *fakeRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := newFakeRepo()
	return NewService(repo, photos, cache.New(client, time.Minute)), repo, mr
}

func TestTwoConsumersAverage(t *testing.T) {
	photoID := uuid.New()
	svc, repo, _ := newTestService(t, fakePhotos{photoID: true})
	ctx := context.Background()

	if _, err := svc.Rate(ctx, uuid.New(), photoID, 4); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if _, err := svc.Rate(ctx, uuid.New(), photoID, 2); err != nil {
		t.Fatalf("rate: %v", err)
	}

	if agg := repo.aggregate[photoID]; agg[0] != 3.0 || agg[1] != 2 {
		t.Fatalf("expected 3.0 over 2 ratings, got %v", agg)
	}
}

func TestRatingTwiceOverwrites(t *testing.T) {
	photoID, userID := uuid.New(), uuid.New()
	svc, repo, _ := newTestService(t, fakePhotos{photoID: true})
	ctx := context.Background()

	first, err := svc.Rate(ctx, userID, photoID, 5)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	second, err := svc.Rate(ctx, userID, photoID, 1)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if first.ID != second.ID || second.Rating != 1 {
		t.Fatalf("expected in-place update, got %+v then %+v", first, second)
	}
	if len(repo.scores[photoID]) != 1 || repo.aggregate[photoID][1] != 1 {
		t.Fatalf("exactly one rating per pair must exist")
	}
}

func TestRateInvalidatesAndStatsReadThrough(t *testing.T) {
	photoID := uuid.New()
	svc, repo, mr := newTestService(t, fakePhotos{photoID: true})
	ctx := context.Background()

	stats, err := svc.Stats(ctx, photoID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalRatings != 0 || stats.AverageRating != 0 || len(stats.RatingDistribution) != 5 {
		t.Fatalf("unexpected empty stats %+v", stats)
	}
	if _, err := svc.Stats(ctx, photoID); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if repo.distCalls != 1 {
		t.Fatalf("second stats read must hit the cache")
	}

	mr.Set(cache.PhotoKey(photoID), "{}")
	if _, err := svc.Rate(ctx, uuid.New(), photoID, 5); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if mr.Exists(cache.PhotoKey(photoID)) || mr.Exists(cache.RatingsKey(photoID)) {
		t.Fatalf("rating write must invalidate photo and rating keys")
	}

	stats, err = svc.Stats(ctx, photoID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalRatings != 1 || stats.RatingDistribution["5"] != 1 {
		t.Fatalf("stale stats %+v", stats)
	}
}

func TestRateMissingPhoto(t *testing.T) {
	svc, repo, _ := newTestService(t, fakePhotos{})
	if _, err := svc.Rate(context.Background(), uuid.New(), uuid.New(), 3); !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("expected ErrPhotoNotFound, got %v", err)
	}
	if len(repo.scores) != 0 {
		t.Fatalf("nothing may be stored")
	}
}

func TestStatsFromDistributionRounds(t *testing.T) {
	stats := StatsFromDistribution(map[int]int{5: 2, 4: 1})
	if stats.AverageRating != 4.67 || stats.TotalRatings != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestRateIsConsumerOnly(t *testing.T) {
	photoID := uuid.New()
	svc, _, _ := newTestService(t, fakePhotos{photoID: true})

	as := func(role string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), uuid.New(), role)))
			})
		}
	}

	for role, want := range map[string]int{
		middleware.RoleCreator:  http.StatusForbidden,
		middleware.RoleConsumer: http.StatusCreated,
	} {
		router := chi.NewRouter()
		router.Mount("/photos/{id}/ratings", NewHandler(svc).Routes(as(role)))

		req := httptest.NewRequest(http.MethodPost, "/photos/"+photoID.String()+"/ratings", strings.NewReader(`{"rating":4}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("%s: expected %d, got %d", role, want, w.Code)
		}
	}

	router := chi.NewRouter()
	router.Mount("/photos/{id}/ratings", NewHandler(svc).Routes(as(middleware.RoleConsumer)))
	for body, want := range map[string]int{`{"rating":6}`: 422, `{"rating":0}`: 422, `nope`: 400} {
		req := httptest.NewRequest(http.MethodPost, "/photos/"+photoID.String()+"/ratings", strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("%s: expected %d, got %d", body, want, w.Code)
		}
	}
}

func TestAverageMatchesNumericRounding(t *testing.T) {
	cases := []struct {
		sum, n int
		want   float64
	}{
		{201, 200, 1.01}, // exactly 1.005
		{14, 3, 4.67},
		{5, 2, 2.5},
		{0, 0, 0},
		{1001, 1000, 1.0},
	}
	for _, tc := range cases {
		if got := Average(tc.sum, tc.n); got != tc.want {
			t.Errorf("Average(%d, %d) = %v, want %v", tc.sum, tc.n, got, tc.want)
		}
	}

	stats := StatsFromDistribution(map[int]int{1: 199, 2: 1})
	if stats.AverageRating != 1.01 || stats.TotalRatings != 200 {
		t.Fatalf("stats must agree with the stored aggregate, got %+v", stats)
	}
}

func TestPhotoGone(t *testing.T) {
	if err := photoGone("recount", sql.ErrNoRows); !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("no row: got %v", err)
	}
	fk := fmt.Errorf("wrapped: %w", &pq.Error{Code: "23503"})
	if err := photoGone("upsert", fk); !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("fk violation: got %v", err)
	}
	if err := photoGone("upsert", errors.New("syntax")); errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("other errors must not become not found")
	}
}

func TestRateOnPhotoDeletedMidway(t *testing.T) {
	photoID := uuid.New()
	svc, repo, _ := newTestService(t, fakePhotos{photoID: true})
	repo.recountErr = ErrPhotoNotFound

	withConsumer := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), uuid.New(), middleware.RoleConsumer)))
		})
	}
	router := chi.NewRouter()
	router.Mount("/photos/{id}/ratings", NewHandler(svc).Routes(withConsumer))

	req := httptest.NewRequest(http.MethodPost, "/photos/"+photoID.String()+"/ratings", strings.NewReader(`{"rating":4}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d %s", w.Code, w.Body.String())
	}
}
