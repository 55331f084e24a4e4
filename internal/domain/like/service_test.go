package like

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/photostream/photostream-api/internal/pkg/cache"
)

type pair struct{ photo, user uuid.UUID }

type fakeRepo struct {
	likes      map[pair]*Like
	totals     map[uuid.UUID]int
	countCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{likes: map[pair]*Like{}, totals: map[uuid.UUID]int{}}
}

func (f *fakeRepo) Get(ctx context.Context, photoID, userID uuid.UUID) (*Like, error) {
	return f.likes[pair{photoID, userID}], nil
}

func (f *fakeRepo) Add(ctx context.Context, l *Like) (*Like, error) {
	key := pair{l.PhotoID, l.UserID}
	if existing, ok := f.likes[key]; ok {
		return existing, nil
	}
	f.likes[key] = l
	return l, nil
}

func (f *fakeRepo) Remove(ctx context.Context, id uuid.UUID) error {
	for k, l := range f.likes {
		if l.ID == id {
			delete(f.likes, k)
		}
	}
	return nil
}

func (f *fakeRepo) Count(ctx context.Context, photoID uuid.UUID) (int, error) {
	f.countCalls++
	n := 0
	for k := range f.likes {
		if k.photo == photoID {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) Recount(ctx context.Context, photoID uuid.UUID) (int, error) {
	n, _ := f.Count(ctx, photoID)
	f.totals[photoID] = n
	return n, nil
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

func TestToggleTwiceRestoresState(t *testing.T) {
	photoID, userID := uuid.New(), uuid.New()
	svc, repo, _ := newTestService(t, fakePhotos{photoID: true})
	ctx := context.Background()

	first, err := svc.Toggle(ctx, userID, photoID)
	if err != nil || !first.Liked {
		t.Fatalf("expected liked, got %+v err=%v", first, err)
	}
	if repo.totals[photoID] != 1 {
		t.Fatalf("expected total 1, got %d", repo.totals[photoID])
	}

	second, err := svc.Toggle(ctx, userID, photoID)
	if err != nil || second.Liked {
		t.Fatalf("expected unliked, got %+v err=%v", second, err)
	}
	if second.ID != first.ID {
		t.Fatalf("unlike must report the removed record")
	}
	if len(repo.likes) != 0 || repo.totals[photoID] != 0 {
		t.Fatalf("expected no like records, got %d (total %d)", len(repo.likes), repo.totals[photoID])
	}
}

func TestToggleInvalidates(t *testing.T) {
	photoID := uuid.New()
	svc, _, mr := newTestService(t, fakePhotos{photoID: true})
	ctx := context.Background()

	for _, key := range []string{cache.LikesKey(photoID), cache.PhotoKey(photoID), cache.PhotosPageKey(1, 20, "", ""), cache.PhotosPageKey(2, 20, "sun", "")} {
		mr.Set(key, "{}")
	}
	mr.Set(cache.CreatorPhotosKey(uuid.New()), "[]")

	if _, err := svc.Toggle(ctx, uuid.New(), photoID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if keys := mr.Keys(); len(keys) != 1 {
		t.Fatalf("expected only the creator listing to survive, got %v", keys)
	}
}

func TestStatsCachesCountButNotViewerFlag(t *testing.T) {
	photoID, alice, bob := uuid.New(), uuid.New(), uuid.New()
	svc, repo, _ := newTestService(t, fakePhotos{photoID: true})
	ctx := context.Background()

	if _, err := svc.Toggle(ctx, alice, photoID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	repo.countCalls = 0

	a, err := svc.Stats(ctx, alice, photoID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	b, err := svc.Stats(ctx, bob, photoID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if a.TotalLikes != 1 || !a.UserHasLiked || b.TotalLikes != 1 || b.UserHasLiked {
		t.Fatalf("unexpected stats alice=%+v bob=%+v", a, b)
	}
	if repo.countCalls != 1 {
		t.Fatalf("count must be served from cache on the second read, got %d store counts", repo.countCalls)
	}
}

func TestToggleMissingPhoto(t *testing.T) {
	svc, repo, _ := newTestService(t, fakePhotos{})
	if _, err := svc.Toggle(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("expected ErrPhotoNotFound, got %v", err)
	}
	if len(repo.likes) != 0 {
		t.Fatalf("nothing may be stored")
	}
}
