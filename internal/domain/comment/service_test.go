package comment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/photostream/photostream-api/internal/domain/user"
	"github.com/photostream/photostream-api/internal/middleware"
)

type fakeRepo struct {
	comments []*Comment
}

func (f *fakeRepo) Create(ctx context.Context, c *Comment) error {
	f.comments = append(f.comments, c)
	return nil
}

func (f *fakeRepo) ListByPhoto(ctx context.Context, photoID uuid.UUID, limit, offset int) ([]*Comment, error) {
	var out []*Comment
	for i := len(f.comments) - 1; i >= 0; i-- {
		if f.comments[i].PhotoID == photoID {
			out = append(out, f.comments[i])
		}
	}
	if offset >= len(out) {
		return []*Comment{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) CountByPhoto(ctx context.Context, photoID uuid.UUID) (int, error) {
	n := 0
	for _, c := range f.comments {
		if c.PhotoID == photoID {
			n++
		}
	}
	return n, nil
}

type fakePhotos map[uuid.UUID]bool

func (f fakePhotos) Exists(ctx context.Context, id uuid.UUID) (bool, error) { return f[id], nil }

type fakeUsers map[uuid.UUID]string

func (f fakeUsers) GetIdentity(ctx context.Context, id uuid.UUID) (*user.Identity, error) {
	name, ok := f[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &user.Identity{ID: id, Username: name}, nil
}

func TestCreateCopiesUsernameAndRequiresPhoto(t *testing.T) {
	photoID, userID := uuid.New(), uuid.New()
	repo := &fakeRepo{}
	svc := NewService(repo, fakePhotos{photoID: true}, fakeUsers{userID: "alice"})
	ctx := context.Background()

	c, err := svc.Create(ctx, userID, photoID, &CreateRequest{Content: "lovely"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Username != "alice" || c.PhotoID != photoID {
		t.Fatalf("unexpected comment %+v", c)
	}

	if _, err := svc.Create(ctx, userID, uuid.New(), &CreateRequest{Content: "x"}); !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("expected ErrPhotoNotFound, got %v", err)
	}
	if len(repo.comments) != 1 {
		t.Fatalf("comment on a missing photo must not be stored")
	}
}

func TestListNewestFirstWithTotal(t *testing.T) {
	photoID, userID := uuid.New(), uuid.New()
	repo := &fakeRepo{}
	svc := NewService(repo, fakePhotos{photoID: true}, fakeUsers{userID: "alice"})
	ctx := context.Background()

	for _, text := range []string{"first", "second", "third"} {
		if _, err := svc.Create(ctx, userID, photoID, &CreateRequest{Content: text}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	list, err := svc.List(ctx, photoID, 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 3 || len(list.Comments) != 2 || list.Comments[0].Content != "third" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestHandlerValidation(t *testing.T) {
	photoID, userID := uuid.New(), uuid.New()
	h := NewHandler(NewService(&fakeRepo{}, fakePhotos{photoID: true}, fakeUsers{userID: "alice"}))

	auth := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), userID, middleware.RoleConsumer)))
		})
	}
	router := chi.NewRouter()
	router.Mount("/photos/{id}/comments", h.Routes(auth))

	cases := []struct {
		name, method, path, body string
		status                   int
	}{
		{"created", http.MethodPost, "/photos/" + photoID.String() + "/comments", `{"content":"nice"}`, http.StatusCreated},
		{"empty", http.MethodPost, "/photos/" + photoID.String() + "/comments", `{"content":"   "}`, http.StatusUnprocessableEntity},
		{"too long", http.MethodPost, "/photos/" + photoID.String() + "/comments", `{"content":"` + strings.Repeat("a", 501) + `"}`, http.StatusUnprocessableEntity},
		{"malformed id", http.MethodPost, "/photos/nope/comments", `{"content":"x"}`, http.StatusNotFound},
		{"missing photo", http.MethodGet, "/photos/" + uuid.NewString() + "/comments", "", http.StatusNotFound},
		{"bad limit", http.MethodGet, "/photos/" + photoID.String() + "/comments?limit=0", "", http.StatusUnprocessableEntity},
		{"listed", http.MethodGet, "/photos/" + photoID.String() + "/comments?limit=10&offset=0", "", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
		})
	}
}
