package like

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/photostream/photostream-api/internal/middleware"
)

func newTestRouter(t *testing.T, photos fakePhotos) http.Handler {
	t.Helper()
	svc, _, _ := newTestService(t, photos)
	user := uuid.New()
	withUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), user, middleware.RoleConsumer)))
		})
	}

	r := chi.NewRouter()
	r.Mount("/photos/{id}/likes", NewHandler(svc).Routes(withUser))
	return r
}

func TestMalformedPhotoIDIsNotFound(t *testing.T) {
	router := newTestRouter(t, fakePhotos{})

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, "/photos/not-a-uuid/likes", nil))
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", method, w.Code)
		}
		var env struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil || env.Error.Code != "NOT_FOUND" {
			t.Fatalf("%s: unexpected body %s", method, w.Body.String())
		}
	}
}

func TestToggleOverHTTP(t *testing.T) {
	id := uuid.New()
	router := newTestRouter(t, fakePhotos{id: true})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/photos/"+id.String()+"/likes", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/photos/"+uuid.NewString()+"/likes", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown photo: expected 404, got %d", w.Code)
	}
}
