package photo

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/photostream/photostream-api/internal/middleware"
	"github.com/photostream/photostream-api/internal/pkg/media"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

// fakeAuth trusts X-Test-User / X-Test-Role headers.
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get("X-Test-User"))
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ctx := middleware.WithIdentity(r.Context(), id, r.Header.Get("X-Test-Role"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTestRouter(t *testing.T) (http.Handler, *fixture) {
	t.Helper()
	f := newFixture(t, nil, nil)
	h := NewHandler(f.svc, 1<<20)

	r := chi.NewRouter()
	r.Mount("/api/photos", h.Routes(nil))
	r.Mount("/api/creator/photos", h.CreatorRoutes(fakeAuth))
	return r, f
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope %q: %v", w.Body.String(), err)
	}
	return env
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if file != nil {
		part, err := mw.CreateFormFile("file", "photo.png")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = part.Write(file)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/creator/photos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestGetMalformedIDIsNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/photos/not-a-uuid", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestListRejectsOutOfRangePaging(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, target := range []string{
		"/api/photos?page=0",
		"/api/photos?page_size=101",
		"/api/photos?page_size=abc",
		"/api/photos/search",
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d", target, w.Code)
		}
	}
}

func TestListDefaults(t *testing.T) {
	router, f := newTestRouter(t)
	f.seed(uuid.New(), "one", time.Minute)
	f.repo.estimate = 1

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/photos", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var list ListResponse
	if err := json.Unmarshal(decode(t, w).Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Page != 1 || list.PageSize != 20 || list.Total != 1 || list.TotalPages != 1 {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestCreatorUpload(t *testing.T) {
	router, f := newTestRouter(t)
	creator := uuid.New()

	req := uploadRequest(t, map[string]string{
		"title":          "Harbor",
		"caption":        "Morning fog",
		"people_present": "Ann, Bob",
	}, pngBytes(t))
	req.Header.Set("X-Test-User", creator.String())
	req.Header.Set("X-Test-Role", middleware.RoleCreator)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var photo PhotoResponse
	if err := json.Unmarshal(decode(t, w).Data, &photo); err != nil {
		t.Fatalf("decode photo: %v", err)
	}
	if photo.Title != "Harbor" || len(photo.PeoplePresent) != 2 || photo.CreatorID != creator {
		t.Fatalf("unexpected photo %+v", photo)
	}
	if f.host.uploads != 1 {
		t.Fatalf("expected one upload")
	}
}

func TestCreatorUploadValidation(t *testing.T) {
	router, _ := newTestRouter(t)
	creator := uuid.New().String()

	cases := map[string]struct {
		fields map[string]string
		file   []byte
		status int
	}{
		"missing title": {map[string]string{}, pngBytes(t), http.StatusUnprocessableEntity},
		"missing file":  {map[string]string{"title": "x"}, nil, http.StatusUnprocessableEntity},
		"not an image":  {map[string]string{"title": "x"}, []byte("plain text"), http.StatusBadRequest},
		"long title":    {map[string]string{"title": strings.Repeat("a", 201)}, pngBytes(t), http.StatusUnprocessableEntity},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := uploadRequest(t, tc.fields, tc.file)
			req.Header.Set("X-Test-User", creator)
			req.Header.Set("X-Test-Role", middleware.RoleCreator)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestCreatorUploadMediaFailureIs502(t *testing.T) {
	router, f := newTestRouter(t)
	f.host.uploadErr = media.ErrUpstream

	req := uploadRequest(t, map[string]string{"title": "x"}, pngBytes(t))
	req.Header.Set("X-Test-User", uuid.New().String())
	req.Header.Set("X-Test-Role", middleware.RoleCreator)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if len(f.repo.photos) != 0 {
		t.Fatalf("no record may be written")
	}
}

func TestCreatorRoutesRequireCreatorRole(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/creator/photos", nil)
	req.Header.Set("X-Test-User", uuid.New().String())
	req.Header.Set("X-Test-Role", middleware.RoleConsumer)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestUpdateAndDeleteOwnership(t *testing.T) {
	router, f := newTestRouter(t)
	owner := uuid.New()
	p := f.seed(owner, "mine", time.Minute)

	send := func(method, user string, body string) int {
		req := httptest.NewRequest(method, "/api/creator/photos/"+p.ID.String(), strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-User", user)
		req.Header.Set("X-Test-Role", middleware.RoleCreator)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	if code := send(http.MethodPut, uuid.New().String(), `{"title":"theirs"}`); code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
	if code := send(http.MethodPut, owner.String(), `{"title":""}`); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
	if code := send(http.MethodPut, owner.String(), `{"location":"Lisbon"}`); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if got := f.repo.photos[p.ID].Location; got == nil || *got != "Lisbon" {
		t.Fatalf("location not updated")
	}
	if code := send(http.MethodDelete, uuid.New().String(), ""); code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
	if code := send(http.MethodDelete, owner.String(), ""); code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", code)
	}
}
