package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/photostream/photostream-api/internal/domain/user"
	"github.com/photostream/photostream-api/internal/pkg/cache"
	"github.com/photostream/photostream-api/internal/pkg/jwt"
	"github.com/photostream/photostream-api/internal/pkg/media"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*user.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *user.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) UpdateRole(ctx context.Context, id uuid.UUID, role user.Role) error {
	f.users[id].Role = role
	return nil
}

func (f *fakeUserRepo) UpdateProfilePicture(ctx context.Context, id uuid.UUID, url, publicID *string) error {
	f.users[id].ProfilePictureURL = url
	f.users[id].ProfilePicturePublicID = publicID
	return nil
}

func (f *fakeUserRepo) ListProfiles(ctx context.Context, withPicturesOnly bool, limit, offset int) ([]user.ProfileSummary, int, error) {
	var out []user.ProfileSummary
	for _, u := range f.users {
		if withPicturesOnly && u.ProfilePictureURL == nil {
			continue
		}
		out = append(out, user.ProfileSummary{ID: u.ID, Username: u.Username, ProfilePictureURL: u.ProfilePictureURL})
	}
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

type fakeHost struct {
	uploadErr error
	deleted   []string
}

func (h *fakeHost) Upload(ctx context.Context, data []byte, folder string) (*media.Asset, error) {
	if h.uploadErr != nil {
		return nil, h.uploadErr
	}
	id := folder + "/" + uuid.NewString()
	return &media.Asset{PublicID: id, URL: "https://cdn.test/" + id}, nil
}

func (h *fakeHost) Delete(ctx context.Context, publicID string) (bool, error) {
	h.deleted = append(h.deleted, publicID)
	return true, nil
}

type fixture struct {
	svc  *Service
	repo *fakeUserRepo
	host *fakeHost
	mr   *miniredis.Miniredis
	jwt  *jwt.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newFakeUserRepo()
	host := &fakeHost{}
	jwtSvc := jwt.NewService("test-secret", 15*time.Minute, time.Hour)
	users := user.NewService(repo, cache.New(client, time.Minute), 30*time.Minute)
	return &fixture{
		svc:  NewService(repo, users, jwtSvc, client, host),
		repo: repo,
		host: host,
		mr:   mr,
		jwt:  jwtSvc,
	}
}

func register(t *testing.T, f *fixture, email, username string) *user.Identity {
	t.Helper()
	id, err := f.svc.RegisterConsumer(context.Background(), &RegisterRequest{Email: email, Username: username, Password: "password1"})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return id
}

func TestRegisterConsumerRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := register(t, f, "A@X.com ", "alice")
	if alice.Role != user.RoleConsumer {
		t.Fatalf("role = %q, want consumer", alice.Role)
	}
	if alice.Email != "a@x.com" {
		t.Fatalf("email not normalized: %q", alice.Email)
	}

	_, err := f.svc.RegisterConsumer(ctx, &RegisterRequest{Email: "a@x.com", Username: "other", Password: "password1"})
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("duplicate email err = %v", err)
	}
	_, err = f.svc.RegisterConsumer(ctx, &RegisterRequest{Email: "b@x.com", Username: "alice", Password: "password1"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate username err = %v", err)
	}
	if len(f.repo.users) != 1 {
		t.Fatalf("expected one stored user, got %d", len(f.repo.users))
	}
	if f.repo.users[alice.ID].PasswordHash == "password1" {
		t.Fatal("password stored in clear")
	}
}

func TestLoginAndRefreshRotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := register(t, f, "a@x.com", "alice")

	if _, err := f.svc.Login(ctx, &LoginRequest{Email: "a@x.com", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bad password err = %v", err)
	}
	if _, err := f.svc.Login(ctx, &LoginRequest{Email: "nobody@x.com", Password: "password1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email err = %v", err)
	}

	tokens, err := f.svc.Login(ctx, &LoginRequest{Email: "a@x.com", Password: "password1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if tokens.TokenType != "bearer" || tokens.ExpiresIn != 900 {
		t.Fatalf("unexpected token response %+v", tokens)
	}
	claims, err := f.jwt.ValidateAccessToken(tokens.AccessToken)
	if err != nil {
		t.Fatalf("validate access: %v", err)
	}
	if claims.UserID != alice.ID {
		t.Fatalf("claims user = %s", claims.UserID)
	}

	rotated, err := f.svc.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := f.svc.Refresh(ctx, tokens.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("reused refresh token err = %v", err)
	}

	if err := f.svc.Logout(ctx, rotated.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.svc.Refresh(ctx, rotated.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("refresh after logout err = %v", err)
	}
	if _, err := f.svc.Refresh(ctx, ""); !errors.Is(err, ErrRefreshTokenRequired) {
		t.Fatalf("empty refresh err = %v", err)
	}
}

func TestUpgradeRoleIsOneWay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := register(t, f, "a@x.com", "alice")

	// warm the identity cache with the consumer role
	if _, err := f.svc.Me(ctx, alice.ID); err != nil {
		t.Fatalf("me: %v", err)
	}
	if !f.mr.Exists(cache.UserKey(alice.ID)) {
		t.Fatal("identity not cached")
	}

	result, err := f.svc.UpgradeRole(ctx, alice.ID)
	if err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if result.User.Role != user.RoleCreator {
		t.Fatalf("role after upgrade = %q", result.User.Role)
	}
	if f.mr.Exists(cache.UserKey(alice.ID)) {
		t.Fatal("identity cache not invalidated")
	}
	claims, err := f.jwt.ValidateAccessToken(result.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Role != string(user.RoleCreator) {
		t.Fatalf("token role = %q", claims.Role)
	}

	me, err := f.svc.Me(ctx, alice.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.Role != user.RoleCreator {
		t.Fatalf("me role = %q", me.Role)
	}

	if _, err := f.svc.UpgradeRole(ctx, alice.ID); !errors.Is(err, ErrAlreadyCreator) {
		t.Fatalf("second upgrade err = %v", err)
	}
}

func TestProfilePictureLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := register(t, f, "a@x.com", "alice")

	if err := f.svc.DeleteProfilePicture(ctx, alice.ID); !errors.Is(err, ErrNoProfilePicture) {
		t.Fatalf("delete without picture err = %v", err)
	}

	first, err := f.svc.SetProfilePicture(ctx, alice.ID, []byte("img"))
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	firstID := *f.repo.users[alice.ID].ProfilePicturePublicID

	// cached read, then replace must invalidate it
	got, err := f.svc.GetProfilePicture(ctx, alice.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *got.ProfilePictureURL != *first.ProfilePictureURL {
		t.Fatalf("got %v, want %v", *got.ProfilePictureURL, *first.ProfilePictureURL)
	}

	second, err := f.svc.SetProfilePicture(ctx, alice.ID, []byte("img2"))
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(f.host.deleted) != 1 || f.host.deleted[0] != firstID {
		t.Fatalf("old media not deleted: %v", f.host.deleted)
	}
	got, err = f.svc.GetProfilePicture(ctx, alice.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *got.ProfilePictureURL != *second.ProfilePictureURL {
		t.Fatal("stale picture served after replace")
	}

	if err := f.svc.DeleteProfilePicture(ctx, alice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = f.svc.GetProfilePicture(ctx, alice.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ProfilePictureURL != nil {
		t.Fatal("picture still set after delete")
	}
	if len(f.host.deleted) != 2 {
		t.Fatalf("expected two media deletions, got %v", f.host.deleted)
	}
}

func TestSetProfilePictureUpstreamFailure(t *testing.T) {
	f := newFixture(t)
	alice := register(t, f, "a@x.com", "alice")
	f.host.uploadErr = media.ErrUpstream

	if _, err := f.svc.SetProfilePicture(context.Background(), alice.ID, []byte("img")); !errors.Is(err, media.ErrUpstream) {
		t.Fatalf("err = %v", err)
	}
	if f.repo.users[alice.ID].ProfilePictureURL != nil {
		t.Fatal("picture recorded despite upload failure")
	}
}

func TestListProfilePicturesPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := register(t, f, "a@x.com", "alice")
	register(t, f, "b@x.com", "bob")
	register(t, f, "c@x.com", "carol")
	if _, err := f.svc.SetProfilePicture(ctx, a.ID, []byte("img")); err != nil {
		t.Fatalf("set: %v", err)
	}

	page, err := f.svc.ListProfilePictures(ctx, 1, 2, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 || len(page.Users) != 2 || !page.HasNext {
		t.Fatalf("page 1 = %+v", page)
	}
	page, err = f.svc.ListProfilePictures(ctx, 2, 2, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Users) != 1 || page.HasNext {
		t.Fatalf("page 2 = %+v", page)
	}

	withPics, err := f.svc.ListProfilePictures(ctx, 1, 20, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if withPics.Total != 1 || withPics.Users[0].ID != a.ID {
		t.Fatalf("with pictures = %+v", withPics)
	}
}

func TestCreateCreatorSkipsUpgrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator, err := f.svc.CreateCreator(ctx, "C@X.com", "carol", "password1")
	if err != nil {
		t.Fatalf("create creator: %v", err)
	}
	if creator.Role != user.RoleCreator || creator.Email != "c@x.com" {
		t.Fatalf("unexpected identity %+v", creator)
	}
	if _, err := f.svc.UpgradeRole(ctx, creator.ID); !errors.Is(err, ErrAlreadyCreator) {
		t.Fatalf("upgrade err = %v", err)
	}
}
