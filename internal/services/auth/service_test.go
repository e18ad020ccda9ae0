package auth_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
	pgrepo "github.com/GarryCodespace/xFood-Web/internal/repo/postgres"
	redrepo "github.com/GarryCodespace/xFood-Web/internal/repo/redis"
	authsvc "github.com/GarryCodespace/xFood-Web/internal/services/auth"
)

type memUserStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]model.User
	hashes map[string]pgrepo.UserAuthRecord
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		nextID: 1,
		byID:   make(map[int64]model.User),
		hashes: make(map[string]pgrepo.UserAuthRecord),
	}
}

func (s *memUserStore) Create(_ context.Context, email, fullName, hashedPassword string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.hashes[email]; exists {
		return model.User{}, pgrepo.ErrEmailTaken
	}

	user := model.User{
		ID:       s.nextID,
		Email:    email,
		FullName: fullName,
		Role:     enums.RoleUser,
		IsActive: true,
	}
	s.nextID++
	s.byID[user.ID] = user
	s.hashes[email] = pgrepo.UserAuthRecord{
		UserID:         user.ID,
		Email:          email,
		HashedPassword: hashedPassword,
		IsActive:       true,
	}
	return user, nil
}

func (s *memUserStore) FindAuthByEmail(_ context.Context, email string) (pgrepo.UserAuthRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.hashes[email]
	if !ok {
		return pgrepo.UserAuthRecord{}, pgrepo.ErrUserNotFound
	}
	return record, nil
}

func (s *memUserStore) FindByID(_ context.Context, userID int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[userID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	registerRes, err := svc.Register(ctx, "baker@example.com", "Test Baker", "sourdough-secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registerRes.AccessToken == "" || registerRes.RefreshToken == "" {
		t.Fatalf("register returned empty tokens")
	}

	if _, err := svc.Register(ctx, "baker@example.com", "Imposter", "another-pass"); !errors.Is(err, authsvc.ErrEmailTaken) {
		t.Fatalf("duplicate register should fail with ErrEmailTaken, got %v", err)
	}

	loginRes, err := svc.Login(ctx, "baker@example.com", "sourdough-secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loginRes.Me.ID != registerRes.Me.ID {
		t.Fatalf("login returned wrong user: %d != %d", loginRes.Me.ID, registerRes.Me.ID)
	}

	if _, err := svc.Login(ctx, "baker@example.com", "wrong-password"); !errors.Is(err, authsvc.ErrInvalidCredentials) {
		t.Fatalf("wrong password should fail with ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "sourdough-secret"); !errors.Is(err, authsvc.ErrInvalidCredentials) {
		t.Fatalf("unknown email should fail with ErrInvalidCredentials, got %v", err)
	}
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	svc, _, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := svc.Register(ctx, "not-an-email", "X", "long-enough-pass"); !errors.Is(err, authsvc.ErrInvalidInput) {
		t.Fatalf("bad email should fail with ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Register(ctx, "ok@example.com", "X", "short"); !errors.Is(err, authsvc.ErrInvalidInput) {
		t.Fatalf("short password should fail with ErrInvalidInput, got %v", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	svc, _, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	loginRes := registerUser(t, svc, 1)

	refreshRes, err := svc.Refresh(ctx, loginRes.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshRes.RefreshToken == loginRes.RefreshToken {
		t.Fatalf("refresh token was not rotated")
	}

	if _, err := svc.Refresh(ctx, loginRes.RefreshToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("old refresh token should be unauthorized, got err=%v", err)
	}

	if _, err := svc.ValidateAccessToken(ctx, refreshRes.AccessToken); err != nil {
		t.Fatalf("new access token validation failed: %v", err)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc, _, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	loginRes := registerUser(t, svc, 2)

	claims, err := svc.ValidateAccessToken(ctx, loginRes.AccessToken)
	if err != nil {
		t.Fatalf("validate access token before logout: %v", err)
	}

	if err := svc.Logout(ctx, claims.SID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := svc.ValidateAccessToken(ctx, loginRes.AccessToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("access token should be unauthorized after logout, got err=%v", err)
	}
}

func TestLogoutAllClosesEverySession(t *testing.T) {
	svc, _, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	first := registerUser(t, svc, 3)
	second, err := svc.Login(ctx, "user3@example.com", "password-for-3")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	if err := svc.LogoutAll(ctx, first.Me.ID); err != nil {
		t.Fatalf("logout all: %v", err)
	}

	for _, token := range []string{first.AccessToken, second.AccessToken} {
		if _, err := svc.ValidateAccessToken(ctx, token); !errors.Is(err, authsvc.ErrUnauthorized) {
			t.Fatalf("token should be unauthorized after logout all, got err=%v", err)
		}
	}
}

func registerUser(t *testing.T, svc *authsvc.Service, n int) authsvc.AuthResult {
	t.Helper()

	res, err := svc.Register(context.Background(),
		"user"+strconv.Itoa(n)+"@example.com",
		"User "+strconv.Itoa(n),
		"password-for-"+strconv.Itoa(n),
	)
	if err != nil {
		t.Fatalf("register user %d: %v", n, err)
	}
	return res
}

func newAuthServiceForTest(t *testing.T) (*authsvc.Service, *memUserStore, func()) {
	t.Helper()

	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	sessions := redrepo.NewSessionRepo(client)
	users := newMemUserStore()
	jwtManager := authsvc.NewJWTManager("test-secret", 15*time.Minute)
	svc := authsvc.NewService(jwtManager, sessions, users, 45*24*time.Hour)

	cleanup := func() {
		_ = client.Close()
		mini.Close()
	}

	return svc, users, cleanup
}
