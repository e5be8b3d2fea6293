package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/ultra-bms/ultra-bms/internal/auth"
	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/shared"
	_ "github.com/ultra-bms/ultra-bms/testing"
)

type stubRepo struct {
	user     *auth.User
	sessions map[string]int64
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || !strings.EqualFold(s.user.Email, email) {
		return nil, shared.ErrInvalidCredentials
	}
	return s.user, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) AssignedPropertyIDs(ctx context.Context, userID int64) ([]int64, error) {
	return nil, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		s.sessions = make(map[string]int64)
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func newHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	return auth.NewHandler(nil, auth.NewService(repo), sessions, csrf), sessions
}

func hashedUser(t *testing.T, password string) *auth.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &auth.User{
		ID:           1,
		Email:        "manager@test.local",
		PasswordHash: string(hashed),
		Role:         authz.RolePropertyManager,
		IsActive:     true,
	}
}

func doLogin(t *testing.T, handler *auth.Handler, sessions *shared.SessionManager, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessions.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	routerOf(handler).ServeHTTP(res, req)
	if err := sessions.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	return res
}

func routerOf(handler *auth.Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	return r
}

func TestLoginInvalidCredentials(t *testing.T) {
	handler, sessions := newHandler(t, &stubRepo{user: hashedUser(t, "correct-password")})
	res := doLogin(t, handler, sessions, `{"email":"manager@test.local","password":"wrong-password"}`)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", res.Code)
	}
}

func TestLoginSuccessIssuesCSRFToken(t *testing.T) {
	handler, sessions := newHandler(t, &stubRepo{user: hashedUser(t, "correct-password")})
	res := doLogin(t, handler, sessions, `{"email":"manager@test.local","password":"correct-password"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", res.Code, res.Body.String())
	}
	var body struct {
		User      *auth.User `json:"user"`
		CSRFToken string     `json:"csrf_token"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.User == nil || body.User.ID != 1 {
		t.Fatalf("unexpected user payload: %+v", body.User)
	}
	if body.CSRFToken == "" {
		t.Fatalf("csrf token missing from login response")
	}
}

func TestLoginInactiveUser(t *testing.T) {
	user := hashedUser(t, "correct-password")
	user.IsActive = false
	handler, sessions := newHandler(t, &stubRepo{user: user})
	res := doLogin(t, handler, sessions, `{"email":"manager@test.local","password":"correct-password"}`)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", res.Code)
	}
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	handler, sessions := newHandler(t, &stubRepo{user: hashedUser(t, "correct-password")})
	res := doLogin(t, handler, sessions, `{"email":`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.Code)
	}
}
