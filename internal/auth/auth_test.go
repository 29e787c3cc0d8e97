package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pbaille/pyq/internal/domain"
)

type memUsers struct {
	byEmail map[string]*domain.User
}

func (m *memUsers) CreateUser(email, hash string) (*domain.User, error) {
	if _, ok := m.byEmail[strings.ToLower(email)]; ok {
		return nil, domain.ErrUserExists
	}
	u := &domain.User{ID: "u-" + email, Email: email, PasswordHash: hash}
	m.byEmail[strings.ToLower(email)] = u
	return u, nil
}

func (m *memUsers) GetUserByEmail(email string) (*domain.User, error) {
	u, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func newService(t *testing.T) *Service {
	t.Helper()
	s, err := New(&memUsers{byEmail: map[string]*domain.User{}}, "secret", time.Hour)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return s
}

func TestRegisterAndLogin(t *testing.T) {
	s := newService(t)

	u, err := s.Register("student@example.com", "hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.PasswordHash == "hunter2" {
		t.Error("password must be stored hashed")
	}

	token, err := s.Login("student@example.com", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	id, err := s.Verify(token)
	if err != nil || id != u.ID {
		t.Errorf("verify = %q, %v", id, err)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newService(t)
	if _, err := s.Register("", "pw"); !errors.Is(err, ErrMissingFields) {
		t.Errorf("expected missing fields, got %v", err)
	}
	if _, err := s.Register("not-an-email", "pw"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}
	s.Register("a@example.com", "pw")
	if _, err := s.Register("a@example.com", "pw"); !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	s := newService(t)
	s.Register("a@example.com", "right")

	for _, tc := range [][2]string{{"a@example.com", "wrong"}, {"b@example.com", "right"}} {
		if _, err := s.Login(tc[0], tc[1]); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Errorf("login(%s): expected invalid credentials, got %v", tc[0], err)
		}
	}
}

type brokenUsers struct{ err error }

func (b brokenUsers) CreateUser(string, string) (*domain.User, error) { return nil, b.err }
func (b brokenUsers) GetUserByEmail(string) (*domain.User, error)    { return nil, b.err }

func TestLoginStoreFailure(t *testing.T) {
	outage := errors.New("database is closed")
	s, err := New(brokenUsers{outage}, "secret", time.Hour)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = s.Login("a@example.com", "pw")
	if !errors.Is(err, outage) || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("store failure should pass through, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	s := newService(t)
	token, err := s.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := s.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("expected invalid token, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	s := newService(t)
	other, _ := New(&memUsers{byEmail: map[string]*domain.User{}}, "other", time.Hour)
	token, _ := other.Issue("u1")
	if _, err := s.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("expected invalid token, got %v", err)
	}
}

func TestRequire(t *testing.T) {
	s := newService(t)
	token, _ := s.Issue("u1")

	h := s.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := UserID(r.Context())
		w.Write([]byte(id))
	}))

	tests := []struct {
		header string
		status int
		body   string
	}{
		{"", http.StatusUnauthorized, `"message":"Authorization token is required."`},
		{"Basic abc", http.StatusUnauthorized, `"message":"Authorization token is required."`},
		{"Bearer garbage", http.StatusUnauthorized, `"message":"Invalid or expired token."`},
		{"Bearer " + token, http.StatusOK, "u1"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/organize", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != tt.status || !strings.Contains(rec.Body.String(), tt.body) {
			t.Errorf("header %q: got %d %q", tt.header, rec.Code, rec.Body.String())
		}
	}
}
