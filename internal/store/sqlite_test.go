package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/pbaille/pyq/internal/domain"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "pyq.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetUser(t *testing.T) {
	s := newStore(t)

	u, err := s.CreateUser("student@example.com", "hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == "" {
		t.Error("expected generated id")
	}

	got, err := s.GetUserByEmail("STUDENT@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != u.ID || got.PasswordHash != "hash" {
		t.Errorf("unexpected user %+v", got)
	}
	if got.Email != "student@example.com" {
		t.Errorf("email should keep its original case, got %s", got.Email)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	s := newStore(t)
	if _, err := s.CreateUser("a@example.com", "h"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateUser("A@example.com", "h"); !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newStore(t)
	if _, err := s.GetUserByEmail("nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	s := newStore(t)
	for _, e := range []string{"a@example.com", "b@example.com"} {
		if _, err := s.CreateUser(e, "h"); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	users, err := s.ListUsers()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}
}
