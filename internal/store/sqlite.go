package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/pbaille/pyq/internal/domain"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned when no user matches
var ErrNotFound = domain.ErrUserNotFound

// Store handles database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUser inserts a user with an already hashed password
func (s *Store) CreateUser(email, passwordHash string) (*domain.User, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	email = strings.TrimSpace(email)

	_, err := s.db.Exec(
		"INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		id, email, passwordHash, now,
	)
	if err != nil {
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

// GetUserByEmail looks a user up by email, ignoring case
func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	return s.getUser("email = ?", strings.TrimSpace(email))
}

func (s *Store) getUser(where string, arg any) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRow(
		"SELECT id, email, password_hash, created_at FROM users WHERE "+where,
		arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// ListUsers returns all users, newest first
func (s *Store) ListUsers() ([]domain.User, error) {
	rows, err := s.db.Query(
		"SELECT id, email, password_hash, created_at FROM users ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
