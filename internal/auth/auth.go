// Package auth registers users, issues bearer tokens and guards routes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pbaille/pyq/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMissingFields is returned when email or password is empty
	ErrMissingFields = errors.New("email and password are required")
	ErrInvalidEmail  = errors.New("invalid email")
)

// UserStore persists accounts. GetUserByEmail reports a missing account
// with domain.ErrUserNotFound.
type UserStore interface {
	CreateUser(email, passwordHash string) (*domain.User, error)
	GetUserByEmail(email string) (*domain.User, error)
}

// Service handles registration, login and token checks
type Service struct {
	users  UserStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New creates a Service signing tokens with secret, valid for ttl
func New(users UserStore, secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{users: users, secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Register creates an account
func (s *Service) Register(email, password string) (*domain.User, error) {
	return Register(s.users, email, password)
}

// Register validates the credentials and stores a user with a hashed
// password. It needs no token secret, so offline tools can call it.
func Register(users UserStore, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEmail, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return users.CreateUser(email, string(hash))
}

// Login checks credentials and returns a signed token
func (s *Service) Login(email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", ErrMissingFields
	}
	u, err := s.users.GetUserByEmail(email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}
	return s.Issue(u.ID)
}

// Issue signs a token for userID
func (s *Service) Issue(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify returns the user id carried by a valid token
func (s *Service) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || claims.Subject == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}

type userKey struct{}

// WithUser stores the authenticated user id in ctx
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserID returns the authenticated user id, if any
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey{}).(string)
	return id, ok
}
