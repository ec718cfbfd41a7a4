// Package auth contains a local credential-check simulation. Registered
// users live in the same durable key-value storage as the posts state and
// logins are verified against a bcrypt hash. The issued access token is a
// plain base64 payload, not a signed JWT, and must not be treated as a
// security boundary: the package only produces a user id and an
// is-authenticated signal for the rest of the application.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Rabinkhulimuli/blog-post-web-app/internal/storage"
)

var log = logrus.WithField("layer", "auth")

const usersKey = "auth:users"
const tokenTTL = time.Hour

var (
	// ErrEmailExists ...
	ErrEmailExists = errors.New("email already registered")
	// ErrUserNotFound ...
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials ...
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput ...
	ErrInvalidInput = errors.New("invalid input")
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nameRegex     = regexp.MustCompile(`^[\p{L}0-9 _-]{2,50}$`)
	passwordRegex = regexp.MustCompile(`^.{6,72}$`)
)

// User ...
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	// Password is a bcrypt hash, never the plain text.
	Password string `json:"password"`
}

// Service ...
type Service struct {
	s   storage.Storage
	now func() time.Time
}

// New creates new instance of Service.
func New(s storage.Storage) *Service {
	return &Service{
		s:   s,
		now: time.Now,
	}
}

// ValidateCredentials checks registration input.
func ValidateCredentials(name, email, password string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%w: invalid name format or length (2-50 characters)", ErrInvalidInput)
	}
	if !passwordRegex.MatchString(password) {
		return fmt.Errorf("%w: invalid password length (6-72 characters)", ErrInvalidInput)
	}
	return nil
}

// Register stores a new user with a hashed password.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	if err := ValidateCredentials(name, email, password); err != nil {
		return User{}, err
	}

	users, err := s.users(ctx)
	if err != nil {
		return User{}, err
	}

	if _, ok := users[email]; ok {
		return User{}, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u := User{
		ID:       uuid.New().String(),
		Name:     name,
		Email:    email,
		Password: string(hash),
	}

	users[email] = u
	if err := s.save(ctx, users); err != nil {
		return User{}, err
	}

	log.WithField("email", email).Info("user registered")

	return u, nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (User, string, error) {
	users, err := s.users(ctx)
	if err != nil {
		return User{}, "", err
	}

	u, ok := users[email]
	if !ok {
		return User{}, "", ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return User{}, "", ErrInvalidCredentials
	}

	return u, s.token(u), nil
}

// token mimics the client-side stand-in the application started with: a
// base64 encoded JSON payload with an expiry, no signature.
func (s *Service) token(u User) string {
	payload := struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Exp   int64  `json:"exp"`
	}{
		ID:    u.ID,
		Email: u.Email,
		Exp:   s.now().Add(tokenTTL).Unix(),
	}

	b, _ := json.Marshal(payload) // nolint: errcheck

	return base64.StdEncoding.EncodeToString(b)
}

func (s *Service) users(ctx context.Context) (map[string]User, error) {
	b, err := s.s.Get(ctx, usersKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return map[string]User{}, nil
		}

		return nil, fmt.Errorf("failed to read users: %w", err)
	}

	var users map[string]User
	if err := json.Unmarshal(b, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	if users == nil {
		users = map[string]User{}
	}

	return users, nil
}

func (s *Service) save(ctx context.Context, users map[string]User) error {
	b, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("failed to marshal users: %w", err)
	}

	if err := s.s.Set(ctx, usersKey, b); err != nil {
		return fmt.Errorf("failed to write users: %w", err)
	}

	return nil
}
