package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"finboard/internal/auth"
	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/store"
)

var ErrInvalidEmail = errors.New("a valid email address is required")

// Signup is the registration form.
type Signup struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Session is what a successful signup or signin hands back to the client.
type Session struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	User      core.User         `json:"user"`
	Profile   *core.UserProfile `json:"profile,omitempty"`
}

// AuthStore is the part of the store used to register and look up users.
type AuthStore interface {
	store.UserStore
	store.ProfileStore
}

type AuthService struct {
	store  AuthStore
	tokens *auth.Tokens
	logger *applog.Logger
}

func NewAuthService(st AuthStore, tokens *auth.Tokens, logger *applog.Logger) *AuthService {
	return &AuthService{store: st, tokens: tokens, logger: componentLogger(logger, applog.ComponentAuth)}
}

// Signup registers a user with its profile and returns a session. A taken
// email surfaces as store.ErrDuplicate.
func (s *AuthService) Signup(ctx context.Context, in Signup) (Session, error) {
	email, err := parseEmail(in.Email)
	if err != nil {
		return Session{}, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return Session{}, &core.ValidationError{Field: "password", Err: err}
		}
		return Session{}, err
	}

	user, err := s.store.CreateUser(ctx, core.User{Email: email, PasswordHash: hash})
	if err != nil {
		return Session{}, fmt.Errorf("create user: %w", err)
	}
	profile, err := s.store.CreateProfile(ctx, core.UserProfile{
		ID:        user.ID,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	})
	if err != nil {
		return Session{}, fmt.Errorf("create profile: %w", err)
	}

	s.logger.InfoContext(ctx, "User signed up", applog.FieldOwner, user.ID)
	sess, err := s.session(user)
	if err != nil {
		return Session{}, err
	}
	sess.Profile = &profile
	return sess, nil
}

// Signin checks the credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Signin(ctx context.Context, email, password string) (Session, error) {
	user, err := s.store.GetUserByEmail(ctx, store.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, auth.ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		s.logger.WarnContext(ctx, "Failed signin", applog.FieldOwner, user.ID)
		return Session{}, err
	}
	return s.session(user)
}

func (s *AuthService) session(user core.User) (Session, error) {
	token, exp, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, ExpiresAt: exp, User: user}, nil
}

func parseEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return "", &core.ValidationError{Field: "email", Err: ErrInvalidEmail}
	}
	return store.NormalizeEmail(addr.Address), nil
}
