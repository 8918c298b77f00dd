package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/exptrack/exptrack/internal/auth"
	"github.com/exptrack/exptrack/internal/metrics"
	"github.com/exptrack/exptrack/internal/model"
	"github.com/exptrack/exptrack/internal/notify"
	"github.com/exptrack/exptrack/internal/repository"
)

// AuthService handles registration and login.
type AuthService struct {
	users      UserStore
	tokens     TokenIssuer
	dispatcher WelcomeDispatcher
	metrics    metrics.Recorder
	now        func() time.Time
}

// NewAuthService creates a new AuthService. A nil dispatcher disables welcome notifications.
func NewAuthService(users UserStore, tokens TokenIssuer, dispatcher WelcomeDispatcher, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		dispatcher: dispatcher,
		metrics:    recorder,
		now:        time.Now,
	}
}

// RegisterInput defines input for registering an account.
// Fields are assumed to have passed request validation.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and returns a fresh token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (string, error) {
	email := NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrEmailExists
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return "", err
	}

	user := &model.User{
		ID:           newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return "", ErrEmailExists
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncUserRegistered()

	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(notify.Welcome{UserID: user.ID, Email: user.Email, Name: user.Name})
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

// Login checks credentials and returns a fresh token.
// Unknown email and wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLoginFailed()
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return "", err
	}
	if !ok {
		s.metrics.IncLoginFailed()
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.IncLoginSucceeded()
	return token, nil
}
