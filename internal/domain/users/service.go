// Package users is the credential store and session issuer of the events board.
//
// Core operations:
//   - Register: validates input, hashes the password with bcrypt and stores the account
//   - FindByEmail: case-insensitive lookup that reports a miss as (nil, nil)
//   - Login: verifies a password and issues a signed session token
//
// Emails are normalized (trimmed, lowercased) before every comparison, so two
// accounts can never differ only by letter case.
package users

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/auth"
	"github.com/Togather-Foundation/eventboard/internal/domain/ids"
	"github.com/Togather-Foundation/eventboard/internal/metrics"
	"github.com/Togather-Foundation/eventboard/internal/sanitize"
	"github.com/Togather-Foundation/eventboard/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound is returned by repositories when a lookup misses.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when the normalized email is already registered.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrInvalidCredentials is returned for every failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnknownIdentity and ErrBadSecret tell the two login failures apart
	// internally. Both match ErrInvalidCredentials.
	ErrUnknownIdentity = fmt.Errorf("%w: unknown identity", ErrInvalidCredentials)
	ErrBadSecret       = fmt.Errorf("%w: bad secret", ErrInvalidCredentials)
)

// Service handles registration and login.
type Service struct {
	repo       Repository
	sessions   *auth.SessionManager
	logger     zerolog.Logger
	validator  *validator.Validate
	bcryptCost int
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a user service. bcryptCost <= 0 selects auth.DefaultBcryptCost.
func NewService(repo Repository, sessions *auth.SessionManager, bcryptCost int, logger zerolog.Logger) *Service {
	if bcryptCost <= 0 {
		bcryptCost = auth.DefaultBcryptCost
	}
	return &Service{
		repo:       repo,
		sessions:   sessions,
		logger:     logger.With().Str("component", "users").Logger(),
		validator:  validation.New(),
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// Register creates a new account.
//
// Possible errors:
//   - validation.Errors: a required field is empty or malformed
//   - ErrEmailTaken: the normalized email already exists
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	params.Firstname = sanitize.Text(params.Firstname)
	params.Lastname = sanitize.Text(params.Lastname)
	params.Email = NormalizeEmail(params.Email)

	if err := validation.Struct(s.validator, params); err != nil {
		return nil, err
	}
	if len(params.Password) > auth.MaxPasswordBytes {
		return nil, validation.Errors{{Field: "password", Message: fmt.Sprintf("must be at most %d bytes", auth.MaxPasswordBytes)}}
	}

	existing, err := s.repo.GetUserByEmail(ctx, params.Email)
	if err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := auth.HashPassword(params.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	// The repository's unique index still guards against a concurrent
	// registration slipping past the check above.
	user, err := s.repo.CreateUser(ctx, CreateUserDBParams{
		ID:           ids.NewULID(),
		Firstname:    params.Firstname,
		Lastname:     params.Lastname,
		Email:        params.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	metrics.UsersRegistered.Inc()
	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("user registered")

	return user, nil
}

// FindByEmail looks a user up case-insensitively. A miss returns (nil, nil).
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.repo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByID returns the user with the given id or ErrUserNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.GetUserByID(ctx, ids.Normalize(id))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// List returns users ordered by creation time, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListUsers(ctx, limit, offset)
}

// Login verifies credentials and issues a session token.
//
// Unknown emails and wrong passwords return ErrUnknownIdentity and
// ErrBadSecret respectively; callers that must not leak account existence
// should test for ErrInvalidCredentials only. An unknown email still costs one
// bcrypt comparison so both failures take comparable time.
func (s *Service) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	if err := validation.Struct(s.validator, params); err != nil {
		return nil, err
	}
	email := NormalizeEmail(params.Email)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = auth.ComparePassword(s.placeholderHash(), params.Password)
			metrics.LoginAttempts.WithLabelValues("unknown_identity").Inc()
			s.logger.Warn().Str("email", email).Msg("login rejected: unknown identity")
			return nil, ErrUnknownIdentity
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := auth.ComparePassword(user.PasswordHash, params.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			metrics.LoginAttempts.WithLabelValues("bad_secret").Inc()
			s.logger.Warn().Str("user_id", user.ID).Msg("login rejected: bad secret")
			return nil, ErrBadSecret
		}
		return nil, err
	}

	token, expiresAt, err := s.sessions.Issue(user.Identity())
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *Service) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := auth.HashPassword("placeholder-password", s.bcryptCost)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
