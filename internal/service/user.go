package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Vicae-a/Blog/internal/auth"
	"github.com/Vicae-a/Blog/internal/cache"
	"github.com/Vicae-a/Blog/internal/metrics"
	"github.com/Vicae-a/Blog/internal/model"
	"github.com/Vicae-a/Blog/internal/repository"
)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User    *model.User
	Token   string
	Session *model.Session
}

// UserService handles registration, login and profile changes.
type UserService struct {
	users    UserRepository
	sessions SessionStore
	tokens   *auth.TokenIssuer
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewUserService creates a new UserService.
func NewUserService(users UserRepository, sessions SessionStore, tokens *auth.TokenIssuer, logger *slog.Logger, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		logger:   logger.With("component", "service.user"),
		metrics:  recorder,
	}
}

// RegisterInput defines input for creating an account.
type RegisterInput struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8,eqfield=PasswordConfirmation"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Register creates a user and opens a session for it.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)

	if err := validateStruct(input).Err(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{Name: input.Name, Email: input.Email, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, FieldError("email", "The email has already been taken.")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.IncUserRegistered()
	s.logger.Info("user registered", "user_id", user.ID)

	return s.openSession(ctx, user)
}

// LoginInput defines credentials for Login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and opens a session.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	input.Email = normalizeEmail(input.Email)
	if err := validateStruct(input).Err(); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLogin(metrics.OutcomeFailed)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	ok, err := auth.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		s.logger.Warn("stored password hash unreadable", "user_id", user.ID, "error", err)
	}
	if !ok {
		s.metrics.IncLogin(metrics.OutcomeFailed)
		return nil, ErrInvalidCredentials
	}

	if auth.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user, input.Password)
	}

	s.metrics.IncLogin(metrics.OutcomeSuccess)
	return s.openSession(ctx, user)
}

// upgradeHash replaces a legacy hash with argon2id. Failures only log.
func (s *UserService) upgradeHash(ctx context.Context, user *model.User, password string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Warn("password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
	if err := s.users.UpdateUser(ctx, user); err != nil {
		s.logger.Warn("password rehash not saved", "user_id", user.ID, "error", err)
	}
}

// Authenticate resolves a bearer token into a live session.
func (s *UserService) Authenticate(ctx context.Context, token string) (*model.Session, error) {
	parsed, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	session, err := s.sessions.GetSession(ctx, parsed.ID)
	if err != nil {
		if errors.Is(err, cache.ErrSessionNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.UserID != parsed.UserID {
		return nil, ErrUnauthenticated
	}

	return session, nil
}

// Logout revokes session.
func (s *UserService) Logout(ctx context.Context, session *model.Session) error {
	if session == nil {
		return ErrUnauthenticated
	}
	if err := s.sessions.DeleteSession(ctx, session); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info("user logged out", "user_id", session.UserID)
	return nil
}

// Me returns the user behind userID.
func (s *UserService) Me(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfileInput defines a partial profile change.
type UpdateProfileInput struct {
	Name                 *string `json:"name" validate:"omitnil,min=1,max=255"`
	Email                *string `json:"email" validate:"omitnil,email,max=255"`
	Password             *string `json:"password" validate:"omitnil,min=8"`
	PasswordConfirmation *string `json:"password_confirmation"`
}

// UpdateProfile applies a partial update. Changing the password revokes
// every other session of the user.
func (s *UserService) UpdateProfile(ctx context.Context, session *model.Session, input UpdateProfileInput) (*model.User, error) {
	if session == nil {
		return nil, ErrUnauthenticated
	}

	user, err := s.Me(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		v := strings.TrimSpace(*input.Name)
		input.Name = &v
	}
	if input.Email != nil {
		v := normalizeEmail(*input.Email)
		input.Email = &v
	}

	verr := validateStruct(input)
	if input.Password != nil && !verr.Has("password") {
		if input.PasswordConfirmation == nil || *input.PasswordConfirmation != *input.Password {
			verr.Add("password", "The password confirmation does not match.")
		}
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return nil, FieldError("email", "The email has already been taken.")
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	if input.Password != nil {
		revoked, err := s.sessions.RevokeUserSessions(ctx, user.ID, session.ID)
		if err != nil {
			s.logger.Warn("session revocation failed", "user_id", user.ID, "error", err)
		} else if revoked > 0 {
			s.logger.Info("sessions revoked after password change", "user_id", user.ID, "count", revoked)
		}
	}

	return user, nil
}

func (s *UserService) openSession(ctx context.Context, user *model.User) (*AuthResult, error) {
	token, session, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &AuthResult{User: user, Token: token, Session: session}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
