package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/credentials"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/denylist"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/validation"
)

// ClientInfo is the request metadata persisted with sessions and
// applications.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type AuthOptions struct {
	MaxLoginAttempts int
	LockDuration     time.Duration
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type AuthService struct {
	store         storage.Store
	hasher        *credentials.Hasher
	tokens        *credentials.TokenManager
	revoked       denylist.Denylist
	logins        *credentials.AttemptTracker
	registrations *credentials.AttemptTracker
	opts          AuthOptions
	now           func() time.Time
}

func NewAuthService(store storage.Store, hasher *credentials.Hasher, tokens *credentials.TokenManager, revoked denylist.Denylist, opts AuthOptions) *AuthService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		store:         store,
		hasher:        hasher,
		tokens:        tokens,
		revoked:       revoked,
		logins:        credentials.NewAttemptTracker(opts.MaxLoginAttempts, opts.LockDuration, now),
		registrations: credentials.NewAttemptTracker(opts.MaxLoginAttempts, opts.LockDuration, now),
		opts:          opts,
		now:           now,
	}
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest, client ClientInfo) (*dto.AuthData, error) {
	const op = "services.AuthService.Register"

	if decision := s.registrations.Check(client.IP); !decision.Allowed {
		return nil, &RateLimitedError{RetryAfter: decision.RetryAfter}
	}

	if _, err := s.store.FindUserByEmail(ctx, req.Email); err == nil {
		s.registrations.RecordFailure(client.IP)
		return nil, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: find user: %w", op, err)
	}

	if strength := credentials.CheckStrength(req.Password); !strength.Valid {
		return nil, &WeakPasswordError{Strength: strength}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	user := &models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  hash,
		Phone:     req.Phone,
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.DateOfBirth != "" {
		dob, err := validation.ParseDate(req.DateOfBirth)
		if err != nil {
			return nil, fmt.Errorf("%s: parse date of birth: %w", op, err)
		}
		user.DateOfBirth = &dob
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%s: create user: %w", op, err)
	}

	data, err := s.startSession(ctx, user, client)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.registrations.Clear(client.IP)

	slog.Info("user registered", "op", op, "user_id", user.ID)
	return data, nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest, client ClientInfo) (*dto.AuthData, error) {
	const op = "services.AuthService.Login"

	if decision := s.logins.Check(req.Email); !decision.Allowed {
		return nil, &LockedError{RetryAfter: decision.RetryAfter}
	}

	user, err := s.store.FindUserByEmail(ctx, req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		s.logins.RecordFailure(req.Email)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%s: find user: %w", op, err)
	}

	now := s.now()
	if user.Locked(now) {
		return nil, &LockedError{RetryAfter: user.LockUntil.Sub(now)}
	}
	if user.LockUntil != nil {
		// an expired lock starts a fresh count
		user.LockUntil = nil
		user.LoginAttempts = 0
	}

	if !s.hasher.Compare(user.Password, req.Password) {
		s.logins.RecordFailure(req.Email)
		s.recordFailedLogin(ctx, user, now)
		return nil, ErrInvalidCredentials
	}

	s.logins.Clear(req.Email)
	user.LoginAttempts = 0
	user.LockUntil = nil
	user.LastLogin = &now
	user.UpdatedAt = now
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: update user: %w", op, err)
	}

	data, err := s.startSession(ctx, user, client)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slog.Info("user logged in", "op", op, "user_id", user.ID)
	return data, nil
}

// recordFailedLogin persists the attempt counter on the user so the lock
// survives a restart. Failures here never change the login outcome.
func (s *AuthService) recordFailedLogin(ctx context.Context, user *models.User, now time.Time) {
	user.LoginAttempts++
	if s.opts.MaxLoginAttempts > 0 && user.LoginAttempts >= s.opts.MaxLoginAttempts {
		until := now.Add(s.opts.LockDuration)
		user.LockUntil = &until
	}
	user.UpdatedAt = now
	if err := s.store.UpdateUser(ctx, user); err != nil {
		slog.Error("failed to record login attempt", "op", "services.AuthService.Login", "user_id", user.ID, "error", err)
	}
}

// Logout ends the session that issued tokenID and denylists the token until
// it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) (*dto.LogoutData, error) {
	const op = "services.AuthService.Logout"

	sess, err := s.store.FindSessionByTokenID(ctx, tokenID)
	switch {
	case err == nil:
		if err := s.store.DeleteSession(ctx, sess.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: delete session: %w", op, err)
		}
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("%s: find session: %w", op, err)
	}

	if err := s.revoked.Revoke(ctx, tokenID, expiresAt); err != nil {
		return nil, fmt.Errorf("%s: revoke token: %w", op, err)
	}

	return &dto.LogoutData{LoggedOutAt: s.now()}, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself stays valid until the session expires; the access token it
// replaces is denylisted.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.RefreshData, error) {
	const op = "services.AuthService.Refresh"

	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	sess, err := s.store.FindSessionByRefreshHash(ctx, credentials.HashToken(refreshToken))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, fmt.Errorf("%s: find session: %w", op, err)
	}

	now := s.now()
	if sess.Expired(now) {
		if err := s.store.DeleteSession(ctx, sess.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("failed to delete expired session", "op", op, "user_id", sess.UserID, "error", err)
		}
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.store.FindUserByID(ctx, sess.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: find user: %w", op, err)
	}

	access, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	previous := sess.TokenID
	sess.TokenID = access.ID
	sess.UpdatedAt = now
	if err := s.store.UpdateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("%s: update session: %w", op, err)
	}
	if previous != "" {
		// the old token was issued at most one access TTL ago
		if err := s.revoked.Revoke(ctx, previous, now.Add(s.opts.AccessTTL)); err != nil {
			slog.Warn("failed to revoke replaced access token", "op", op, "user_id", user.ID, "error", err)
		}
	}

	return &dto.RefreshData{
		AccessToken: access.Token,
		ExpiresIn:   dto.FormatDuration(s.opts.AccessTTL),
	}, nil
}

func (s *AuthService) startSession(ctx context.Context, user *models.User, client ClientInfo) (*dto.AuthData, error) {
	access, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := credentials.NewRefreshToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess := &models.Session{
		UserID:           user.ID,
		TokenID:          access.ID,
		RefreshTokenHash: credentials.HashToken(refresh),
		UserAgent:        client.UserAgent,
		IPAddress:        client.IP,
		ExpiresAt:        now.Add(s.opts.RefreshTTL),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &dto.AuthData{
		User: dto.NewUserResponse(user),
		Tokens: dto.TokensResponse{
			AccessToken:  access.Token,
			RefreshToken: refresh,
			ExpiresIn:    dto.FormatDuration(s.opts.AccessTTL),
		},
	}, nil
}
