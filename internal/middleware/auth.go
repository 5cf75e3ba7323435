package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/credentials"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/denylist"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/storage"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenKey    = "user"
	identityKey = "identity"

	// Bearer header first, then ?token= and the authToken cookie.
	tokenLookup = "header:Authorization,query:token,cookie:authToken"
)

var errTokenRevoked = errors.New("token revoked")

// Identity is attached to the request once the bearer token and its user
// have been verified.
type Identity struct {
	UserID    string
	Email     string
	Role      string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	User      *models.User
}

// CurrentIdentity returns the identity attached by Auth.Required or
// Auth.Optional.
func CurrentIdentity(c *fiber.Ctx) (*Identity, bool) {
	id, ok := c.Locals(identityKey).(*Identity)
	return id, ok && id != nil
}

type UserFinder interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// Auth verifies bearer tokens with the token manager, rejects denylisted
// tokens and loads the token's user.
type Auth struct {
	tokens  *credentials.TokenManager
	users   UserFinder
	revoked denylist.Denylist
}

func NewAuth(tokens *credentials.TokenManager, users UserFinder, revoked denylist.Denylist) *Auth {
	return &Auth{tokens: tokens, users: users, revoked: revoked}
}

// Required rejects the request with 401 at the first failing step.
func (a *Auth) Required() fiber.Handler {
	return jwtware.New(a.config(a.attach, a.reject))
}

// Optional attaches an identity when the request carries a usable token and
// otherwise continues anonymously.
func (a *Auth) Optional() fiber.Handler {
	return jwtware.New(a.config(
		func(c *fiber.Ctx) error {
			if id, err := a.identify(c); err == nil {
				c.Locals(identityKey, id)
			}
			return c.Next()
		},
		func(c *fiber.Ctx, _ error) error {
			return c.Next()
		},
	))
}

func (a *Auth) config(success fiber.Handler, failure fiber.ErrorHandler) jwtware.Config {
	return jwtware.Config{
		KeyFunc:        a.tokens.KeyFunc,
		Claims:         &credentials.Claims{},
		ContextKey:     tokenKey,
		TokenLookup:    tokenLookup,
		AuthScheme:     "Bearer",
		SuccessHandler: success,
		ErrorHandler:   failure,
	}
}

func (a *Auth) attach(c *fiber.Ctx) error {
	id, err := a.identify(c)
	switch {
	case err == nil:
		c.Locals(identityKey, id)
		return c.Next()
	case errors.Is(err, credentials.ErrTokenMalformed):
		return unauthorized(c, dto.CodeMalformedToken, "Access denied. Malformed token.")
	case errors.Is(err, errTokenRevoked):
		return unauthorized(c, dto.CodeTokenRevoked, "Access denied. Token has been revoked.")
	case errors.Is(err, storage.ErrNotFound):
		return unauthorized(c, dto.CodeUserNotFound, "Access denied. User not found.")
	default:
		return err
	}
}

// reject translates jwtware failures. A missing token or a header without
// the Bearer scheme counts as no token at all.
func (a *Auth) reject(c *fiber.Ctx, err error) error {
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		return unauthorized(c, dto.CodeNoToken, "Access denied. No token provided.")
	}
	if errors.Is(credentials.Classify(err), credentials.ErrTokenExpired) {
		return unauthorized(c, dto.CodeTokenExpired, "Access denied. Token has expired.")
	}
	slog.Debug("token rejected", "path", c.Path(), "error", err)
	return unauthorized(c, dto.CodeMalformedToken, "Access denied. Malformed token.")
}

func (a *Auth) identify(c *fiber.Ctx) (*Identity, error) {
	token, ok := c.Locals(tokenKey).(*jwt.Token)
	if !ok {
		return nil, credentials.ErrTokenMalformed
	}
	claims, ok := token.Claims.(*credentials.Claims)
	if !ok {
		return nil, credentials.ErrTokenMalformed
	}
	if err := a.tokens.CheckClaims(claims); err != nil {
		return nil, err
	}

	ctx := c.UserContext()
	revoked, err := a.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, errTokenRevoked
	}

	user, err := a.users.FindUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	id := &Identity{
		UserID:  user.ID,
		Email:   user.Email,
		Role:    user.Role,
		TokenID: claims.ID,
		User:    user,
	}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

func unauthorized(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.NewError(code, message))
}
