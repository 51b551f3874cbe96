package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/furnimarket-backend/internal/reqctx"
)

const (
	uidKey          = "uid"
	DevUserIDHeader = "X-User-Id"
)

// TokenVerifier is satisfied by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type AuthMiddleware struct {
	verifier   TokenVerifier
	authClient *auth.Client
}

// NewAuthMiddleware builds a Firebase backed middleware for projectID.
func NewAuthMiddleware(ctx context.Context, projectID string) (*AuthMiddleware, error) {
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is not set")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &AuthMiddleware{verifier: client, authClient: client}, nil
}

// NewVerifierMiddleware wraps an arbitrary verifier. Client returns nil.
func NewVerifierMiddleware(v TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: v}
}

// NewDevAuthMiddleware trusts the X-User-Id header. Local development only.
func NewDevAuthMiddleware() *AuthMiddleware {
	return &AuthMiddleware{}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := m.identify(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
		}
		if uid == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		setUser(c, uid)
		return next(c)
	}
}

// OptionalAuth attaches the user when credentials are present and valid and
// lets anonymous requests through. Invalid credentials are still rejected.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := m.identify(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
		}
		if uid != "" {
			setUser(c, uid)
		}
		return next(c)
	}
}

func (m *AuthMiddleware) Client() *auth.Client {
	return m.authClient
}

func (m *AuthMiddleware) identify(c echo.Context) (string, error) {
	if m.verifier == nil {
		return strings.TrimSpace(c.Request().Header.Get(DevUserIDHeader)), nil
	}
	authz := c.Request().Header.Get("Authorization")
	if authz == "" {
		return "", nil
	}
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", errors.New("unauthorized")
	}
	tokenStr := strings.TrimPrefix(authz, "Bearer ")
	token, err := m.verifier.VerifyIDToken(c.Request().Context(), tokenStr)
	if err != nil {
		return "", errors.New("invalid_token")
	}
	return token.UID, nil
}

func setUser(c echo.Context, uid string) {
	c.Set(uidKey, uid)
	req := c.Request()
	c.SetRequest(req.WithContext(reqctx.WithUserID(req.Context(), uid)))
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c echo.Context) string {
	uid, _ := c.Get(uidKey).(string)
	return uid
}
