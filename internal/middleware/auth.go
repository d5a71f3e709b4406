package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/localbid-backend/internal/handler"
	"github.com/shinyyama/localbid-backend/internal/reqctx"
)

const (
	// UserIDHeader identifies the caller when no token verifier is configured.
	UserIDHeader = "X-User-Id"
	// userIDClaim is the custom claim holding the marketplace user id.
	userIDClaim = "user_id"
)

type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

// NewAuthMiddleware verifies Firebase ID tokens when projectID is set and
// otherwise trusts the X-User-Id header.
func NewAuthMiddleware(ctx context.Context, projectID string) (*AuthMiddleware, error) {
	if projectID == "" {
		return &AuthMiddleware{}, nil
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &AuthMiddleware{verifier: client}, nil
}

func NewAuthMiddlewareWithVerifier(v TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: v}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := m.resolve(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("UNAUTHORIZED", err.Error()))
		}
		c.Set("uid", uid)
		req := c.Request()
		c.SetRequest(req.WithContext(reqctx.WithUserID(req.Context(), uid)))
		return next(c)
	}
}

func (m *AuthMiddleware) resolve(c echo.Context) (uint64, error) {
	if m.verifier == nil {
		return parseUserID(c.Request().Header.Get(UserIDHeader))
	}
	authz := c.Request().Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return 0, errors.New("missing bearer token")
	}
	token, err := m.verifier.VerifyIDToken(c.Request().Context(), strings.TrimPrefix(authz, "Bearer "))
	if err != nil {
		return 0, errors.New("invalid token")
	}
	switch v := token.Claims[userIDClaim].(type) {
	case float64:
		if v > 0 && v == float64(uint64(v)) {
			return uint64(v), nil
		}
	case string:
		return parseUserID(v)
	}
	return 0, fmt.Errorf("token has no %s claim", userIDClaim)
}

func parseUserID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("missing user id")
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid user id")
	}
	return id, nil
}
