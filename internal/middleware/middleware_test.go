package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/furnimarket-backend/internal/logger"
	"github.com/shinyyama/furnimarket-backend/internal/reqctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier map[string]string

func (s stubVerifier) VerifyIDToken(_ context.Context, token string) (*auth.Token, error) {
	uid, ok := s[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &auth.Token{UID: uid}, nil
}

func serve(t *testing.T, mw echo.MiddlewareFunc, header http.Header) (*httptest.ResponseRecorder, string, string) {
	t.Helper()
	e := echo.New()
	var gotUID, gotCtxUID string
	e.GET("/", func(c echo.Context) error {
		gotUID = UserID(c)
		gotCtxUID = reqctx.UserID(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	}, mw)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, gotUID, gotCtxUID
}

func TestRequireAuth(t *testing.T) {
	m := NewVerifierMiddleware(stubVerifier{"good": "u1"})

	rec, uid, ctxUID := serve(t, m.RequireAuth, http.Header{"Authorization": {"Bearer good"}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u1", uid)
	assert.Equal(t, "u1", ctxUID)

	rec, _, _ = serve(t, m.RequireAuth, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _, _ = serve(t, m.RequireAuth, http.Header{"Authorization": {"Bearer nope"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_token")

	rec, _, _ = serve(t, m.RequireAuth, http.Header{"Authorization": {"Basic abc"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuth(t *testing.T) {
	m := NewVerifierMiddleware(stubVerifier{"good": "u1"})

	rec, uid, _ := serve(t, m.OptionalAuth, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, uid)

	rec, uid, _ = serve(t, m.OptionalAuth, http.Header{"Authorization": {"Bearer good"}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u1", uid)

	rec, _, _ = serve(t, m.OptionalAuth, http.Header{"Authorization": {"Bearer nope"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDevAuthUsesHeader(t *testing.T) {
	m := NewDevAuthMiddleware()
	assert.Nil(t, m.Client())

	rec, uid, _ := serve(t, m.RequireAuth, http.Header{DevUserIDHeader: {"dev-1"}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "dev-1", uid)

	rec, _, _ = serve(t, m.RequireAuth, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestIDAndAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWriter(&buf, "test", "info", false)
	t.Cleanup(func() { logger.Init("test", "info", false) })

	e := echo.New()
	e.Use(RequestID, AccessLog)
	var rid string
	e.GET("/ping", func(c echo.Context) error {
		rid = reqctx.RID(c.Request().Context())
		return c.String(http.StatusOK, "pong")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rid)
	assert.Equal(t, rid, rec.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"rid":"`+rid+`"`)
	assert.Contains(t, buf.String(), `"path":"/ping"`)
	assert.Contains(t, buf.String(), `"status":200`)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rid)
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}
