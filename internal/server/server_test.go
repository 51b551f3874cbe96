package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/shinyyama/furnimarket-backend/internal/db"
	"github.com/shinyyama/furnimarket-backend/internal/metrics"
	appmw "github.com/shinyyama/furnimarket-backend/internal/middleware"
	"github.com/shinyyama/furnimarket-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWithAuth(t, appmw.NewDevAuthMiddleware())
}

func newTestServerWithAuth(t *testing.T, authMw *appmw.AuthMiddleware) *Server {
	t.Helper()
	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "srv.db"), nil)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	s, err := New(Deps{
		Store:               repository.NewStore(gdb),
		Metrics:             metrics.New(),
		Auth:                authMw,
		CORSAllowedSuffixes: []string{"vercel.app"},
		GitSHA:              "abc123",
	})
	require.NoError(t, err)
	return s
}

func request(s *Server, method, path, uid, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if uid != "" {
		req.Header.Set(appmw.DevUserIDHeader, uid)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := request(s, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"git_sha":"abc123"`)
	assert.NotEmpty(t, rec.Header().Get(appmw.RequestIDHeader))
}

func TestMetricsExposeToggles(t *testing.T) {
	s := newTestServer(t)
	body := `{"title":"Sofá","price":250000,"image":"uri://1","whatsapp":"+5511999999999"}`
	require.Equal(t, http.StatusCreated, request(s, http.MethodPost, "/api/items", "u1", body).Code)
	require.Equal(t, http.StatusOK, request(s, http.MethodPost, "/api/items/1/favorite", "u2", "").Code)

	rec := request(s, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `furnimarket_favorite_toggles_total{state="on"} 1`)
}

func TestPutUpdatesLikePatch(t *testing.T) {
	s := newTestServer(t)
	body := `{"title":"Mesa","price":1000,"image":"uri://2","whatsapp":"+55"}`
	require.Equal(t, http.StatusCreated, request(s, http.MethodPost, "/api/items", "u1", body).Code)

	rec := request(s, http.MethodPut, "/api/items/1", "u1", `{"title":"Mesa de jantar"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Mesa de jantar"`)
}

func TestOriginAllowed(t *testing.T) {
	allow := originAllowed([]string{"vercel.app", " example.com"})
	cases := map[string]bool{
		"http://localhost:3000":       true,
		"https://127.0.0.1:8443":      true,
		"https://shop.vercel.app":     true,
		"https://www.example.com":     true,
		"https://evil.com":            false,
		"ftp://shop.vercel.app":       false,
		"https://vercel.app.evil.com": false,
	}
	for origin, want := range cases {
		got, err := allow(origin)
		require.NoError(t, err)
		assert.Equal(t, want, got, origin)
	}
}

func TestNewRequiresAuth(t *testing.T) {
	s, err := New(Deps{})
	require.ErrorIs(t, err, ErrNoAuth)
	assert.Nil(t, s)
}

type tokenVerifier map[string]string

func (v tokenVerifier) VerifyIDToken(_ context.Context, token string) (*auth.Token, error) {
	if uid, ok := v[token]; ok {
		return &auth.Token{UID: uid}, nil
	}
	return nil, errors.New("invalid token")
}

func TestTokenAuthIgnoresDevHeader(t *testing.T) {
	s := newTestServerWithAuth(t, appmw.NewVerifierMiddleware(tokenVerifier{"tok-u1": "u1"}))
	body := `{"title":"Sofá","price":250000,"image":"uri://1","whatsapp":"+5511999999999"}`

	rec := request(s, http.MethodPost, "/api/items", "u1", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer tok-u1")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = request(s, http.MethodDelete, "/api/items/1", "u1", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = request(s, http.MethodGet, "/api/items/1", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
