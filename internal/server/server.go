package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shinyyama/furnimarket-backend/internal/handler"
	"github.com/shinyyama/furnimarket-backend/internal/metrics"
	appmw "github.com/shinyyama/furnimarket-backend/internal/middleware"
	"github.com/shinyyama/furnimarket-backend/internal/repository"
	"github.com/shinyyama/furnimarket-backend/internal/service"
)

var ErrNoAuth = errors.New("server: auth middleware is required")

// Deps carries everything the HTTP layer needs. Fetcher, Captioner and Users
// are optional.
type Deps struct {
	Store     *repository.Store
	Metrics   *metrics.Registry
	Auth      *appmw.AuthMiddleware
	Fetcher   service.ImageFetcher
	Captioner service.Captioner
	Users     handler.UserLookup

	CORSAllowedSuffixes []string
	GitSHA              string
	BuildTime           string
}

type Server struct {
	e *echo.Echo
}

func New(d Deps) (*Server, error) {
	if d.Auth == nil {
		return nil, ErrNoAuth
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(appmw.RequestID)
	e.Use(appmw.AccessLog)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", appmw.RequestIDHeader},
		ExposeHeaders:    []string{appmw.RequestIDHeader},
		AllowCredentials: true,
		AllowOriginFunc:  originAllowed(d.CORSAllowedSuffixes),
	}))

	itemSvc := service.NewItemService(d.Store, d.Fetcher, d.Captioner, d.Metrics)
	viewSvc := service.NewViewService(d.Store, d.Metrics)
	itemHandler := handler.NewItemHandler(itemSvc, viewSvc)

	e.GET("/healthz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		resp := map[string]string{
			"ok":         "true",
			"db":         "ok",
			"git_sha":    d.GitSHA,
			"build_time": d.BuildTime,
		}
		if err := d.Store.Ping(ctx); err != nil {
			resp["ok"] = "false"
			resp["db"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
		return c.JSON(http.StatusOK, resp)
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Metrics.Gatherer(), promhttp.HandlerOpts{})))

	authMw := d.Auth
	api := e.Group("/api")
	api.GET("/items", itemHandler.List, authMw.OptionalAuth)
	api.GET("/items/:id", itemHandler.Get, authMw.OptionalAuth)
	api.POST("/items", itemHandler.Create, authMw.RequireAuth)
	api.POST("/items/describe", itemHandler.Describe, authMw.RequireAuth)
	api.PATCH("/items/:id", itemHandler.Update, authMw.RequireAuth)
	api.PUT("/items/:id", itemHandler.Update, authMw.RequireAuth)
	api.DELETE("/items/:id", itemHandler.Delete, authMw.RequireAuth)
	api.POST("/items/:id/favorite", itemHandler.ToggleFavorite, authMw.RequireAuth)
	api.GET("/me/items", itemHandler.ListMine, authMw.RequireAuth)
	api.GET("/me/favorites", itemHandler.ListFavorites, authMw.RequireAuth)
	if d.Users != nil {
		api.GET("/users/:uid/public", handler.NewUserHandler(d.Users).GetPublic)
	}

	return &Server{e: e}, nil
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// originAllowed accepts localhost on any port and any host ending in one of
// suffixes.
func originAllowed(suffixes []string) func(string) (bool, error) {
	return func(origin string) (bool, error) {
		low := strings.ToLower(origin)
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true, nil
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false, nil
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false, nil
		}
		host := u.Hostname()
		for _, suffix := range suffixes {
			suffix = strings.TrimSpace(suffix)
			if suffix != "" && strings.HasSuffix(host, suffix) {
				return true, nil
			}
		}
		return false, nil
	}
}
