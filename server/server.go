// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/mlmentor/mlmentor/ai/assistant"
	"github.com/mlmentor/mlmentor/ai/metrics"
	"github.com/mlmentor/mlmentor/internal/profile"
	"github.com/mlmentor/mlmentor/internal/version"
	"github.com/mlmentor/mlmentor/store"
)

// maxConcurrentTurns bounds how many graph turns run at once; further
// requests wait on the semaphore.
const maxConcurrentTurns = 4

// Server is the HTTP server for the assistant API.
type Server struct {
	e *echo.Echo

	Profile *profile.Profile
	Store   *store.Store

	graph         *assistant.Graph
	exporter      *metrics.PrometheusExporter
	secret        string
	turnSemaphore *semaphore.Weighted
}

// NewServer creates the HTTP server. graph may be nil when AI is not
// configured; message endpoints then reply 503.
func NewServer(prof *profile.Profile, st *store.Store, graph *assistant.Graph, exporter *metrics.PrometheusExporter) (*Server, error) {
	if prof.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
	}))
	e.Use(requestLogger())

	s := &Server{
		e:             e,
		Profile:       prof,
		Store:         st,
		graph:         graph,
		exporter:      exporter,
		secret:        prof.JWTSecret,
		turnSemaphore: semaphore.NewWeighted(maxConcurrentTurns),
	}

	e.GET("/healthz", s.healthz)
	if exporter != nil {
		e.GET("/metrics", echo.WrapHandler(exporter.Handler()))
	}

	apiV1 := e.Group("/api/v1")
	apiV1.POST("/auth/login", s.login)

	authed := apiV1.Group("", s.jwtMiddleware)
	authed.GET("/chats", s.listChats)
	authed.POST("/chats", s.createChat)
	authed.PATCH("/chats/:uid", s.renameChat)
	authed.DELETE("/chats/:uid", s.deleteChat)
	authed.POST("/chats/:uid/messages", s.postMessage)

	return s, nil
}

// Start begins serving and blocks until the listener stops.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", "addr", addr, "version", version.GetCurrentVersion(s.Profile.Mode))
	return s.e.Start(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.e.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server shut down")
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.e
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.GetCurrentVersion(s.Profile.Mode),
	})
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogMethod: true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
				slog.Error("request", attrs...)
			} else {
				slog.Info("request", attrs...)
			}
			return nil
		},
	})
}
