// Package server hosts the HTTP server around the dispatch core.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Arvoid00/seamless-ai/internal/profile"
	"github.com/Arvoid00/seamless-ai/plugin/ai"
	"github.com/Arvoid00/seamless-ai/plugin/ai/dispatch"
	"github.com/Arvoid00/seamless-ai/plugin/ai/gateway"
	"github.com/Arvoid00/seamless-ai/plugin/ai/tool"
	"github.com/Arvoid00/seamless-ai/plugin/ai/websearch"
	apiv1 "github.com/Arvoid00/seamless-ai/server/router/api/v1"
	"github.com/Arvoid00/seamless-ai/store"
)

// Server hosts the API on an echo instance.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
}

// NewServer wires the provider, tool registry and dispatcher, validates the
// agent catalog and registers the routes. A dangling tool reference in the
// catalog is a configuration error and fails startup.
func NewServer(ctx context.Context, p *profile.Profile, s *store.Store) (*Server, error) {
	for _, warning := range p.MissingCredentialWarnings() {
		slog.Warn("missing credential", slog.String("warning", warning))
	}

	gw := gateway.New()
	provider := ai.NewProvider(ai.NewConfigFromProfile(p), gw)
	searchClient := websearch.NewClient(p.SearchBaseURL, p.SearchAPIKey, gw)

	registry, err := tool.DefaultRegistry(provider, provider, s, searchClient)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build tool registry")
	}

	agents, err := s.ListAgents(ctx, &store.FindAgent{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load agent catalog")
	}
	for _, agent := range agents {
		if err := registry.ValidateEnabledTools(agent.EnabledTools); err != nil {
			return nil, errors.Wrapf(err, "agent %q references an unknown tool", agent.Name)
		}
	}

	secret := p.JWTSecret
	if secret == "" {
		// Sessions won't survive a restart without a configured secret.
		secret = uuid.NewString()
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(echomw.Recover())
	echoServer.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(_ echo.Context, v echomw.RequestLoggerValues) error {
			slog.Debug("request",
				slog.String("uri", v.URI),
				slog.Int("status", v.Status))
			return nil
		},
	}))

	dispatcher := dispatch.New(registry, provider, s)
	apiService := apiv1.NewAPIV1Service(secret, p, s, registry, dispatcher, provider)
	apiService.RegisterRoutes(echoServer)

	return &Server{
		Profile:    p,
		Store:      s,
		echoServer: echoServer,
	}, nil
}

// Start serves until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", slog.String("address", address), slog.String("mode", s.Profile.Mode))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echoServer.Start(address)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}

// Shutdown drains in-flight requests and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", slog.String("error", err.Error()))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", slog.String("error", err.Error()))
	}
	slog.Info("server stopped")
}
