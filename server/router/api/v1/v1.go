// Package v1 exposes the HTTP API: authentication, transcript access and the
// streaming chat endpoint.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Arvoid00/seamless-ai/internal/profile"
	"github.com/Arvoid00/seamless-ai/plugin/ai"
	"github.com/Arvoid00/seamless-ai/plugin/ai/dispatch"
	"github.com/Arvoid00/seamless-ai/plugin/ai/tool"
	"github.com/Arvoid00/seamless-ai/server/auth"
	apierrors "github.com/Arvoid00/seamless-ai/server/internal/errors"
	"github.com/Arvoid00/seamless-ai/server/middleware"
	"github.com/Arvoid00/seamless-ai/store"
)

// userIDContextKey is the echo context key holding the authenticated user.
const userIDContextKey = "user-id"

// APIV1Service wires the HTTP routes to the dispatch core and the store.
type APIV1Service struct {
	Secret     string
	Profile    *profile.Profile
	Store      *store.Store
	Registry   *tool.Registry
	Dispatcher *dispatch.Dispatcher
	Embedding  ai.EmbeddingService

	rateLimiter *middleware.RateLimiter
}

// NewAPIV1Service creates the API service.
func NewAPIV1Service(secret string, p *profile.Profile, s *store.Store, registry *tool.Registry, dispatcher *dispatch.Dispatcher, embedding ai.EmbeddingService) *APIV1Service {
	return &APIV1Service{
		Secret:      secret,
		Profile:     p,
		Store:       s,
		Registry:    registry,
		Dispatcher:  dispatcher,
		Embedding:   embedding,
		rateLimiter: middleware.NewRateLimiter(10, 20),
	}
}

// RegisterRoutes attaches all API routes to the echo server.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.Use(echomw.CORS())
	api.Use(s.rateLimiter.Middleware())

	api.GET("/status", s.GetStatus)
	api.POST("/auth/signup", s.SignUp)
	api.POST("/auth/signin", s.SignIn)

	authed := api.Group("", s.authMiddleware)
	authed.GET("/auth/me", s.GetCurrentUser)

	authed.GET("/transcripts", s.ListTranscripts)
	authed.POST("/transcripts", s.CreateTranscript)
	authed.GET("/transcripts/:uid", s.GetTranscript)
	authed.GET("/transcripts/:uid/snapshot", s.GetTranscriptSnapshot)
	authed.DELETE("/transcripts/:uid", s.DeleteTranscript)

	authed.POST("/transcripts/:uid/messages", s.Chat)

	authed.GET("/agents", s.ListAgents)
	authed.POST("/agents", s.UpsertAgent)
	authed.DELETE("/agents/:id", s.DeleteAgent)
	authed.GET("/tags", s.ListTags)
	authed.POST("/tags", s.UpsertTag)
	authed.DELETE("/tags/:id", s.DeleteTag)

	authed.POST("/passages", s.CreatePassage)
	authed.DELETE("/passages/:id", s.DeletePassage)

	// Shared read-only view: projection only, no authentication.
	api.GET("/shared/:uid/snapshot", s.GetSharedSnapshot)
}

// GetStatus reports version, tools and credential warnings.
func (s *APIV1Service) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"version":  s.Profile.Version,
		"mode":     s.Profile.Mode,
		"tools":    s.Registry.Names(),
		"warnings": s.Profile.MissingCredentialWarnings(),
	})
}

// authMiddleware authenticates the bearer token and stores the user ID on
// the request context.
func (s *APIV1Service) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.Authenticate(c.Request().Header.Get(echo.HeaderAuthorization), s.Secret)
		if err != nil {
			return apiError(c, apierrors.Wrap(apierrors.ErrCodeUnauthorized, "authentication required", err))
		}
		c.Set(userIDContextKey, userID)
		return next(c)
	}
}

// currentUserID returns the authenticated user ID from the context.
func currentUserID(c echo.Context) (int32, error) {
	userID, ok := c.Get(userIDContextKey).(int32)
	if !ok {
		return 0, errors.New("no authenticated user on context")
	}
	return userID, nil
}

// apiError writes a structured error response.
func apiError(c echo.Context, err *apierrors.APIError) error {
	return c.JSON(err.HTTPStatus(), map[string]any{
		"code":    err.Code,
		"message": err.Message,
	})
}
