package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apierrors "github.com/Arvoid00/seamless-ai/server/internal/errors"
	"github.com/Arvoid00/seamless-ai/store"
)

type upsertAgentRequest struct {
	ID           int32    `json:"id,omitempty"`
	Name         string   `json:"name"`
	SystemPrompt string   `json:"system_prompt"`
	EnabledTools []string `json:"enabled_tools"`
	Strictness   float32  `json:"strictness"`
	Tags         []string `json:"tags"`
}

// ListAgents lists all agent personas.
func (s *APIV1Service) ListAgents(c echo.Context) error {
	agents, err := s.Store.ListAgents(c.Request().Context(), &store.FindAgent{})
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodePersistenceFailed, "failed to list agents", err))
	}
	return c.JSON(http.StatusOK, agents)
}

// UpsertAgent creates or updates an agent persona. Tool references are
// validated against the registry so a dangling name never reaches dispatch.
func (s *APIV1Service) UpsertAgent(c echo.Context) error {
	var req upsertAgentRequest
	if err := c.Bind(&req); err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodeInvalidArgument, "invalid request body", err))
	}
	if req.Name == "" {
		return apiError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "agent name is required"))
	}
	if req.Strictness < 0 || req.Strictness > 1 {
		return apiError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "strictness must be between 0 and 1"))
	}
	if err := s.Registry.ValidateEnabledTools(req.EnabledTools); err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodeInvalidArgument, "invalid enabled tools", err))
	}

	agent, err := s.Store.UpsertAgent(c.Request().Context(), &store.Agent{
		ID:           req.ID,
		Name:         req.Name,
		SystemPrompt: req.SystemPrompt,
		EnabledTools: req.EnabledTools,
		Strictness:   req.Strictness,
		Tags:         req.Tags,
	})
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodePersistenceFailed, "failed to save agent", err))
	}
	return c.JSON(http.StatusOK, agent)
}

// DeleteAgent removes an agent persona.
func (s *APIV1Service) DeleteAgent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodeInvalidArgument, "invalid agent id", err))
	}
	if err := s.Store.DeleteAgent(c.Request().Context(), &store.DeleteAgent{ID: id}); err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodePersistenceFailed, "failed to delete agent", err))
	}
	return c.NoContent(http.StatusNoContent)
}

type upsertTagRequest struct {
	ID    int32  `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ListTags lists all tags.
func (s *APIV1Service) ListTags(c echo.Context) error {
	tags, err := s.Store.ListTags(c.Request().Context(), &store.FindTag{})
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodePersistenceFailed, "failed to list tags", err))
	}
	return c.JSON(http.StatusOK, tags)
}

// UpsertTag creates or updates a tag.
func (s *APIV1Service) UpsertTag(c echo.Context) error {
	var req upsertTagRequest
	if err := c.Bind(&req); err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodeInvalidArgument, "invalid request body", err))
	}
	if req.Name == "" {
		return apiError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "tag name is required"))
	}

	tag, err := s.Store.UpsertTag(c.Request().Context(), &store.Tag{
		ID:    req.ID,
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodePersistenceFailed, "failed to save tag", err))
	}
	return c.JSON(http.StatusOK, tag)
}

// DeleteTag removes a tag.
func (s *APIV1Service) DeleteTag(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodeInvalidArgument, "invalid tag id", err))
	}
	if err := s.Store.DeleteTag(c.Request().Context(), &store.DeleteTag{ID: id}); err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodePersistenceFailed, "failed to delete tag", err))
	}
	return c.NoContent(http.StatusNoContent)
}

func pathID(c echo.Context) (int32, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}
