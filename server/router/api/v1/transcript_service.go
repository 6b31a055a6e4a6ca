package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	apierrors "github.com/Arvoid00/seamless-ai/server/internal/errors"
	"github.com/Arvoid00/seamless-ai/store"
)

type createTranscriptRequest struct {
	AgentName string `json:"agent_name,omitempty"`
}

// CreateTranscript starts an empty conversation, optionally bound to an agent.
func (s *APIV1Service) CreateTranscript(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodeUnauthorized, "authentication required", err))
	}

	var req createTranscriptRequest
	if err := c.Bind(&req); err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodeInvalidArgument, "invalid request body", err))
	}

	ctx := c.Request().Context()
	if req.AgentName != "" {
		agent, err := s.Store.GetAgentByName(ctx, req.AgentName)
		if err != nil {
			return apiError(c, apierrors.Wrap(apierrors.ErrCodePersistenceFailed, "failed to look up agent", err))
		}
		if agent == nil {
			return apiError(c, apierrors.New(apierrors.ErrCodeNotFound, "agent not found"))
		}
	}

	transcript, err := s.Store.UpsertTranscript(ctx, &store.Transcript{
		UID:       shortuuid.New(),
		CreatorID: userID,
		AgentName: req.AgentName,
	})
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodePersistenceFailed, "failed to create transcript", err))
	}
	return c.JSON(http.StatusOK, transcript)
}

// ListTranscripts lists the caller's transcripts newest first. An optional
// `filter` query parameter holds a CEL expression, e.g.
// `agent == "researcher" && pinned`.
func (s *APIV1Service) ListTranscripts(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodeUnauthorized, "authentication required", err))
	}

	find := &store.FindTranscript{CreatorID: &userID}
	if agent := c.QueryParam("agent"); agent != "" {
		find.AgentName = &agent
	}
	if pinned := c.QueryParam("pinned"); pinned != "" {
		value, err := strconv.ParseBool(pinned)
		if err != nil {
			return apiError(c, apierrors.Wrap(apierrors.ErrCodeInvalidArgument, "invalid pinned parameter", err))
		}
		find.Pinned = &value
	}
	if filter := c.QueryParam("filter"); filter != "" {
		find.Filter = &filter
	}

	transcripts, err := s.Store.ListTranscripts(c.Request().Context(), find)
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodeInvalidArgument, "failed to list transcripts", err))
	}
	return c.JSON(http.StatusOK, transcripts)
}

// GetTranscript returns one owned transcript with all its turns.
func (s *APIV1Service) GetTranscript(c echo.Context) error {
	transcript, apiErr := s.findOwnedTranscript(c)
	if apiErr != nil {
		return apiError(c, apiErr)
	}
	return c.JSON(http.StatusOK, transcript)
}

// GetTranscriptSnapshot projects an owned transcript into its render snapshot.
func (s *APIV1Service) GetTranscriptSnapshot(c echo.Context) error {
	transcript, apiErr := s.findOwnedTranscript(c)
	if apiErr != nil {
		return apiError(c, apiErr)
	}
	return c.JSON(http.StatusOK, s.Dispatcher.Projector().Project(transcript))
}

// GetSharedSnapshot projects a transcript for a shared read-only view. The
// snapshot is derived purely from the durable transcript.
func (s *APIV1Service) GetSharedSnapshot(c echo.Context) error {
	uid := c.Param("uid")
	transcript, err := s.Store.GetTranscript(c.Request().Context(), &store.FindTranscript{UID: &uid})
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodePersistenceFailed, "failed to load transcript", err))
	}
	if transcript == nil {
		return apiError(c, apierrors.New(apierrors.ErrCodeNotFound, "transcript not found"))
	}
	return c.JSON(http.StatusOK, s.Dispatcher.Projector().Project(transcript))
}

// DeleteTranscript removes an owned transcript.
func (s *APIV1Service) DeleteTranscript(c echo.Context) error {
	transcript, apiErr := s.findOwnedTranscript(c)
	if apiErr != nil {
		return apiError(c, apiErr)
	}
	if err := s.Store.DeleteTranscript(c.Request().Context(), &store.DeleteTranscript{ID: transcript.ID}); err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodePersistenceFailed, "failed to delete transcript", err))
	}
	return c.NoContent(http.StatusNoContent)
}

// findOwnedTranscript loads the path transcript and verifies ownership.
func (s *APIV1Service) findOwnedTranscript(c echo.Context) (*store.Transcript, *apierrors.APIError) {
	userID, err := currentUserID(c)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.ErrCodeUnauthorized, "authentication required", err)
	}

	uid := c.Param("uid")
	transcript, err := s.Store.GetTranscript(c.Request().Context(), &store.FindTranscript{UID: &uid})
	if err != nil {
		return nil, apierrors.Wrap(apierrors.ErrCodePersistenceFailed, "failed to load transcript", err)
	}
	if transcript == nil || transcript.CreatorID != userID {
		return nil, apierrors.New(apierrors.ErrCodeNotFound, "transcript not found")
	}
	return transcript, nil
}
