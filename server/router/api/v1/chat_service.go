package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Arvoid00/seamless-ai/plugin/ai/dispatch"
	apierrors "github.com/Arvoid00/seamless-ai/server/internal/errors"
	"github.com/Arvoid00/seamless-ai/store"
)

type chatRequest struct {
	// TurnID is the client-generated id of the user turn.
	TurnID  string   `json:"turn_id,omitempty"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// Chat dispatches one user message on a transcript and streams the cycle's
// updates as server-sent events. The cycle keeps running server-side if the
// client disconnects; the transcript append happens either way.
func (s *APIV1Service) Chat(c echo.Context) error {
	transcript, apiErr := s.findOwnedTranscript(c)
	if apiErr != nil {
		return apiError(c, apiErr)
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodeInvalidArgument, "invalid request body", err))
	}
	if strings.TrimSpace(req.Content) == "" {
		return apiError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "message content is required"))
	}

	ctx := c.Request().Context()
	var agent *store.Agent
	if transcript.AgentName != "" {
		found, err := s.Store.GetAgentByName(ctx, transcript.AgentName)
		if err != nil {
			return apiError(c, apierrors.Wrap(apierrors.ErrCodePersistenceFailed, "failed to load agent", err))
		}
		if found == nil {
			return apiError(c, apierrors.New(apierrors.ErrCodeNotFound, "associated agent no longer exists"))
		}
		agent = found
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentType, "text/event-stream")
	header.Set(echo.HeaderCacheControl, "no-cache")
	header.Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	send := func(update *dispatch.Update) error {
		payload, err := json.Marshal(update)
		if err != nil {
			return errors.Wrap(err, "failed to marshal update")
		}
		if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", payload); err != nil {
			return err
		}
		c.Response().Flush()
		return nil
	}

	_, err := s.Dispatcher.Dispatch(ctx, &dispatch.Request{
		Transcript: transcript,
		Input:      req.Content,
		TurnID:     req.TurnID,
		Agent:      agent,
		TagFilter:  req.Tags,
		UserID:     transcript.CreatorID,
	}, send)
	if err != nil {
		// The failure state was already streamed; close the stream cleanly.
		payload, _ := json.Marshal(map[string]string{"code": string(apierrors.ErrCodePersistenceFailed), "message": err.Error()})
		fmt.Fprintf(c.Response(), "event: error\ndata: %s\n\n", payload)
		c.Response().Flush()
		return nil
	}

	fmt.Fprint(c.Response(), "event: done\ndata: {}\n\n")
	c.Response().Flush()
	return nil
}
