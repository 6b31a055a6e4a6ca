package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	apierrors "github.com/Arvoid00/seamless-ai/server/internal/errors"
	"github.com/Arvoid00/seamless-ai/store"
)

type createPassageRequest struct {
	Content string   `json:"content"`
	Source  string   `json:"source"`
	Tags    []string `json:"tags"`
}

// CreatePassage ingests one document passage: the content is embedded and
// stored in the vector index so vecSearch can retrieve it.
func (s *APIV1Service) CreatePassage(c echo.Context) error {
	var req createPassageRequest
	if err := c.Bind(&req); err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodeInvalidArgument, "invalid request body", err))
	}
	if strings.TrimSpace(req.Content) == "" {
		return apiError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "passage content is required"))
	}

	ctx := c.Request().Context()
	vector, err := s.Embedding.Embedding(ctx, req.Content)
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodeServiceUnavailable, "failed to embed passage", err))
	}

	passage, err := s.Store.UpsertPassage(ctx, &store.Passage{
		UID:       shortuuid.New(),
		Content:   req.Content,
		Source:    req.Source,
		Tags:      req.Tags,
		Embedding: vector,
	})
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodePersistenceFailed, "failed to save passage", err))
	}
	return c.JSON(http.StatusOK, passage)
}

// DeletePassage removes a passage from the index.
func (s *APIV1Service) DeletePassage(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodeInvalidArgument, "invalid passage id", err))
	}
	if err := s.Store.DeletePassage(c.Request().Context(), &store.DeletePassage{ID: id}); err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodePersistenceFailed, "failed to delete passage", err))
	}
	return c.NoContent(http.StatusNoContent)
}
