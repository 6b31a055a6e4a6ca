package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Arvoid00/seamless-ai/server/auth"
	apierrors "github.com/Arvoid00/seamless-ai/server/internal/errors"
	"github.com/Arvoid00/seamless-ai/store"
)

type signUpRequest struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int32  `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	User        userResponse `json:"user"`
}

// SignUp registers a new user and returns an access token.
func (s *APIV1Service) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodeInvalidArgument, "invalid request body", err))
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || len(req.Password) < 8 {
		return apiError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "email and a password of at least 8 characters are required"))
	}

	ctx := c.Request().Context()
	if existing, err := s.Store.GetUser(ctx, &store.FindUser{Email: &req.Email}); err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodePersistenceFailed, "failed to look up user", err))
	} else if existing != nil {
		return apiError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "email is already registered"))
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodeServiceUnavailable, "failed to hash password", err))
	}

	user, err := s.Store.CreateUser(ctx, &store.User{
		Email:        req.Email,
		Nickname:     req.Nickname,
		PasswordHash: hash,
	})
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodePersistenceFailed, "failed to create user", err))
	}

	return s.respondWithToken(c, user)
}

// SignIn verifies credentials and returns an access token.
func (s *APIV1Service) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodeInvalidArgument, "invalid request body", err))
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := s.Store.GetUser(c.Request().Context(), &store.FindUser{Email: &req.Email})
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodePersistenceFailed, "failed to look up user", err))
	}
	if user == nil || !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return apiError(c, apierrors.New(apierrors.ErrCodeUnauthorized, "invalid email or password"))
	}

	return s.respondWithToken(c, user)
}

// GetCurrentUser returns the authenticated identity.
func (s *APIV1Service) GetCurrentUser(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodeUnauthorized, "authentication required", err))
	}

	user, err := s.Store.GetUser(c.Request().Context(), &store.FindUser{ID: &userID})
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodePersistenceFailed, "failed to look up user", err))
	}
	if user == nil {
		return apiError(c, apierrors.New(apierrors.ErrCodeNotFound, "user not found"))
	}
	return c.JSON(http.StatusOK, userResponse{ID: user.ID, Email: user.Email, Nickname: user.Nickname})
}

func (s *APIV1Service) respondWithToken(c echo.Context, user *store.User) error {
	token, err := auth.GenerateAccessToken(user.ID, user.Email, s.Secret)
	if err != nil {
		return apiError(c, apierrors.Wrap(apierrors.ErrCodeServiceUnavailable, "failed to issue token", err))
	}
	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken: token,
		User:        userResponse{ID: user.ID, Email: user.Email, Nickname: user.Nickname},
	})
}
