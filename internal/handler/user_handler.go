package handler

import (
	"context"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

// UserLookup is satisfied by *auth.Client.
type UserLookup interface {
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
}

// UserHandler serves the public part of a seller's profile.
type UserHandler struct {
	users UserLookup
}

func NewUserHandler(users UserLookup) *UserHandler {
	return &UserHandler{users: users}
}

type PublicUserResponse struct {
	UID         string  `json:"uid"`
	DisplayName string  `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
}

func (h *UserHandler) GetPublic(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid uid"))
	}
	user, err := h.users.GetUser(c.Request().Context(), uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "user not found"))
		}
		return c.JSON(http.StatusBadGateway, NewErrorResponse("upstream_error", "failed to load user"))
	}
	resp := PublicUserResponse{
		UID:         user.UID,
		DisplayName: user.DisplayName,
		PhotoURL:    strPtrOrNil(user.PhotoURL),
	}
	return c.JSON(http.StatusOK, resp)
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
