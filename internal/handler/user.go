package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/shared-calendar/internal/auth"
	"github.com/sakif/shared-calendar/internal/model"
	"github.com/sakif/shared-calendar/internal/service"
)

// UserService is the subset of *service.UserService the handler calls.
type UserService interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
	Login(ctx context.Context, tg, username, password string) (*service.LoginResult, error)
	UpdateProfile(ctx context.Context, token, currentPassword string, changes service.ProfileChanges) (*model.User, error)
	Logout(ctx context.Context, token string) error
	DeleteAccount(ctx context.Context, token, password string) error
}

type UserHandler struct {
	users  UserService
	logger *slog.Logger
}

func NewUserHandler(users UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

type registerRequest struct {
	Tg       string `json:"tg"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Tg       string `json:"tg"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type updateProfileRequest struct {
	CurrentPassword string  `json:"currentPassword"`
	Username        *string `json:"username"`
	Password        *string `json:"password"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

// HandleRegister handles POST /api/v1/users.
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		Tg:       req.Tg,
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// HandleLogin handles POST /api/v1/users/login.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.users.Login(r.Context(), req.Tg, req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: res.Token, User: res.User})
}

// HandleUpdateProfile handles PUT /api/v1/users/me.
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), auth.TokenFromContext(r.Context()), req.CurrentPassword,
		service.ProfileChanges{
			Username: req.Username,
			Password: req.Password,
			Email:    req.Email,
			Phone:    req.Phone,
		})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleLogout handles POST /api/v1/users/logout.
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Logout(r.Context(), auth.TokenFromContext(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteAccount handles DELETE /api/v1/users/me. The body carries the
// password as confirmation.
func (h *UserHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.users.DeleteAccount(r.Context(), auth.TokenFromContext(r.Context()), req.Password); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
