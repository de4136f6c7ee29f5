package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Vicae-a/Blog/internal/auth"
	"github.com/Vicae-a/Blog/internal/handler/dto"
	"github.com/Vicae-a/Blog/internal/model"
	"github.com/Vicae-a/Blog/internal/service"
)

// UserService is the identity use-case surface used by UserHandler.
type UserService interface {
	Register(ctx context.Context, input service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, input service.LoginInput) (*service.AuthResult, error)
	Logout(ctx context.Context, session *model.Session) error
	Me(ctx context.Context, userID int64) (*model.User, error)
	UpdateProfile(ctx context.Context, session *model.Session, input service.UpdateProfileInput) (*model.User, error)
}

// UserHandler handles registration, login and profile endpoints.
type UserHandler struct {
	svc    UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// Register handles POST /register.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := decodeJSON(r, &input); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.Register(r.Context(), input)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusCreated, toAuthResponse(res))
}

// Login handles POST /login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := decodeJSON(r, &input); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.Login(r.Context(), input)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, toAuthResponse(res))
}

// Logout handles POST /logout.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), auth.SessionFromContext(r.Context())); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessMessage("Logged out"))
}

// Me handles GET /user.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		handleServiceError(w, r, h.logger, service.ErrUnauthenticated)
		return
	}

	user, err := h.svc.Me(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, dto.ProfileResponse{User: *dto.ToUserResponse(user)})
}

// UpdateProfile handles PUT /user.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input service.UpdateProfileInput
	if err := decodeJSON(r, &input); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), auth.SessionFromContext(r.Context()), input)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, dto.ProfileResponse{User: *dto.ToUserResponse(user)})
}

func toAuthResponse(res *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{User: *dto.ToUserResponse(res.User), Token: res.Token}
}
