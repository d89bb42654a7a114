package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/api/middleware"
	"github.com/Togather-Foundation/eventboard/internal/api/problem"
	"github.com/Togather-Foundation/eventboard/internal/domain/users"
)

// UserService is the part of users.Service the HTTP layer needs.
type UserService interface {
	Register(ctx context.Context, params users.RegisterParams) (*users.User, error)
	Login(ctx context.Context, params users.LoginParams) (*users.LoginResult, error)
	GetByID(ctx context.Context, id string) (*users.User, error)
}

type AuthHandler struct {
	Users UserService
	Env   string
}

func NewAuthHandler(service UserService, env string) *AuthHandler {
	return &AuthHandler{Users: service, Env: env}
}

type userResponse struct {
	ID        string `json:"id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
}

func toUserResponse(u *users.User) userResponse {
	return userResponse{ID: u.ID, Firstname: u.Firstname, Lastname: u.Lastname, Email: u.Email}
}

type registerResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

type loginResponse struct {
	Success   bool         `json:"success"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var params users.RegisterParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	user, err := h.Users.Register(r.Context(), params)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Success: true,
		Message: "registration successful",
		User:    toUserResponse(user),
	})
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var params users.LoginParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	result, err := h.Users.Login(r.Context(), params)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Success:   true,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC(),
		User:      toUserResponse(result.User),
	})
}

// Me handles GET /api/me. The token only proves who the caller is; the
// profile comes from the store, so an account missing since issuance is 404.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.SessionIdentity(r)
	if identity == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, h.Env)
		return
	}

	user, err := h.Users.GetByID(r.Context(), identity.ID)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
