package transport

import (
	"net/http"

	"tanepro-b2b/internal/domain"
	"tanepro-b2b/internal/middleware"
	"tanepro-b2b/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=supplier customer"`
	Phone    string `json:"phone"`
	TabdkNo  string `json:"tabdkNo"`
	Address  string `json:"address"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse describes the caller's identity
type SessionResponse struct {
	User  *domain.UserProfile `json:"user"`
	State string              `json:"state"`
}

// AuthHandler exposes the session manager of each request
type AuthHandler struct {
	logger *zap.Logger
}

func NewAuthHandler(logger *zap.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

// RegisterRoutes registers the auth routes. limit guards the credential
// endpoints.
func (h *AuthHandler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.With(limit).Post("/register", h.Register)
		r.With(limit).Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})
}

func (h *AuthHandler) manager(w http.ResponseWriter, r *http.Request) (*session.Manager, bool) {
	manager, ok := middleware.SessionFrom(r.Context())
	if !ok {
		h.logger.Error("Session manager not found in context")
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
	return manager, ok
}

// Register creates a profile. Self sign-up is limited to suppliers and
// customers.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Registration validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	manager, ok := h.manager(w, r)
	if !ok {
		return
	}

	profile, err := manager.Register(r.Context(), session.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     domain.Role(req.Role),
		Phone:    req.Phone,
		TabdkNo:  req.TabdkNo,
		Address:  req.Address,
	})
	if err != nil {
		h.logger.Info("Registration failed", zap.String("email", req.Email), zap.Error(err))
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("User registered", zap.String("user_id", profile.ID), zap.String("role", string(profile.Role)))
	middleware.RespondWithJSON(w, http.StatusCreated, profile)
}

// Login signs in and stores the session in the cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	manager, ok := h.manager(w, r)
	if !ok {
		return
	}

	profile, err := manager.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("Login failed", zap.String("email", req.Email), zap.Error(err))
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, SessionResponse{User: &profile, State: manager.State().String()})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.manager(w, r)
	if !ok {
		return
	}
	if err := manager.Logout(r.Context()); err != nil {
		h.logger.Warn("Logout failed", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the resolved identity; anonymous callers get a null user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.manager(w, r)
	if !ok {
		return
	}

	resp := SessionResponse{State: manager.State().String()}
	if profile, ok := manager.Current(); ok {
		resp.User = &profile
	}
	middleware.RespondWithJSON(w, http.StatusOK, resp)
}
