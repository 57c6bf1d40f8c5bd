package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/enrollment-auth/auth"
	"github.com/upb/enrollment-auth/internal/observability"
	"github.com/upb/enrollment-auth/middleware"
	"github.com/upb/enrollment-auth/models"
	"github.com/upb/enrollment-auth/repositories"
	"github.com/upb/enrollment-auth/services"
	"github.com/upb/enrollment-auth/utils"
)

// CredentialAuthenticator registers and logs in users with local credentials
type CredentialAuthenticator interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

// ClaimsProvisioner maps an external principal onto a local user
type ClaimsProvisioner interface {
	ProvisionFromClaims(ctx context.Context, principal *auth.Principal) (*models.User, error)
}

// UserReader looks up stored users
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user record
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	Token string `json:"token"`
	UserResponse
}

// ProvisionResponse is returned by POST /auth/provision
type ProvisionResponse struct {
	UserResponse
	Role models.Role `json:"role"`
}

// PrincipalResponse is the body of GET /auth/me
type PrincipalResponse struct {
	Sub       string        `json:"sub"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	FirstName string        `json:"firstName,omitempty"`
	LastName  string        `json:"lastName,omitempty"`
	Roles     []models.Role `json:"roles"`
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// AuthHandler handles registration, login and provisioning requests
type AuthHandler struct {
	authenticator CredentialAuthenticator
	provisioner   ClaimsProvisioner
	users         UserReader
	logger        *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authenticator CredentialAuthenticator, provisioner ClaimsProvisioner, users UserReader, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		provisioner:   provisioner,
		users:         users,
		logger:        logger,
	}
}

// HandleRegister handles POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		h.writeInvalidBody(w, r, err)
		return
	}

	user, err := h.authenticator.Register(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.requestLogger(r))
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, newUserResponse(user))
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in LoginRequest
	if err := utils.DecodeJSON(r, &in); err != nil {
		h.writeInvalidBody(w, r, err)
		return
	}

	result, err := h.authenticator.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		HandleServiceError(w, err, h.requestLogger(r))
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, LoginResponse{
		Token:        result.Token,
		UserResponse: newUserResponse(result.User),
	})
}

// HandleProvision handles POST /auth/provision. It requires RequireAuth.
func (h *AuthHandler) HandleProvision(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.provisioner.ProvisionFromClaims(r.Context(), principal)
	if err != nil {
		HandleServiceError(w, err, h.requestLogger(r))
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, ProvisionResponse{
		UserResponse: newUserResponse(user),
		Role:         user.Role,
	})
}

// HandleMe handles GET /auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	roles := principal.Roles
	if roles == nil {
		roles = []models.Role{}
	}
	_ = utils.WriteJSON(w, http.StatusOK, PrincipalResponse{
		Sub:       principal.SubjectID,
		Email:     principal.Email,
		Name:      principal.DisplayName(),
		FirstName: principal.FirstName,
		LastName:  principal.LastName,
		Roles:     roles,
	})
}

// HandleGetUser handles GET /api/v1/users/{id}
func (h *AuthHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid user ID", nil)
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			HandleServiceError(w, services.ErrUserNotFound, h.requestLogger(r))
			return
		}
		HandleServiceError(w, services.WrapInternal("failed to get user", err), h.requestLogger(r))
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) requestLogger(r *http.Request) *zap.Logger {
	return observability.WithRequestID(r.Context(), h.logger)
}

func (h *AuthHandler) writeInvalidBody(w http.ResponseWriter, r *http.Request, err error) {
	h.requestLogger(r).Debug("invalid request body", zap.Error(err))
	_ = utils.WriteBadRequest(w, "Invalid request body", nil)
}
