package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/example/menu-orders/internal/api/middleware"
	"github.com/example/menu-orders/internal/auth"
	"github.com/example/menu-orders/internal/domain/user"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	users      *user.Service
	jwtService *auth.JWTService
}

func NewAuthHandlers(users *user.Service, jwtService *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{users: users, jwtService: jwtService}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      user.Role `json:"role"`
	IsGuest   bool      `json:"is_guest"`
	CreatedAt time.Time `json:"created_at"`
}

func userResponse(p *user.Principal) UserResponse {
	return UserResponse{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.Name,
		Role:      p.Role,
		IsGuest:   p.IsGuest,
		CreatedAt: p.CreatedAt,
	}
}

// Register handles user registration
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	newUser, err := h.users.Register(r.Context(), req.Email, req.Password, req.Name)
	switch {
	case errors.Is(err, user.ErrEmailTaken):
		respondJSONError(w, "email already registered", http.StatusConflict)
		return
	case errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, user.ErrInvalidName):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		respondJSONError(w, "registration failed", http.StatusInternalServerError)
		return
	}

	h.setAuthCookies(w, r, newUser)
	respondJSON(w, http.StatusCreated, userResponse(newUser))
}

// Login handles user login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil || p.IsGuest || !auth.CheckPassword(req.Password, p.PasswordHash) {
		// Guests carry an unrecoverable credential and can never log in.
		respondJSONError(w, "invalid email or password", http.StatusUnauthorized)
		return
	}
	if !p.IsActive {
		respondJSONError(w, "account is deactivated", http.StatusForbidden)
		return
	}

	h.setAuthCookies(w, r, p)
	respondJSON(w, http.StatusOK, userResponse(p))
}

// Logout clears the auth cookies.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearAuthCookies(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Refresh exchanges a valid refresh token for fresh cookies.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshCookie, err := r.Cookie("refresh_token")
	if err != nil {
		respondJSONError(w, "no refresh token", http.StatusUnauthorized)
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(refreshCookie.Value)
	if err != nil {
		h.clearAuthCookies(w)
		respondJSONError(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	p, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		h.clearAuthCookies(w)
		respondJSONError(w, "user not found", http.StatusUnauthorized)
		return
	}
	if !p.IsActive {
		h.clearAuthCookies(w)
		respondJSONError(w, "account is deactivated", http.StatusForbidden)
		return
	}

	h.setAuthCookies(w, r, p)
	respondJSON(w, http.StatusOK, map[string]string{"message": "token refreshed"})
}

// Me returns the current authenticated user's information
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	p, err := h.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		respondJSONError(w, "user not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, userResponse(p))
}

// ChangePassword handles password change requests
func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		CurrentPassword    string `json:"current_password"`
		NewPassword        string `json:"new_password"`
		NewPasswordConfirm string `json:"new_password_confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.NewPassword != req.NewPasswordConfirm {
		respondJSONError(w, "new password confirmation does not match", http.StatusBadRequest)
		return
	}

	p, err := h.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		respondJSONError(w, "user not found", http.StatusNotFound)
		return
	}
	if !auth.CheckPassword(req.CurrentPassword, p.PasswordHash) {
		respondJSONError(w, "current password is incorrect", http.StatusBadRequest)
		return
	}

	if err := h.users.ChangePassword(r.Context(), claims.UserID, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			respondJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondJSONError(w, "failed to change password", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// Helper methods

func (h *AuthHandlers) setAuthCookies(w http.ResponseWriter, r *http.Request, p *user.Principal) {
	accessToken, accessExpiry, _ := h.jwtService.GenerateAccessToken(p.ID, p.Email, string(p.Role))
	refreshToken, refreshExpiry, _ := h.jwtService.GenerateRefreshToken(p.ID)

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/auth/refresh",
		Expires:  refreshExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandlers) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/auth/refresh",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
