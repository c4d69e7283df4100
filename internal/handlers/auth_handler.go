package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"store-manager/internal/apperrors"
	"store-manager/internal/middleware"
	"store-manager/internal/models"
	"store-manager/internal/services"
	"store-manager/internal/validation"
)

// CookieConfig controls the session cookie attributes.
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

type AuthHandler struct {
	authService *services.AuthService
	validator   *validation.Validator
	cookie      CookieConfig
	logger      zerolog.Logger
}

func NewAuthHandler(authService *services.AuthService, v *validation.Validator, cookie CookieConfig, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   v,
		cookie:      cookie,
		logger:      logger,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, token, err := h.authService.Register(r.Context(), req)
	if err != nil {
		respondAuthError(w, r, err)
		return
	}

	h.setSession(w, token)
	respondWithJSON(w, http.StatusCreated, AuthResponse{
		Message: "User Registered Successfully",
		User:    user.Public(),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, token, err := h.authService.Login(r.Context(), req)
	if err != nil {
		respondAuthError(w, r, err)
		return
	}

	h.setSession(w, token)
	respondWithJSON(w, http.StatusOK, AuthResponse{
		Message: "User Logged In Successfully",
		User:    user.Public(),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	respondWithJSON(w, http.StatusOK, AuthResponse{Message: "User Logged Out Successfully"})
}

// Me answers 401 for any token problem, including a token whose user is gone.
// Storage failures answer 500.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.TokenCookie)
	if err != nil {
		respondWithJSON(w, http.StatusUnauthorized, AuthResponse{Message: "Unauthorized"})
		return
	}

	user, err := h.authService.Authenticate(r.Context(), cookie.Value)
	if err != nil {
		if apperrors.Is(err, apperrors.KindUnauthorized) {
			h.logger.Debug().Err(err).Msg("Session lookup failed")
			respondWithJSON(w, http.StatusUnauthorized, AuthResponse{Message: "Unauthorized"})
			return
		}
		respondAuthError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, AuthResponse{User: user.Public()})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		respondWithJSON(w, http.StatusUnauthorized, AuthResponse{Message: "Unauthorized"})
		return
	}

	var req models.ChangePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.authService.ChangePassword(r.Context(), identity.UserID, req); err != nil {
		respondAuthError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, AuthResponse{Message: "Password changed successfully"})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), req.Email); err != nil {
		respondAuthError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, AuthResponse{
		Message: "If an account exists for that email, a password reset link has been sent",
	})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req); err != nil {
		respondAuthError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, AuthResponse{Message: "Password reset successfully"})
}

// decode reads and validates the body, answering 400 itself on failure.
func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		respondWithJSON(w, http.StatusBadRequest, AuthResponse{Message: "Invalid request body"})
		return false
	}
	if errs := h.validator.Struct(dst); errs != nil {
		respondWithJSON(w, http.StatusBadRequest, AuthResponse{Message: "Validation failed", Errors: errs})
		return false
	}
	return true
}

func (h *AuthHandler) setSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
