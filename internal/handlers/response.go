package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"store-manager/internal/apperrors"
	"store-manager/internal/models"
	"store-manager/internal/validation"
)

const maxBodyBytes = 1 << 20

// AuthResponse is the envelope of every /api/auth endpoint.
type AuthResponse struct {
	Message string                  `json:"message,omitempty"`
	User    *models.PublicUser      `json:"user,omitempty"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

// StoreResponse is the envelope of every /api/stores endpoint.
type StoreResponse struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message,omitempty"`
	Data    any                     `json:"data,omitempty"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

var errEmptyBody = errors.New("request body is empty")

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	return err
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusFor maps err to a response status and a caller-safe message.
// Unexpected errors are logged with the request's logger.
func statusFor(r *http.Request, err error, internalMsg string) (int, string) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperrors.KindInternal {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		return http.StatusInternalServerError, internalMsg
	}
	return appErr.Kind.HTTPStatus(), appErr.Message
}

func respondAuthError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := statusFor(r, err, "Internal Server Error")
	respondWithJSON(w, code, AuthResponse{Message: msg})
}

func respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := statusFor(r, err, "Internal server error")
	respondWithJSON(w, code, StoreResponse{Success: false, Message: msg})
}

// NotFound and MethodNotAllowed keep unmatched routes on the JSON contract.
func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusNotFound, StoreResponse{Success: false, Message: "Route not found"})
	})
}

func MethodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusMethodNotAllowed, StoreResponse{Success: false, Message: "Method not allowed"})
	})
}
