package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"store-manager/internal/middleware"
	"store-manager/internal/models"
	"store-manager/internal/services"
	"store-manager/internal/validation"
)

type StoreHandler struct {
	storeService *services.StoreService
	validator    *validation.Validator
	logger       zerolog.Logger
}

func NewStoreHandler(storeService *services.StoreService, v *validation.Validator, logger zerolog.Logger) *StoreHandler {
	return &StoreHandler{
		storeService: storeService,
		validator:    v,
		logger:       logger,
	}
}

func (h *StoreHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	store, err := h.storeService.GetProfile(r.Context(), identity.UserID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StoreResponse{Success: true, Data: store})
}

// SaveProfile serves both POST and PUT: the owner's row is created when
// absent and overwritten otherwise.
func (h *StoreHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req models.StoreProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, StoreResponse{Success: false, Message: "Invalid request body"})
		return
	}
	req.Normalize()
	if errs := h.validator.Struct(req); errs != nil {
		h.logger.Debug().Int64("owner_id", identity.UserID).Int("errors", len(errs)).Msg("Store profile validation failed")
		respondWithJSON(w, http.StatusBadRequest, StoreResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  errs,
		})
		return
	}

	created, err := h.storeService.SaveProfile(r.Context(), identity.UserID, req)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	if created {
		respondWithJSON(w, http.StatusCreated, StoreResponse{Success: true, Message: "Store profile created successfully"})
		return
	}
	respondWithJSON(w, http.StatusOK, StoreResponse{Success: true, Message: "Store profile updated successfully"})
}

func (h *StoreHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	if err := h.storeService.DeleteProfile(r.Context(), identity.UserID); err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StoreResponse{Success: true, Message: "Store profile deleted successfully"})
}

func (h *StoreHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	listings, err := h.storeService.ListAll(r.Context())
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StoreResponse{Success: true, Data: listings})
}

func (h *StoreHandler) identity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		respondWithJSON(w, http.StatusUnauthorized, StoreResponse{Success: false, Message: "Unauthorized"})
	}
	return identity, ok
}
