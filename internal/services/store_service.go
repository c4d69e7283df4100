package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"store-manager/internal/apperrors"
	"store-manager/internal/models"
	"store-manager/internal/repository"
)

type StoreService struct {
	stores repository.StoreRepository
	logger zerolog.Logger
}

func NewStoreService(stores repository.StoreRepository, logger zerolog.Logger) *StoreService {
	return &StoreService{
		stores: stores,
		logger: logger,
	}
}

func (s *StoreService) GetProfile(ctx context.Context, ownerID int64) (*models.Store, error) {
	store, err := s.stores.FindByOwner(ctx, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Store profile not found")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return store, nil
}

// SaveProfile creates the owner's store or overwrites it when one exists.
// created reports which of the two happened.
func (s *StoreService) SaveProfile(ctx context.Context, ownerID int64, req models.StoreProfileRequest) (created bool, err error) {
	store := storeFromRequest(ownerID, req)

	exists, err := s.stores.ExistsByOwner(ctx, ownerID)
	if err != nil {
		return false, apperrors.Internal(err)
	}

	if !exists {
		err = s.stores.Create(ctx, store)
		switch {
		case err == nil:
			s.logger.Info().Int64("owner_id", ownerID).Int64("store_id", store.ID).Msg("Store profile created")
			return true, nil
		case errors.Is(err, repository.ErrDuplicateOwner):
			// A concurrent request inserted first; fall through to update.
		default:
			return false, s.writeError(err)
		}
	}

	if err := s.stores.UpdateByOwner(ctx, store); err != nil {
		return false, s.writeError(err)
	}
	s.logger.Info().Int64("owner_id", ownerID).Msg("Store profile updated")
	return false, nil
}

func (s *StoreService) DeleteProfile(ctx context.Context, ownerID int64) error {
	err := s.stores.DeleteByOwner(ctx, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("Store profile not found")
	}
	if err != nil {
		return apperrors.Internal(err)
	}
	s.logger.Info().Int64("owner_id", ownerID).Msg("Store profile deleted")
	return nil
}

func (s *StoreService) ListAll(ctx context.Context) ([]models.StoreListing, error) {
	listings, err := s.stores.ListWithOwners(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return listings, nil
}

func (s *StoreService) writeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperrors.Conflict("Email already exists")
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("Store profile not found")
	default:
		return apperrors.Internal(err)
	}
}

func storeFromRequest(ownerID int64, req models.StoreProfileRequest) *models.Store {
	return &models.Store{
		OwnerID:         ownerID,
		StoreName:       strings.TrimSpace(req.StoreName),
		OwnerName:       strings.TrimSpace(req.OwnerName),
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:           strings.TrimSpace(req.Phone),
		Address:         strings.TrimSpace(req.Address),
		Description:     optional(req.Description),
		EstablishedYear: req.EstablishedYear.Ptr(),
		Website:         optional(req.Website),
	}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
