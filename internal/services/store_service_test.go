package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"store-manager/internal/apperrors"
	"store-manager/internal/models"
	"store-manager/internal/repository"
	"store-manager/internal/repository/repotest"
)

func profileRequest(email string) models.StoreProfileRequest {
	return models.StoreProfileRequest{
		StoreName:       "Corner Books",
		OwnerName:       "Jane Owner",
		Email:           email,
		Phone:           "555-0100",
		Address:         "12 Market Street",
		Description:     "  ",
		EstablishedYear: models.YearOf(1998),
		Website:         "cornerbooks.example",
	}
}

func TestSaveProfile_CreateThenUpdate(t *testing.T) {
	stores := repotest.NewStores(nil)
	svc := NewStoreService(stores, zerolog.Nop())
	ctx := context.Background()

	created, err := svc.SaveProfile(ctx, 7, profileRequest("  Shop@Example.COM "))
	require.NoError(t, err)
	assert.True(t, created)

	store, err := svc.GetProfile(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "shop@example.com", store.Email)
	assert.Nil(t, store.Description)
	require.NotNil(t, store.EstablishedYear)
	assert.Equal(t, 1998, *store.EstablishedYear)
	require.NotNil(t, store.Website)
	assert.Equal(t, "cornerbooks.example", *store.Website)

	req := profileRequest("shop@example.com")
	req.StoreName = "Corner Books & Coffee"
	req.EstablishedYear = models.Year{}
	created, err = svc.SaveProfile(ctx, 7, req)
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, 1, stores.Count())
	assert.Equal(t, 1, stores.Creates)
	assert.Equal(t, 1, stores.Updates)

	store, err = svc.GetProfile(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Corner Books & Coffee", store.StoreName)
	assert.Nil(t, store.EstablishedYear)
}

func TestSaveProfile_DuplicateEmail(t *testing.T) {
	svc := NewStoreService(repotest.NewStores(nil), zerolog.Nop())
	ctx := context.Background()

	_, err := svc.SaveProfile(ctx, 1, profileRequest("taken@example.com"))
	require.NoError(t, err)

	_, err = svc.SaveProfile(ctx, 2, profileRequest("TAKEN@example.com"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	assert.Equal(t, "Email already exists", err.Error())
}

// racingStores reports no existing row so both callers attempt the insert.
type racingStores struct {
	*repotest.Stores
}

func (racingStores) ExistsByOwner(context.Context, int64) (bool, error) {
	return false, nil
}

func TestSaveProfile_ConcurrentCreateKeepsOneRow(t *testing.T) {
	stores := repotest.NewStores(nil)
	svc := NewStoreService(racingStores{stores}, zerolog.Nop())
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := svc.SaveProfile(ctx, 3, profileRequest("race@example.com"))
			assert.NoError(t, err)
			if c {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 1, stores.Count())
	assert.Equal(t, 7, stores.Updates)
}

func TestGetAndDeleteProfile_NotFound(t *testing.T) {
	svc := NewStoreService(repotest.NewStores(nil), zerolog.Nop())
	ctx := context.Background()

	_, err := svc.GetProfile(ctx, 42)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.Equal(t, "Store profile not found", err.Error())

	err = svc.DeleteProfile(ctx, 42)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestDeleteProfile(t *testing.T) {
	stores := repotest.NewStores(nil)
	svc := NewStoreService(stores, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.SaveProfile(ctx, 5, profileRequest("gone@example.com"))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProfile(ctx, 5))
	assert.Equal(t, 0, stores.Count())
}

func TestListAll(t *testing.T) {
	users := repotest.NewUsers()
	stores := repotest.NewStores(users)
	svc := NewStoreService(stores, zerolog.Nop())
	ctx := context.Background()

	listings, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, listings)
	assert.Empty(t, listings)

	owner := &models.User{FullName: "Jane Example Storekeeper", Email: "jane@example.com", Role: models.RoleOwner}
	require.NoError(t, users.Create(ctx, owner))
	_, err = svc.SaveProfile(ctx, owner.ID, profileRequest("shop@example.com"))
	require.NoError(t, err)

	listings, err = svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Jane Example Storekeeper", listings[0].UserFullName)
	assert.Equal(t, owner.ID, listings[0].OwnerID)
}

func TestStoreService_StorageFailure(t *testing.T) {
	stores := repotest.NewStores(nil)
	stores.Err = errors.New("connection reset")
	svc := NewStoreService(stores, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.SaveProfile(ctx, 1, profileRequest("x@example.com"))
	assert.True(t, apperrors.Is(err, apperrors.KindInternal))
	assert.Equal(t, "Internal Server Error", (err.(*apperrors.Error)).Message)

	_, err = svc.ListAll(ctx)
	assert.True(t, apperrors.Is(err, apperrors.KindInternal))
	assert.False(t, errors.Is(err, repository.ErrNotFound))
}

// vanishingStores reports a row that a concurrent delete has already removed.
type vanishingStores struct {
	*repotest.Stores
}

func (vanishingStores) ExistsByOwner(context.Context, int64) (bool, error) {
	return true, nil
}

func TestSaveProfile_StoreDeletedBeforeUpdate(t *testing.T) {
	stores := repotest.NewStores(nil)
	svc := NewStoreService(vanishingStores{stores}, zerolog.Nop())

	created, err := svc.SaveProfile(context.Background(), 9, profileRequest("late@example.com"))
	require.Error(t, err)
	assert.False(t, created)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.Equal(t, "Store profile not found", err.Error())
	assert.Equal(t, 0, stores.Count())
	assert.Equal(t, 0, stores.Updates)
}
