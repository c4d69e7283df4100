// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"store-manager/internal/models"
	"store-manager/internal/repository"
)

type Users struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]models.User
	// Err, when set, is returned by every call.
	Err error
}

func NewUsers() *Users {
	return &Users{rows: map[int64]models.User{}}
}

func (r *Users) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, u := range r.rows {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.nextID++
	user.ID = r.nextID
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.rows[user.ID] = *user
	return nil
}

func (r *Users) FindByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *Users) FindByEmail(_ context.Context, email string, role models.Role) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.rows {
		if u.Email == email && (!role.IsValid() || u.Role == role) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Users) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	u, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	r.rows[id] = u
	return nil
}

func (r *Users) Delete(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
}

func (r *Users) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type Stores struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]models.Store // by owner
	users  *Users
	// Creates counts successful inserts.
	Creates int
	Updates int
	Err     error
}

// NewStores joins listings against users when it is non-nil.
func NewStores(users *Users) *Stores {
	return &Stores{rows: map[int64]models.Store{}, users: users}
}

func (r *Stores) FindByOwner(_ context.Context, ownerID int64) (*models.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	s, ok := r.rows[ownerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *Stores) ExistsByOwner(_ context.Context, ownerID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	_, ok := r.rows[ownerID]
	return ok, nil
}

func (r *Stores) emailTaken(email string, ownerID int64) bool {
	for owner, s := range r.rows {
		if owner != ownerID && strings.EqualFold(s.Email, email) {
			return true
		}
	}
	return false
}

func (r *Stores) Create(_ context.Context, store *models.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.rows[store.OwnerID]; ok {
		return repository.ErrDuplicateOwner
	}
	if r.emailTaken(store.Email, store.OwnerID) {
		return repository.ErrDuplicateEmail
	}
	r.nextID++
	store.ID = r.nextID
	now := time.Now()
	store.CreatedAt, store.UpdatedAt = now, now
	r.rows[store.OwnerID] = *store
	r.Creates++
	return nil
}

func (r *Stores) UpdateByOwner(_ context.Context, store *models.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	existing, ok := r.rows[store.OwnerID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.emailTaken(store.Email, store.OwnerID) {
		return repository.ErrDuplicateEmail
	}
	updated := *store
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()
	r.rows[store.OwnerID] = updated
	r.Updates++
	return nil
}

func (r *Stores) DeleteByOwner(_ context.Context, ownerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.rows[ownerID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, ownerID)
	return nil
}

func (r *Stores) ListWithOwners(ctx context.Context) ([]models.StoreListing, error) {
	r.mu.Lock()
	stores := make([]models.Store, 0, len(r.rows))
	for _, s := range r.rows {
		stores = append(stores, s)
	}
	err := r.Err
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	slices.SortFunc(stores, func(a, b models.Store) int { return int(a.ID - b.ID) })

	out := []models.StoreListing{}
	for _, s := range stores {
		listing := models.StoreListing{Store: s}
		if r.users != nil {
			u, err := r.users.FindByID(ctx, s.OwnerID)
			if err != nil {
				continue
			}
			listing.UserFullName = u.FullName
		}
		out = append(out, listing)
	}
	return out, nil
}

func (r *Stores) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type ResetTokens struct {
	mu   sync.Mutex
	rows map[string]models.PasswordReset
	Err  error
}

func NewResetTokens() *ResetTokens {
	return &ResetTokens{rows: map[string]models.PasswordReset{}}
}

func (r *ResetTokens) Save(_ context.Context, reset *models.PasswordReset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for hash, existing := range r.rows {
		if existing.UserID == reset.UserID {
			delete(r.rows, hash)
		}
	}
	r.rows[reset.TokenHash] = *reset
	return nil
}

func (r *ResetTokens) Consume(_ context.Context, tokenHash string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	reset, ok := r.rows[tokenHash]
	if !ok || reset.UsedAt != nil || !now.Before(reset.ExpiresAt) {
		return 0, repository.ErrNotFound
	}
	used := now
	reset.UsedAt = &used
	r.rows[tokenHash] = reset
	return reset.UserID, nil
}

func (r *ResetTokens) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

var (
	_ repository.UserRepository       = (*Users)(nil)
	_ repository.StoreRepository      = (*Stores)(nil)
	_ repository.ResetTokenRepository = (*ResetTokens)(nil)
)
