package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"store-manager/internal/models"
)

const (
	storeColumns       = "id, ownerId, storeName, ownerName, email, phone, address, description, establishedYear, website, createdAt, updatedAt"
	storeOwnerIndex    = "uq_stores_owner"
	storeEmailIndex    = "uq_stores_email"
	storeListingSelect = `SELECT s.id, s.ownerId, s.storeName, s.ownerName, s.email, s.phone, s.address,
		s.description, s.establishedYear, s.website, s.createdAt, s.updatedAt, u.fullName AS userFullName
		FROM stores s JOIN users u ON s.ownerId = u.id ORDER BY s.id`
)

type StoreMySQL struct {
	db *sql.DB
}

func NewStoreMySQL(db *sql.DB) *StoreMySQL {
	return &StoreMySQL{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *StoreMySQL) FindByOwner(ctx context.Context, ownerID int64) (*models.Store, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+storeColumns+" FROM stores WHERE ownerId = ?", ownerID)
	s, err := scanStore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch store")
	}
	return s, nil
}

func (r *StoreMySQL) ExistsByOwner(ctx context.Context, ownerID int64) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, "SELECT id FROM stores WHERE ownerId = ?", ownerID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to probe store")
	}
	return true, nil
}

func (r *StoreMySQL) Create(ctx context.Context, s *models.Store) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO stores (storeName, ownerName, email, phone, address, description, establishedYear, website, ownerId)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.StoreName, s.OwnerName, s.Email, s.Phone, s.Address, s.Description, s.EstablishedYear, s.Website, s.OwnerID,
	)
	if err != nil {
		return storeWriteError(err, "failed to create store")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to get store ID")
	}
	s.ID = id
	return nil
}

// UpdateByOwner returns ErrNotFound when the owner has no store. Matched rows
// are counted, not changed rows, because the DSN sets clientFoundRows.
func (r *StoreMySQL) UpdateByOwner(ctx context.Context, s *models.Store) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE stores SET
			storeName = ?,
			ownerName = ?,
			email = ?,
			phone = ?,
			address = ?,
			description = ?,
			establishedYear = ?,
			website = ?,
			updatedAt = NOW()
		WHERE ownerId = ?`,
		s.StoreName, s.OwnerName, s.Email, s.Phone, s.Address, s.Description, s.EstablishedYear, s.Website, s.OwnerID,
	)
	if err != nil {
		return storeWriteError(err, "failed to update store")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *StoreMySQL) DeleteByOwner(ctx context.Context, ownerID int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM stores WHERE ownerId = ?", ownerID)
	if err != nil {
		return errors.Wrap(err, "failed to delete store")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *StoreMySQL) ListWithOwners(ctx context.Context) ([]models.StoreListing, error) {
	rows, err := r.db.QueryContext(ctx, storeListingSelect)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stores")
	}
	defer rows.Close()

	listings := []models.StoreListing{}
	for rows.Next() {
		var l models.StoreListing
		s, err := scanStore(rows, &l.UserFullName)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan store")
		}
		l.Store = *s
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate stores")
	}
	return listings, nil
}

func scanStore(row rowScanner, extra ...any) (*models.Store, error) {
	var (
		s           models.Store
		description sql.NullString
		year        sql.NullInt64
		website     sql.NullString
	)
	dest := []any{
		&s.ID, &s.OwnerID, &s.StoreName, &s.OwnerName, &s.Email, &s.Phone, &s.Address,
		&description, &year, &website, &s.CreatedAt, &s.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if description.Valid {
		s.Description = &description.String
	}
	if year.Valid {
		y := int(year.Int64)
		s.EstablishedYear = &y
	}
	if website.Valid {
		s.Website = &website.String
	}
	return &s, nil
}

func storeWriteError(err error, msg string) error {
	switch duplicateKey(err) {
	case "":
		return errors.Wrap(err, msg)
	case storeOwnerIndex:
		return ErrDuplicateOwner
	default:
		return ErrDuplicateEmail
	}
}
