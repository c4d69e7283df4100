package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"store-manager/internal/models"
)

const userColumns = "id, fullName, email, password, address, role, createdAt, updatedAt"

type UserMySQL struct {
	db *sql.DB
}

func NewUserMySQL(db *sql.DB) *UserMySQL {
	return &UserMySQL{db: db}
}

func (r *UserMySQL) Create(ctx context.Context, user *models.User) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO users (fullName, email, password, address, role) VALUES (?, ?, ?, ?, ?)",
		user.FullName, user.Email, user.PasswordHash, user.Address, user.Role,
	)
	if err != nil {
		if duplicateKey(err) != "" {
			return ErrDuplicateEmail
		}
		return errors.Wrap(err, "failed to create user")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to get user ID")
	}
	user.ID = id
	return nil
}

func (r *UserMySQL) FindByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

func (r *UserMySQL) FindByEmail(ctx context.Context, email string, role models.Role) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	args := []any{email}
	if role.IsValid() {
		query += " AND LOWER(role) = LOWER(?)"
		args = append(args, role.String())
	}
	query += " LIMIT 1"

	return scanUser(r.db.QueryRowContext(ctx, query, args...))
}

func (r *UserMySQL) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE users SET password = ? WHERE id = ?", passwordHash, id)
	if err != nil {
		return errors.Wrap(err, "failed to update password")
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

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Address, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan user")
	}
	return &u, nil
}
