package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"store-manager/internal/models"
)

type ResetTokenMySQL struct {
	db *sql.DB
}

func NewResetTokenMySQL(db *sql.DB) *ResetTokenMySQL {
	return &ResetTokenMySQL{db: db}
}

func (r *ResetTokenMySQL) Save(ctx context.Context, reset *models.PasswordReset) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM password_resets WHERE userId = ?", reset.UserID); err != nil {
		return errors.Wrap(err, "failed to discard previous reset tokens")
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO password_resets (tokenHash, userId, expiresAt) VALUES (?, ?, ?)",
		reset.TokenHash, reset.UserID, reset.ExpiresAt.UTC(),
	); err != nil {
		return errors.Wrap(err, "failed to store reset token")
	}

	return errors.Wrap(tx.Commit(), "failed to commit reset token")
}

func (r *ResetTokenMySQL) Consume(ctx context.Context, tokenHash string, now time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	var (
		userID    int64
		expiresAt time.Time
		usedAt    sql.NullTime
	)
	err = tx.QueryRowContext(ctx,
		"SELECT userId, expiresAt, usedAt FROM password_resets WHERE tokenHash = ? FOR UPDATE",
		tokenHash,
	).Scan(&userID, &expiresAt, &usedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to fetch reset token")
	}
	if usedAt.Valid || !now.Before(expiresAt) {
		return 0, ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE password_resets SET usedAt = ? WHERE tokenHash = ?", now.UTC(), tokenHash,
	); err != nil {
		return 0, errors.Wrap(err, "failed to mark reset token used")
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit reset token")
	}
	return userID, nil
}
