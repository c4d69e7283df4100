package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"store-manager/internal/models"
)

// ResetTokenRedis keeps reset tokens as expiring keys. Expiry is enforced by
// the key TTL and single use by GETDEL.
type ResetTokenRedis struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewResetTokenRedis(client redis.Cmdable, prefix string) *ResetTokenRedis {
	return &ResetTokenRedis{client: client, prefix: prefix, now: time.Now}
}

func (r *ResetTokenRedis) tokenKey(hash string) string {
	return fmt.Sprintf("%s:token:%s", r.prefix, hash)
}

func (r *ResetTokenRedis) userKey(userID int64) string {
	return fmt.Sprintf("%s:user:%d", r.prefix, userID)
}

func (r *ResetTokenRedis) Save(ctx context.Context, reset *models.PasswordReset) error {
	ttl := reset.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return errors.New("reset token already expired")
	}

	previous, err := r.client.Get(ctx, r.userKey(reset.UserID)).Result()
	switch {
	case err == nil:
		if err := r.client.Del(ctx, r.tokenKey(previous)).Err(); err != nil {
			return errors.Wrap(err, "failed to discard previous reset token")
		}
	case !errors.Is(err, redis.Nil):
		return errors.Wrap(err, "failed to read previous reset token")
	}

	if err := r.client.Set(ctx, r.tokenKey(reset.TokenHash), strconv.FormatInt(reset.UserID, 10), ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to store reset token")
	}
	if err := r.client.Set(ctx, r.userKey(reset.UserID), reset.TokenHash, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to index reset token")
	}
	return nil
}

func (r *ResetTokenRedis) Consume(ctx context.Context, tokenHash string, _ time.Time) (int64, error) {
	val, err := r.client.GetDel(ctx, r.tokenKey(tokenHash)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to consume reset token")
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "corrupt reset token entry")
	}

	// The index key only serves Save; a failure here leaves a dangling pointer
	// that expires on its own.
	_ = r.client.Del(ctx, r.userKey(userID)).Err()
	return userID, nil
}
