package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	customErrors "github.com/learnora/learnora-server/internal/domain/auth/errors"
	"github.com/learnora/learnora-server/internal/domain/auth/model"
)

// RedisSessionRepo keeps one JSON user snapshot per logged-in user id.
// Entries carry a TTL equal to the refresh-token lifetime: once the last
// refresh token derived from a session has expired, the session itself is
// gone too.
type RedisSessionRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionRepo(client *redis.Client, ttl time.Duration) *RedisSessionRepo {
	return &RedisSessionRepo{client: client, ttl: ttl}
}

func (r *RedisSessionRepo) Save(ctx context.Context, userID uuid.UUID, user model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(userID), data, r.ttl).Err()
}

func (r *RedisSessionRepo) Get(ctx context.Context, userID uuid.UUID) (model.User, error) {
	data, err := r.client.Get(ctx, sessionKey(userID)).Bytes()
	switch {
	case err == redis.Nil:
		return model.User{}, customErrors.ErrNotFound
	case err != nil:
		return model.User{}, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (r *RedisSessionRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	return r.client.Del(ctx, sessionKey(userID)).Err()
}

func (r *RedisSessionRepo) Touch(ctx context.Context, userID uuid.UUID) error {
	return r.client.Expire(ctx, sessionKey(userID), r.ttl).Err()
}

func sessionKey(userID uuid.UUID) string {
	return "session:" + userID.String()
}
