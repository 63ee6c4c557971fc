package liveness

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"kyc/pkg/kycerrors"
)

const sessionKeyPrefix = "liveness:session:"

// RedisStore keeps session bindings in Redis so results can be fetched from
// any instance. Expiry is handled by the key TTL.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Bind(ctx context.Context, sessionID string, binding Binding, ttl time.Duration) error {
	payload, err := json.Marshal(binding)
	if err != nil {
		return kycerrors.Wrap(err, kycerrors.CodeInternal, "could not encode session binding")
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+sessionID, payload, ttl).Err(); err != nil {
		return kycerrors.Wrap(err, kycerrors.CodeInternal, "could not store session binding")
	}
	return nil
}

func (s *RedisStore) Lookup(ctx context.Context, sessionID string) (Binding, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Binding{}, ErrSessionNotFound
	}
	if err != nil {
		return Binding{}, kycerrors.Wrap(err, kycerrors.CodeInternal, "could not read session binding")
	}
	var binding Binding
	if err := json.Unmarshal(payload, &binding); err != nil {
		return Binding{}, kycerrors.Wrap(err, kycerrors.CodeInternal, "could not decode session binding")
	}
	return binding, nil
}
