// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps issued values in Redis so that several verifier instances
// can share them. Keys expire after the TTL configured for their kind.
type RedisStore struct {
	client *redis.Client
	ttl    map[Kind]time.Duration
}

// NewRedisStore wraps client. Values of a kind with no TTL never expire on
// the Redis side; their age is still checked by the caller.
func NewRedisStore(client *redis.Client, ttl map[Kind]time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(kind Kind, value string) string {
	return "cmdattest:" + string(kind) + ":" + value
}

func (s *RedisStore) Put(ctx context.Context, kind Kind, value string, issued time.Time) error {
	ts := strconv.FormatInt(issued.UnixMilli(), 10)

	if err := s.client.Set(ctx, redisKey(kind, value), ts, s.ttl[kind]).Err(); err != nil {
		return errors.Wrapf(err, "failed to store %s", kind)
	}

	return nil
}

func (s *RedisStore) Take(ctx context.Context, kind Kind, value string) (time.Time, error) {
	ts, err := s.client.GetDel(ctx, redisKey(kind, value)).Result()
	if err != nil {
		if err == redis.Nil {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, errors.Wrapf(err, "failed to take %s", kind)
	}

	ms, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "corrupt %s timestamp", kind)
	}

	return time.UnixMilli(ms), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
