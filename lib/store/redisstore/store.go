package redisstore

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "dlock:lease"

// deleteIfOwnerScript atomically deletes the lease only when the stored
// owner (the part of the value before the separator) matches ARGV[1].
var deleteIfOwnerScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then
  return 0
end
local owner = string.match(v, "^(.-)|")
if owner == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// --------------------------------------------------------------------------
// Store Implementation
// --------------------------------------------------------------------------

type redisStore struct {
	client redis.Cmdable
	prefix string
}

// New creates a Redis-backed lease store using the given client. All keys
// are placed under prefix (default "dlock:lease") so a shared Redis can
// host unrelated data next to the leases.
func New(client redis.Cmdable, prefix string) store.ILeaseStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &redisStore{client: client, prefix: prefix}
}

func (s *redisStore) key(resource string) string {
	return s.prefix + ":" + resource
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *redisStore) TryInsert(ctx context.Context, resource, owner string, ttl time.Duration, now time.Time) (bool, error) {
	if err := store.ValidateKeys(resource, owner); err != nil {
		return false, err
	}
	if ttl <= 0 {
		return false, store.NewError(store.RetCInvalidArgument, "ttl must be positive")
	}

	// SET NX PX is one atomic operation at the server; an expired lease is
	// already gone, so "absent or expired" needs no extra condition.
	value := encodeValue(owner, now)
	inserted, err := s.client.SetNX(ctx, s.key(resource), value, ttl).Result()
	if err != nil {
		return false, wrapRedisErr("setnx", err)
	}
	return inserted, nil
}

func (s *redisStore) DeleteIfOwner(ctx context.Context, resource, owner string) (bool, error) {
	if err := store.ValidateKeys(resource, owner); err != nil {
		return false, err
	}

	n, err := deleteIfOwnerScript.Run(ctx, s.client, []string{s.key(resource)}, owner).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, wrapRedisErr("delete script", err)
	}
	return n > 0, nil
}

func (s *redisStore) Peek(ctx context.Context, resource string, now time.Time) (store.LeaseRecord, bool, error) {
	if resource == "" {
		return store.LeaseRecord{}, false, store.NewError(store.RetCInvalidArgument, "resource must not be empty")
	}

	key := s.key(resource)
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return store.LeaseRecord{}, false, nil
	}
	if err != nil {
		return store.LeaseRecord{}, false, wrapRedisErr("get", err)
	}

	pttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return store.LeaseRecord{}, false, wrapRedisErr("pttl", err)
	}
	if pttl < 0 {
		// key vanished or has no expiry between the two commands; treat as absent
		return store.LeaseRecord{}, false, nil
	}

	owner, acquiredAt := decodeValue(value)
	return store.LeaseRecord{
		Resource:   resource,
		Owner:      owner,
		AcquiredAt: acquiredAt,
		ExpiresAt:  now.Add(pttl),
	}, true, nil
}

// Sweep is a no-op: Redis drops expired keys itself, so there is never
// physical garbage to collect.
func (s *redisStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func encodeValue(owner string, acquiredAt time.Time) string {
	return owner + "|" + strconv.FormatInt(acquiredAt.UnixMilli(), 10)
}

func decodeValue(value string) (owner string, acquiredAt time.Time) {
	idx := strings.LastIndexByte(value, '|')
	if idx < 0 {
		return value, time.Time{}
	}
	millis, err := strconv.ParseInt(value[idx+1:], 10, 64)
	if err != nil {
		return value[:idx], time.Time{}
	}
	return value[:idx], time.UnixMilli(millis)
}

func wrapRedisErr(op string, err error) *store.Error {
	return store.NewErrorf(store.RetCUnavailable, "redis %s: %v", op, err)
}
