package dialog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the externalized StateStore for multi-instance deployments.
// Values are JSON with the version embedded; the per-key TTL doubles as the
// inactivity reap, refreshed on every Put.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func stateKey(callID string) string { return "dialog:call:" + callID }

// casPutScript swaps the stored state only when the embedded version still
// matches the caller's expectation. Returns 1 on success, 0 on conflict.
var casPutScript = redis.NewScript(`
-- KEYS[1] = state key
-- ARGV[1] = expected version (int)
-- ARGV[2] = new payload (json, version already incremented)
-- ARGV[3] = ttl_ms (int)
local cur = redis.call('GET', KEYS[1])
local ver = 0
if cur then
  local ok, decoded = pcall(cjson.decode, cur)
  if ok and decoded['version'] then
    ver = tonumber(decoded['version'])
  end
end
if ver ~= tonumber(ARGV[1]) then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

func (s *RedisStore) Get(ctx context.Context, callID string) (CallState, bool, error) {
	raw, err := s.rdb.Get(ctx, stateKey(callID)).Bytes()
	if err == redis.Nil {
		return CallState{}, false, nil
	}
	if err != nil {
		return CallState{}, false, fmt.Errorf("dialog: redis get: %w", err)
	}

	var st CallState
	if err := json.Unmarshal(raw, &st); err != nil {
		return CallState{}, false, fmt.Errorf("dialog: corrupt call state: %w", err)
	}
	return st, true, nil
}

func (s *RedisStore) Put(ctx context.Context, st CallState) error {
	expected := st.Version

	stored := st
	stored.Version = expected + 1
	stored.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("dialog: marshal call state: %w", err)
	}

	res, err := casPutScript.Run(ctx, s.rdb, []string{stateKey(st.CallID)}, expected, payload, s.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("dialog: redis put: %w", err)
	}
	if res != 1 {
		return ErrVersionConflict
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, callID string) error {
	if err := s.rdb.Del(ctx, stateKey(callID)).Err(); err != nil {
		return fmt.Errorf("dialog: redis delete: %w", err)
	}
	return nil
}
