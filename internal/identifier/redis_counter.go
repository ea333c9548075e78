package identifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyNamespace = "listingcart:counter"

// raiseScript lifts the counter to ARGV[1] unless it already holds a higher value.
const raiseScript = `
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if current < floor then
	redis.call('SET', KEYS[1], floor)
	return floor
end
return current
`

type counterStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisCounter backs sequences with INCR. Values consumed by a creation that later
// rolls back are not reused, so labels may have gaps but never repeat.
type RedisCounter struct {
	store counterStore
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{store: client}
}

func (c *RedisCounter) Increment(ctx context.Context, name string) (int64, error) {
	if c == nil || c.store == nil {
		return 0, errors.New("redis client not initialized")
	}
	if name == "" {
		return 0, errors.New("counter name is required")
	}
	return c.store.Incr(ctx, Key(name)).Result()
}

func Key(name string) string {
	return fmt.Sprintf("%s:%s", keyNamespace, name)
}

// Seed raises the sequence to at least floor and returns the value it now holds.
// A counter already past floor is left alone, so seeding is safe to repeat.
func (c *RedisCounter) Seed(ctx context.Context, name string, floor int64) (int64, error) {
	if c == nil || c.store == nil {
		return 0, errors.New("redis client not initialized")
	}
	if name == "" {
		return 0, errors.New("counter name is required")
	}
	return c.store.Eval(ctx, raiseScript, []string{Key(name)}, floor).Int64()
}
