package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yummyfi/yummyfi-backend/cycle"
	"github.com/yummyfi/yummyfi-backend/models"
)

// DefaultTTL is how long an untouched cart survives in Redis.
const DefaultTTL = 12 * time.Hour

// Each cart is two hashes keyed by product ID: the line as first added (JSON)
// and its quantity.
func linesKey(session string) string { return fmt.Sprintf("cart:%s:lines", session) }
func qtyKey(session string) string { return fmt.Sprintf("cart:%s:qty", session) }

// KEYS[1] = qty hash, KEYS[2] = lines hash
// ARGV[1] = product id, ARGV[2] = delta, ARGV[3] = ttl seconds
// Returns -1 when the line does not exist.
var updateQuantityScript = redis.NewScript(`
local qty = tonumber(redis.call("HGET", KEYS[1], ARGV[1]))
if not qty then
    return -1
end
local newQty = qty + tonumber(ARGV[2])
if newQty > 0 then
    redis.call("HSET", KEYS[1], ARGV[1], newQty)
    qty = newQty
end
redis.call("EXPIRE", KEYS[1], ARGV[3])
redis.call("EXPIRE", KEYS[2], ARGV[3])
return qty
`)

// KEYS[1] = qty hash, KEYS[2] = lines hash
// Returns {lines, quantities} as flat field/value lists and deletes both.
var takeScript = redis.NewScript(`
local lines = redis.call("HGETALL", KEYS[2])
local qty = redis.call("HGETALL", KEYS[1])
redis.call("DEL", KEYS[1], KEYS[2])
return {lines, qty}
`)

// RedisStore keeps carts in Redis so every server instance sees the same cart.
type RedisStore struct {
	client *redis.Client
	clock  cycle.Clock
	ttl    time.Duration
}

// NewRedisStore connects lazily; the first command dials.
func NewRedisStore(addr, password string, db int, clock cycle.Clock) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: rdb, clock: clock, ttl: DefaultTTL}
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Items(ctx context.Context, session string) ([]Item, error) {
	if session == "" {
		return nil, ErrMissingSession
	}
	lines, err := r.client.HGetAll(ctx, linesKey(session)).Result()
	if err != nil {
		return nil, fmt.Errorf("read cart lines: %w", err)
	}
	qtys, err := r.client.HGetAll(ctx, qtyKey(session)).Result()
	if err != nil {
		return nil, fmt.Errorf("read cart quantities: %w", err)
	}
	return decodeCart(lines, qtys)
}

func decodeCart(lines, qtys map[string]string) ([]Item, error) {
	items := make([]Item, 0, len(lines))
	for productID, raw := range lines {
		var item Item
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("decode cart line %s: %w", productID, err)
		}
		q, err := strconv.Atoi(qtys[productID])
		if err != nil || q < 1 {
			continue
		}
		item.Quantity = q
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].AddedAt.Before(items[j].AddedAt)
	})
	return items, nil
}

func (r *RedisStore) Add(ctx context.Context, session string, p models.Product) ([]Item, error) {
	if session == "" {
		return nil, ErrMissingSession
	}
	raw, err := json.Marshal(FromProduct(p, r.clock.Now()))
	if err != nil {
		return nil, err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, linesKey(session), p.ID, raw)
		pipe.HIncrBy(ctx, qtyKey(session), p.ID, 1)
		pipe.Expire(ctx, linesKey(session), r.ttl)
		pipe.Expire(ctx, qtyKey(session), r.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	return r.Items(ctx, session)
}

func (r *RedisStore) UpdateQuantity(ctx context.Context, session, productID string, delta int) ([]Item, error) {
	if session == "" {
		return nil, ErrMissingSession
	}
	keys := []string{qtyKey(session), linesKey(session)}
	res, err := updateQuantityScript.Run(ctx, r.client, keys, productID, delta, int(r.ttl.Seconds())).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("update cart quantity: %w", err)
	}
	if res < 0 {
		return nil, ErrItemNotFound
	}
	return r.Items(ctx, session)
}

func (r *RedisStore) Remove(ctx context.Context, session, productID string) ([]Item, error) {
	if session == "" {
		return nil, ErrMissingSession
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, linesKey(session), productID)
		pipe.HDel(ctx, qtyKey(session), productID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("remove from cart: %w", err)
	}
	return r.Items(ctx, session)
}

func (r *RedisStore) Clear(ctx context.Context, session string) error {
	if session == "" {
		return ErrMissingSession
	}
	if err := r.client.Del(ctx, linesKey(session), qtyKey(session)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (r *RedisStore) Take(ctx context.Context, session string) ([]Item, error) {
	if session == "" {
		return nil, ErrMissingSession
	}
	res, err := takeScript.Run(ctx, r.client, []string{qtyKey(session), linesKey(session)}).Slice()
	if err != nil {
		return nil, fmt.Errorf("take cart: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("take cart: unexpected reply of %d values", len(res))
	}
	lines, err := fieldMap(res[0])
	if err != nil {
		return nil, fmt.Errorf("take cart lines: %w", err)
	}
	qtys, err := fieldMap(res[1])
	if err != nil {
		return nil, fmt.Errorf("take cart quantities: %w", err)
	}
	return decodeCart(lines, qtys)
}

func (r *RedisStore) Restore(ctx context.Context, session string, items []Item) error {
	if session == "" {
		return ErrMissingSession
	}
	if len(items) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, item := range items {
			raw, err := json.Marshal(item)
			if err != nil {
				return err
			}
			pipe.HSetNX(ctx, linesKey(session), item.ProductID, raw)
			pipe.HIncrBy(ctx, qtyKey(session), item.ProductID, int64(item.Quantity))
		}
		pipe.Expire(ctx, linesKey(session), r.ttl)
		pipe.Expire(ctx, qtyKey(session), r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("restore cart: %w", err)
	}
	return nil
}

// fieldMap turns an HGETALL reply from a script into a map.
func fieldMap(v interface{}) (map[string]string, error) {
	flat, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected reply type %T", v)
	}
	out := make(map[string]string, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		k, kok := flat[i].(string)
		val, vok := flat[i+1].(string)
		if !kok || !vok {
			return nil, fmt.Errorf("unexpected field types %T, %T", flat[i], flat[i+1])
		}
		out[k] = val
	}
	return out, nil
}
