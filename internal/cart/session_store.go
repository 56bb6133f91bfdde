package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// SessionCart maps item ids (as strings) to quantities.
type SessionCart map[string]int

// IsEmpty reports whether the cart holds no lines.
func (c SessionCart) IsEmpty() bool {
	return len(c) == 0
}

// Keys returns item keys in a stable order.
func (c SessionCart) Keys() []string {
	keys := make([]string, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// NewToken issues a fresh guest cart token.
func NewToken() string {
	return uuid.NewString()
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SessionCartKey(token string) string
}

// RedisSessionStore keeps guest carts in redis with a sliding TTL.
type RedisSessionStore struct {
	client redisStore
	ttl    time.Duration
}

// NewRedisSessionStore binds the store to the redis client.
func NewRedisSessionStore(client redisStore, ttl time.Duration) (*RedisSessionStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session cart ttl must be positive")
	}
	return &RedisSessionStore{client: client, ttl: ttl}, nil
}

// Load returns the guest cart, or an empty cart when none is stored.
func (s *RedisSessionStore) Load(ctx context.Context, token string) (SessionCart, error) {
	if strings.TrimSpace(token) == "" {
		return SessionCart{}, nil
	}
	raw, err := s.client.Get(ctx, s.client.SessionCartKey(token))
	if errors.Is(err, goredis.Nil) {
		return SessionCart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session cart: %w", err)
	}
	return DecodeSessionCart([]byte(raw))
}

// Save writes the cart and refreshes its TTL. An empty cart deletes the key.
func (s *RedisSessionStore) Save(ctx context.Context, token string, cart SessionCart) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("cart token required")
	}
	if cart.IsEmpty() {
		return s.Delete(ctx, token)
	}
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode session cart: %w", err)
	}
	if err := s.client.Set(ctx, s.client.SessionCartKey(token), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save session cart: %w", err)
	}
	return nil
}

// Delete drops the guest cart.
func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return s.client.Del(ctx, s.client.SessionCartKey(token))
}

// DecodeSessionCart accepts the map form {"<item id>": qty} and the legacy
// list form ["<item id>", ...] where every occurrence counts as one unit.
func DecodeSessionCart(raw []byte) (SessionCart, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return SessionCart{}, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var ids []string
		if err := json.Unmarshal([]byte(trimmed), &ids); err != nil {
			return nil, fmt.Errorf("decode legacy session cart: %w", err)
		}
		cart := SessionCart{}
		for _, id := range ids {
			cart[id]++
		}
		return cart, nil
	}

	cart := SessionCart{}
	if err := json.Unmarshal([]byte(trimmed), &cart); err != nil {
		return nil, fmt.Errorf("decode session cart: %w", err)
	}
	return cart, nil
}
