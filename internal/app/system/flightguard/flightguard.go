// internal/app/system/flightguard/flightguard.go
// Package flightguard admits at most one in-flight operation per key.
//
// The verification service takes a Guard keyed by Discord user id so a
// user cannot run two "submit email" flows at once. Local is enough for a
// single bot process; Redis extends the same guarantee across processes.
package flightguard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrInProgress is returned by Acquire when the key is already held.
var ErrInProgress = errors.New("operation already in progress")

// Guard hands out per-key exclusive admission. The returned release func
// is safe to call more than once.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Local is a process-local Guard.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocal returns an empty process-local guard.
func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

// Acquire claims key or fails with ErrInProgress.
func (g *Local) Acquire(_ context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; ok {
		return nil, ErrInProgress
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}

// Held reports whether key is currently claimed.
func (g *Local) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[key]
	return ok
}

const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// DefaultLockTTL bounds how long a crashed holder can block a key.
const DefaultLockTTL = 30 * time.Second

// Redis is a Guard backed by SET NX with an owner token. Release only
// deletes the key while it still holds this owner's token, so a lock that
// expired and was taken by someone else is left alone.
type Redis struct {
	client *redis.Client
	script *redis.Script
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedis returns a Redis guard. Keys are stored as prefix+key.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &Redis{
		client: client,
		script: redis.NewScript(releaseScript),
		prefix: prefix,
		ttl:    ttl,
		log:    logger,
	}
}

// Acquire claims key or fails with ErrInProgress.
func (g *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, errors.New("flightguard: empty key")
	}
	rkey := g.prefix + key
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, rkey, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("flightguard: acquire %s: %w", rkey, err)
	}
	if !ok {
		return nil, ErrInProgress
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's ctx may already be done by the time release runs.
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := g.script.Run(rctx, g.client, []string{rkey}, token).Err(); err != nil {
				g.log.Warn("flightguard: release failed", zap.String("key", rkey), zap.Error(err))
			}
		})
	}, nil
}
