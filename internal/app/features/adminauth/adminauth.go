// internal/app/features/adminauth/adminauth.go
// Package adminauth protects the admin API with a shared key and carries
// the acting admin through the request context.
package adminauth

import (
	"context"
	"net/http"
	"strings"

	"github.com/devweekends/clanverify/internal/app/features/shared/respond"
	"github.com/devweekends/clanverify/internal/app/system/auditlog"
	"github.com/devweekends/clanverify/internal/app/system/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Request headers read by the middleware.
const (
	HeaderAPIKey    = "X-API-Key"
	HeaderActorID   = "X-Actor-ID"
	HeaderActorName = "X-Actor-Name"
)

// DefaultActor is recorded when a caller does not identify itself.
var DefaultActor = auditlog.Actor{ID: "api-key", Name: "Admin"}

type ctxKey string

const actorKey ctxKey = "adminActor"

// WithActor returns ctx carrying actor.
func WithActor(ctx context.Context, actor auditlog.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFrom returns the actor stored by the middleware.
func ActorFrom(ctx context.Context) (auditlog.Actor, bool) {
	a, ok := ctx.Value(actorKey).(auditlog.Actor)
	return a, ok
}

// Actor returns the request's actor, or DefaultActor.
func Actor(r *http.Request) auditlog.Actor {
	if a, ok := ActorFrom(r.Context()); ok {
		return a
	}
	return DefaultActor
}

// Middleware checks the admin key against a bcrypt hash.
type Middleware struct {
	hash    []byte
	limiter *ratelimit.AuthLimiter
	log     *zap.Logger
}

// New returns a Middleware for keyHash. An empty hash rejects every
// request. limiter may be nil.
func New(keyHash string, limiter *ratelimit.AuthLimiter, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{hash: []byte(strings.TrimSpace(keyHash)), limiter: limiter, log: logger}
}

// HashKey returns the bcrypt hash to configure for key.
func HashKey(key string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// presentedKey reads the key from X-API-Key or a bearer token.
func presentedKey(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get(HeaderAPIKey)); k != "" {
		return k
	}
	if tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(tok)
	}
	return ""
}

// Require admits requests carrying the admin key and stores the actor
// named by the X-Actor headers in the context.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(m.hash) == 0 {
			respond.Message(w, http.StatusServiceUnavailable, "Admin API is not configured.")
			return
		}
		if m.limiter != nil && m.limiter.Blocked(r) {
			ratelimit.TooMany(w, m.limiter.RetryAfter())
			return
		}

		key := presentedKey(r)
		if key == "" || bcrypt.CompareHashAndPassword(m.hash, []byte(key)) != nil {
			if m.limiter != nil {
				m.limiter.Fail(r)
			}
			m.log.Warn("admin api: rejected key",
				zap.String("ip", ratelimit.ClientIP(r)),
				zap.String("path", r.URL.Path))
			respond.Message(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if m.limiter != nil {
			m.limiter.Succeed(r)
		}

		actor := DefaultActor
		if id := strings.TrimSpace(r.Header.Get(HeaderActorID)); id != "" {
			actor = auditlog.Actor{ID: id, Name: strings.TrimSpace(r.Header.Get(HeaderActorName))}
			if actor.Name == "" {
				actor.Name = id
			}
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}
