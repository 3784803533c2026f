package adminauth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/devweekends/clanverify/internal/app/features/adminauth"
	"github.com/devweekends/clanverify/internal/app/system/auditlog"
	"github.com/devweekends/clanverify/internal/app/system/ratelimit"
	"golang.org/x/crypto/bcrypt"
)

func testHash(t *testing.T, key string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash key: %v", err)
	}
	return string(h)
}

// echoActor responds 200 and records the actor it saw.
func echoActor(got *auditlog.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = adminauth.Actor(r)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequire(t *testing.T) {
	hash := testHash(t, "s3cret")

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantActor  auditlog.Actor
	}{
		{"no key", nil, http.StatusUnauthorized, auditlog.Actor{}},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized, auditlog.Actor{}},
		{"api key header", map[string]string{"X-API-Key": "s3cret"}, http.StatusOK, adminauth.DefaultActor},
		{"bearer", map[string]string{"Authorization": "Bearer s3cret"}, http.StatusOK, adminauth.DefaultActor},
		{
			"named actor",
			map[string]string{"X-API-Key": "s3cret", "X-Actor-ID": "u1", "X-Actor-Name": "Ayesha"},
			http.StatusOK,
			auditlog.Actor{ID: "u1", Name: "Ayesha"},
		},
		{
			"actor without name",
			map[string]string{"X-API-Key": "s3cret", "X-Actor-ID": "u2"},
			http.StatusOK,
			auditlog.Actor{ID: "u2", Name: "u2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got auditlog.Actor
			h := adminauth.New(hash, nil, nil).Require(echoActor(&got))

			req := httptest.NewRequest(http.MethodGet, "/api/clans", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got != tt.wantActor {
				t.Errorf("actor = %+v, want %+v", got, tt.wantActor)
			}
		})
	}
}

func TestRequire_NotConfigured(t *testing.T) {
	var got auditlog.Actor
	h := adminauth.New("", nil, nil).Require(echoActor(&got))
	req := httptest.NewRequest(http.MethodGet, "/api/clans", nil)
	req.Header.Set("X-API-Key", "anything")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestRequire_ThrottlesFailures(t *testing.T) {
	limiter := ratelimit.NewAuthLimiter(2, time.Minute)
	defer limiter.Stop()
	var got auditlog.Actor
	h := adminauth.New(testHash(t, "s3cret"), limiter, nil).Require(echoActor(&got))

	send := func(key string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/clans", nil)
		req.Header.Set("X-API-Key", key)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	send("bad")
	send("bad")
	if code := send("s3cret"); code != http.StatusTooManyRequests {
		t.Errorf("status after failures = %d, want 429", code)
	}
}

func TestHashKey(t *testing.T) {
	h, err := adminauth.HashKey("k")
	if err != nil {
		t.Fatalf("HashKey: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(h), []byte("k")) != nil {
		t.Error("hash does not match key")
	}
}
