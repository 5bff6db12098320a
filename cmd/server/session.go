package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/Simplici0/windowcalc/internal/calculator"
)

const sessionCookieName = "uws_session"

// sessionSigner issues and checks visitor cookies. The cookie only identifies
// a visitor's calculator; it grants no privileges.
type sessionSigner struct {
	secret []byte
}

func newSessionSigner(secret string) *sessionSigner {
	return &sessionSigner{secret: []byte(secret)}
}

func (s *sessionSigner) createSessionValue(id string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(id))
	return id + "." + hex.EncodeToString(mac.Sum(nil))
}

func (s *sessionSigner) verifySessionValue(value string) (string, bool) {
	id, signature, ok := strings.Cut(value, ".")
	if !ok {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}

	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(id))
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(provided, expected) {
		return "", false
	}
	return id, true
}

func (s *sessionSigner) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    s.createSessionValue(id),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

type sessionCtxKey struct{}

func sessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionCtxKey{}).(string)
	return id
}

// storeFactory builds the calculator for a visitor session, restoring
// whatever that session left in durable storage.
type storeFactory func(ctx context.Context, sessionID string) (*calculator.Store, error)

type sessionEntry struct {
	store    *calculator.Store
	lastSeen time.Time
}

// sessionManager keeps live calculators in memory and drops the ones idle for
// longer than idle. Dropped sessions are rebuilt from storage on next use.
type sessionManager struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	idle    time.Duration
	build   storeFactory
	builds  singleflight.Group
	now     func() time.Time
}

func newSessionManager(idle time.Duration, build storeFactory) *sessionManager {
	return &sessionManager{
		entries: make(map[string]*sessionEntry),
		idle:    idle,
		build:   build,
		now:     time.Now,
	}
}

// get returns the live store for id, building it from storage on first use.
// Builds run outside mu so a slow storage read only delays callers waiting
// on that same session.
func (m *sessionManager) get(ctx context.Context, id string) (*calculator.Store, error) {
	if store, ok := m.lookup(id); ok {
		return store, nil
	}

	v, err, _ := m.builds.Do(id, func() (any, error) {
		if store, ok := m.lookup(id); ok {
			return store, nil
		}
		store, err := m.build(ctx, id)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.entries[id] = &sessionEntry{store: store, lastSeen: m.now()}
		m.mu.Unlock()
		return store, nil
	})
	if err != nil {
		return nil, fmt.Errorf("build calculator for session: %w", err)
	}
	return v.(*calculator.Store), nil
}

func (m *sessionManager) lookup(id string) (*calculator.Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.evictLocked(now)

	e, ok := m.entries[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = now
	return e.store, true
}

func (m *sessionManager) evictLocked(now time.Time) {
	for id, e := range m.entries {
		if now.Sub(e.lastSeen) > m.idle {
			delete(m.entries, id)
		}
	}
}

func (m *sessionManager) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// sweep evicts idle sessions every interval until ctx is done.
func (m *sessionManager) sweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			m.evictLocked(m.now())
			m.mu.Unlock()
		}
	}
}

// sessionKey scopes a storage record to one visitor.
func sessionKey(base, sessionID string) string {
	return base + ":" + sessionID
}
