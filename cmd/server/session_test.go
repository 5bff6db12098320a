package main

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/windowcalc/internal/calculator"
	"github.com/Simplici0/windowcalc/internal/catalog"
	"github.com/Simplici0/windowcalc/internal/history"
	"github.com/Simplici0/windowcalc/internal/kv"
)

func TestSessionValueRoundTrip(t *testing.T) {
	signer := newSessionSigner("secret")
	id := uuid.NewString()

	got, ok := signer.verifySessionValue(signer.createSessionValue(id))
	if !ok || got != id {
		t.Fatalf("verifySessionValue = %q, %v; want %q, true", got, ok, id)
	}
}

func TestSessionValueRejectsTampering(t *testing.T) {
	signer := newSessionSigner("secret")
	id := uuid.NewString()
	value := signer.createSessionValue(id)
	_, signature, _ := strings.Cut(value, ".")

	cases := map[string]string{
		"empty":        "",
		"no signature": id,
		"bad hex":      id + ".zz",
		"other id":     uuid.NewString() + "." + signature,
		"not a uuid":   "admin." + signature,
		"other secret": newSessionSigner("different").createSessionValue(id),
	}
	for name, v := range cases {
		if _, ok := signer.verifySessionValue(v); ok {
			t.Fatalf("%s: expected verification to fail for %q", name, v)
		}
	}
}

func TestSetSessionCookie(t *testing.T) {
	signer := newSessionSigner("secret")
	rr := httptest.NewRecorder()
	signer.setSessionCookie(rr, uuid.NewString())

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != sessionCookieName || !c.HttpOnly || c.Path != "/" {
		t.Fatalf("unexpected cookie: %+v", c)
	}
}

func TestSessionManagerReusesAndEvicts(t *testing.T) {
	srv := newTestServer(t)
	m := srv.sessions
	now := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	first, err := m.get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	first.SetProfile(ctx, "elite")
	first.Calculate(ctx)
	if _, err := first.SaveCalculation(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	again, err := m.get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again != first {
		t.Fatal("expected the live store to be reused")
	}

	now = now.Add(testIdle + time.Second)
	if _, err := m.get(ctx, "b"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := m.count(); got != 1 {
		t.Fatalf("expected idle session to be evicted, %d live", got)
	}

	rebuilt, err := m.get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rebuilt == first {
		t.Fatal("expected a rebuilt store after eviction")
	}
	if got := rebuilt.Config().ProfileID; got != "elite" {
		t.Fatalf("restored profile = %q, want elite", got)
	}
	if got := len(rebuilt.History()); got != 1 {
		t.Fatalf("restored history has %d entries, want 1", got)
	}
}

func TestSessionManagerSurfacesBuildErrors(t *testing.T) {
	m := newSessionManager(time.Minute, func(context.Context, string) (*calculator.Store, error) {
		return nil, errors.New("storage offline")
	})
	if _, err := m.get(context.Background(), "x"); err == nil {
		t.Fatal("expected build error")
	}
	if m.count() != 0 {
		t.Fatal("failed builds must not be cached")
	}
}

func TestSessionManagerSweepStopsWithContext(t *testing.T) {
	m := newSessionManager(time.Minute, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.sweep(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep did not stop")
	}
}

func TestSessionKeyScopesRecords(t *testing.T) {
	if got := sessionKey("uws-calculator-history", "abc"); got != "uws-calculator-history:abc" {
		t.Fatalf("sessionKey = %q", got)
	}
}

func newMemoryStore(ctx context.Context, backing kv.Store) (*calculator.Store, error) {
	return calculator.NewStore(ctx, calculator.Options{
		Catalog: catalog.Default(),
		History: history.New(backing, "", nil, nil),
	})
}

func TestSessionManagerSlowBuildDoesNotBlockOtherSessions(t *testing.T) {
	backing := kv.NewMemory()
	started := make(chan struct{})
	release := make(chan struct{})
	m := newSessionManager(time.Minute, func(ctx context.Context, id string) (*calculator.Store, error) {
		if id == "slow" {
			close(started)
			<-release
		}
		return newMemoryStore(ctx, backing)
	})
	ctx := context.Background()

	if _, err := m.get(ctx, "fast"); err != nil {
		t.Fatalf("get fast: %v", err)
	}

	slowDone := make(chan error, 1)
	go func() {
		_, err := m.get(ctx, "slow")
		slowDone <- err
	}()
	<-started

	fastDone := make(chan error, 1)
	go func() {
		_, err := m.get(ctx, "fast")
		fastDone <- err
	}()
	select {
	case err := <-fastDone:
		if err != nil {
			t.Fatalf("get fast while slow builds: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cached session blocked behind another session's build")
	}

	close(release)
	if err := <-slowDone; err != nil {
		t.Fatalf("get slow: %v", err)
	}
	if got := m.count(); got != 2 {
		t.Fatalf("expected 2 live sessions, got %d", got)
	}
}

func TestSessionManagerBuildsEachSessionOnce(t *testing.T) {
	backing := kv.NewMemory()
	var builds atomic.Int32
	release := make(chan struct{})
	m := newSessionManager(time.Minute, func(ctx context.Context, _ string) (*calculator.Store, error) {
		builds.Add(1)
		<-release
		return newMemoryStore(ctx, backing)
	})
	ctx := context.Background()

	const callers = 8
	stores := make([]*calculator.Store, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store, err := m.get(ctx, "shared")
			if err != nil {
				t.Errorf("get: %v", err)
				return
			}
			stores[i] = store
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := builds.Load(); got != 1 {
		t.Fatalf("expected one build, got %d", got)
	}
	for i, store := range stores {
		if store != stores[0] {
			t.Fatalf("caller %d got a different store", i)
		}
	}
}
