package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitSettled(t *testing.T, g *Guard) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	state, err := g.Wait(ctx)
	if err != nil {
		t.Fatalf("guard did not settle: %v", err)
	}
	return state
}

func TestGuardWithoutTokenNeverCallsServer(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	g := NewGuard(New(srv.URL).UserVerifier())
	if g.State() != StateUnverified {
		t.Fatalf("expected initial state unverified, got %s", g.State())
	}

	g.SetToken("")
	if state := waitSettled(t, g); state != StateDenied {
		t.Fatalf("expected denied, got %s", state)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected no verification request, got %d", calls)
	}
}

func TestGuardServerResponses(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   State
	}{
		{"ok true", http.StatusOK, `{"ok":true}`, StateAuthorized},
		{"ok false", http.StatusOK, `{"ok":false}`, StateDenied},
		{"unauthorized", http.StatusUnauthorized, `{"success":false,"message":"invalid token"}`, StateDenied},
		{"server error", http.StatusInternalServerError, `{"success":false}`, StateDenied},
		{"garbage", http.StatusOK, `<html>`, StateDenied},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auths := make(chan string, 1)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/auth/user-auth" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				auths <- r.Header.Get("Authorization")
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			g := NewGuard(New(srv.URL).UserVerifier())
			g.SetToken("tok-1")
			if state := waitSettled(t, g); state != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, state)
			}
			if got := <-auths; got != "tok-1" {
				t.Fatalf("expected token on the request, got %q", got)
			}
		})
	}
}

func TestGuardNetworkErrorDenies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	g := NewGuard(New(url).UserVerifier())
	g.SetToken("tok")
	if state := waitSettled(t, g); state != StateDenied {
		t.Fatalf("expected denied on network error, got %s", state)
	}
}

func TestGuardVerifyTimeoutDenies(t *testing.T) {
	g := NewGuard(VerifierFunc(func(ctx context.Context, token string) (bool, error) {
		<-ctx.Done()
		return false, ctx.Err()
	}), WithVerifyTimeout(20*time.Millisecond))

	g.SetToken("slow")
	if state := waitSettled(t, g); state != StateDenied {
		t.Fatalf("expected denied after timeout, got %s", state)
	}
}

type pendingResult struct {
	ok  bool
	err error
}

// scriptedVerifier blocks each token's verification until a result is sent
// on that token's channel.
type scriptedVerifier struct {
	mu       sync.Mutex
	results  map[string]chan pendingResult
	started  chan string
	canceled map[string]bool
}

func newScriptedVerifier(tokens ...string) *scriptedVerifier {
	v := &scriptedVerifier{
		results:  make(map[string]chan pendingResult),
		started:  make(chan string, len(tokens)),
		canceled: make(map[string]bool),
	}
	for _, tok := range tokens {
		v.results[tok] = make(chan pendingResult, 1)
	}
	return v
}

func (v *scriptedVerifier) Verify(ctx context.Context, token string) (bool, error) {
	v.mu.Lock()
	ch := v.results[token]
	v.mu.Unlock()

	v.started <- token
	select {
	case r := <-ch:
		return r.ok, r.err
	case <-ctx.Done():
		v.mu.Lock()
		v.canceled[token] = true
		v.mu.Unlock()
		// Deliver the stale answer anyway to mimic a response that still
		// arrives after the request was superseded.
		r := <-ch
		return r.ok, r.err
	}
}

func (v *scriptedVerifier) wasCanceled(token string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.canceled[token]
}

func TestGuardLastIssuedVerificationWins(t *testing.T) {
	v := newScriptedVerifier("old", "new")
	g := NewGuard(v)

	g.SetToken("old")
	<-v.started
	g.SetToken("new")
	<-v.started

	v.results["new"] <- pendingResult{ok: false}
	if state := waitSettled(t, g); state != StateDenied {
		t.Fatalf("expected denied from the newest verification, got %s", state)
	}

	// The superseded verification answers last; its result must be dropped.
	v.results["old"] <- pendingResult{ok: true}
	time.Sleep(50 * time.Millisecond)
	if state := g.State(); state != StateDenied {
		t.Fatalf("stale verification overrode the state: %s", state)
	}
	if !v.wasCanceled("old") {
		t.Fatalf("expected the superseded request to be canceled")
	}
}

func TestGuardSameTokenIsNoop(t *testing.T) {
	var calls int32
	g := NewGuard(VerifierFunc(func(ctx context.Context, token string) (bool, error) {
		atomic.AddInt32(&calls, 1)
		return true, nil
	}))

	g.SetToken("tok")
	waitSettled(t, g)
	g.SetToken("tok")
	waitSettled(t, g)
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected one verification, got %d", n)
	}

	g.Refresh()
	if state := waitSettled(t, g); state != StateAuthorized {
		t.Fatalf("expected authorized after refresh, got %s", state)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected refresh to verify again, got %d calls", n)
	}
}

func TestGuardClearingTokenDenies(t *testing.T) {
	g := NewGuard(VerifierFunc(func(ctx context.Context, token string) (bool, error) {
		return true, nil
	}))

	g.SetToken("tok")
	if state := waitSettled(t, g); state != StateAuthorized {
		t.Fatalf("expected authorized, got %s", state)
	}

	g.SetToken("")
	if g.State() != StateDenied {
		t.Fatalf("expected immediate denial, got %s", g.State())
	}
}

func TestGuardStateListener(t *testing.T) {
	seen := make(chan State, 4)
	g := NewGuard(VerifierFunc(func(ctx context.Context, token string) (bool, error) {
		return false, errors.New("boom")
	}), WithStateListener(func(s State) { seen <- s }))

	g.SetToken("tok")

	for _, want := range []State{StateVerifying, StateDenied} {
		select {
		case got := <-seen:
			if got != want {
				t.Fatalf("expected transition to %s, got %s", want, got)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}
