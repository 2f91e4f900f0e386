package client

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the render decision of a Guard.
type State int

const (
	StateUnverified State = iota
	StateVerifying
	StateAuthorized
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateUnverified:
		return "unverified"
	case StateVerifying:
		return "verifying"
	case StateAuthorized:
		return "authorized"
	case StateDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Verifier asks the server whether a token is acceptable.
type Verifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token string) (bool, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (bool, error) {
	return f(ctx, token)
}

// UserVerifier verifies tokens against the user-auth endpoint.
func (c *Client) UserVerifier() Verifier { return VerifierFunc(c.UserAuth) }

// AdminVerifier verifies tokens against the admin-auth endpoint.
func (c *Client) AdminVerifier() Verifier { return VerifierFunc(c.AdminAuth) }

// Guard decides whether protected content may be shown for the locally
// cached token. It re-verifies with the server whenever the token changes
// and fails closed: errors, non-2xx responses and {"ok": false} all deny.
//
// Each verification is tagged with a generation. Starting a new one cancels
// the previous request and its result, should it still arrive, is dropped,
// so the last verification issued decides the state.
type Guard struct {
	verifier Verifier
	timeout  time.Duration
	log      zerolog.Logger
	onChange func(State)

	mu         sync.Mutex
	state      State
	token      string
	generation uint64
	cancel     context.CancelFunc
	settled    chan struct{}
}

// GuardOption customizes a Guard.
type GuardOption func(*Guard)

// WithVerifyTimeout bounds each verification request.
func WithVerifyTimeout(d time.Duration) GuardOption {
	return func(g *Guard) { g.timeout = d }
}

// WithGuardLogger sets the logger used for verification failures.
func WithGuardLogger(log zerolog.Logger) GuardOption {
	return func(g *Guard) { g.log = log }
}

// WithStateListener registers fn to be called after every state change.
func WithStateListener(fn func(State)) GuardOption {
	return func(g *Guard) { g.onChange = fn }
}

// NewGuard returns a Guard in the Unverified state.
func NewGuard(verifier Verifier, opts ...GuardOption) *Guard {
	g := &Guard{
		verifier: verifier,
		timeout:  defaultTimeout,
		log:      zerolog.Nop(),
		state:    StateUnverified,
		settled:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State returns the current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Authorized reports whether protected content may be rendered.
func (g *Guard) Authorized() bool {
	return g.State() == StateAuthorized
}

// SetToken is called on mount and whenever the cached token changes. An
// empty token denies immediately without contacting the server. Setting
// the token already being verified or already decided is a no-op.
func (g *Guard) SetToken(token string) {
	g.mu.Lock()
	if token == g.token && g.state != StateUnverified {
		g.mu.Unlock()
		return
	}
	g.token = token
	g.startLocked()
}

// Refresh re-verifies the current token.
func (g *Guard) Refresh() {
	g.mu.Lock()
	g.startLocked()
}

// startLocked begins a new generation. It must be called with g.mu held and
// releases it.
func (g *Guard) startLocked() {
	g.generation++
	gen := g.generation
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}

	token := g.token
	if token == "" {
		changed := g.setStateLocked(StateDenied)
		g.mu.Unlock()
		g.notify(changed, StateDenied)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	g.cancel = cancel
	changed := g.setStateLocked(StateVerifying)
	g.mu.Unlock()
	g.notify(changed, StateVerifying)

	go g.verify(ctx, cancel, gen, token)
}

func (g *Guard) verify(ctx context.Context, cancel context.CancelFunc, gen uint64, token string) {
	defer cancel()

	ok, err := g.verifier.Verify(ctx, token)

	g.mu.Lock()
	if gen != g.generation {
		g.mu.Unlock()
		g.log.Debug().Uint64("generation", gen).Msg("discarding superseded verification")
		return
	}
	g.cancel = nil

	next := StateDenied
	switch {
	case err != nil:
		g.log.Warn().Err(err).Msg("session verification failed")
	case ok:
		next = StateAuthorized
	}

	changed := g.setStateLocked(next)
	g.mu.Unlock()
	g.notify(changed, next)
}

// setStateLocked updates the state and wakes waiters when the guard leaves
// the Verifying state.
func (g *Guard) setStateLocked(next State) bool {
	if g.state == next {
		return false
	}
	prev := g.state
	g.state = next
	if prev == StateVerifying {
		close(g.settled)
		g.settled = make(chan struct{})
	}
	return true
}

func (g *Guard) notify(changed bool, state State) {
	if changed && g.onChange != nil {
		g.onChange(state)
	}
}

// Wait blocks until no verification is in flight and returns the settled
// state, or returns ctx's error.
func (g *Guard) Wait(ctx context.Context) (State, error) {
	for {
		g.mu.Lock()
		state, settled := g.state, g.settled
		g.mu.Unlock()

		if state != StateVerifying {
			return state, nil
		}

		select {
		case <-settled:
		case <-ctx.Done():
			return state, ctx.Err()
		}
	}
}

// Close cancels any in-flight verification and denies.
func (g *Guard) Close() {
	g.mu.Lock()
	g.token = ""
	g.startLocked()
}
