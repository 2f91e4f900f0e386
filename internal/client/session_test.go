package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	s := NewFileTokenStore(path)

	token, err := s.Load()
	if err != nil || token != "" {
		t.Fatalf("expected empty token from missing file, got %q %v", token, err)
	}

	if err := s.Save("abc"); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600, got %o", perm)
	}

	token, err = s.Load()
	if err != nil || token != "abc" {
		t.Fatalf("expected abc, got %q %v", token, err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	token, err = s.Load()
	if err != nil || token != "" {
		t.Fatalf("expected empty token after clear, got %q %v", token, err)
	}
}

func TestFileTokenStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewFileTokenStore(path).Load(); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)
	ctx := context.Background()

	if _, err := c.Register(ctx, alice); err != nil {
		t.Fatalf("register: %v", err)
	}

	tokens := &MemoryTokenStore{}
	session := NewSession(c, tokens, NewGuard(c.UserVerifier()))

	if err := session.Restore(); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if state := waitSettled(t, session.Guard()); state != StateDenied {
		t.Fatalf("expected denied without cached token, got %s", state)
	}

	if _, err := session.Login(ctx, alice.Email, "wrongpass"); err == nil {
		t.Fatalf("expected login failure")
	}
	if session.Token() != "" {
		t.Fatalf("failed login must not set a token")
	}

	result, err := session.Login(ctx, alice.Email, alice.Password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if state := waitSettled(t, session.Guard()); state != StateAuthorized {
		t.Fatalf("expected authorized after login, got %s", state)
	}
	if session.User() == nil || session.User().Email != alice.Email {
		t.Fatalf("expected user to be cached, got %+v", session.User())
	}
	if cached, _ := tokens.Load(); cached != result.Token {
		t.Fatalf("expected token to be persisted")
	}

	orders, err := session.Orders(ctx)
	if err != nil {
		t.Fatalf("orders: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("expected no orders, got %d", len(orders))
	}

	// A second session restoring from the same store picks up the token.
	restored := NewSession(c, tokens, NewGuard(c.UserVerifier()))
	if err := restored.Restore(); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if state := waitSettled(t, restored.Guard()); state != StateAuthorized {
		t.Fatalf("expected restored session to be authorized, got %s", state)
	}

	if err := session.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if session.Guard().State() != StateDenied {
		t.Fatalf("expected denied after logout, got %s", session.Guard().State())
	}
	if cached, _ := tokens.Load(); cached != "" {
		t.Fatalf("expected token to be cleared")
	}
}

func TestSessionAdminGuard(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)
	ctx := context.Background()

	if _, err := c.Register(ctx, alice); err != nil {
		t.Fatalf("register: %v", err)
	}
	srv.createAdmin(t, "admin@example.com", "adminpass")

	userSession := NewSession(c, &MemoryTokenStore{}, NewGuard(c.AdminVerifier()))
	if _, err := userSession.Login(ctx, alice.Email, alice.Password); err != nil {
		t.Fatalf("login: %v", err)
	}
	if state := waitSettled(t, userSession.Guard()); state != StateDenied {
		t.Fatalf("expected admin guard to deny a regular user, got %s", state)
	}

	adminSession := NewSession(c, &MemoryTokenStore{}, NewGuard(c.AdminVerifier()))
	if _, err := adminSession.Login(ctx, "admin@example.com", "adminpass"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if state := waitSettled(t, adminSession.Guard()); state != StateAuthorized {
		t.Fatalf("expected admin guard to authorize an admin, got %s", state)
	}
}
