package main

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/store"
	"github.com/example/storefront/internal/utils"
)

func TestEnsureAdminCreates(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	h := utils.NewPasswordHasher(bcrypt.MinCost)

	promoted, err := ensureAdmin(ctx, st, h, adminInput{Email: " Root@Example.com", Password: "secret1", Name: "Root", Answer: "blue"})
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if promoted {
		t.Fatalf("expected a new account")
	}

	user, err := st.FindUserByEmail(ctx, "root@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if user.Role != models.RoleAdmin {
		t.Fatalf("expected admin role, got %v", user.Role)
	}
	if ok, _ := h.Verify("secret1", user.PasswordHash); !ok {
		t.Fatalf("password not hashed correctly")
	}
}

func TestEnsureAdminPromotes(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	h := utils.NewPasswordHasher(bcrypt.MinCost)

	if err := st.CreateUser(ctx, &models.User{Name: "Bob", Email: "bob@example.com", PasswordHash: "keep"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	promoted, err := ensureAdmin(ctx, st, h, adminInput{Email: "bob@example.com"})
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if !promoted {
		t.Fatalf("expected promotion")
	}

	user, err := st.FindUserByEmail(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if user.Role != models.RoleAdmin || user.PasswordHash != "keep" {
		t.Fatalf("unexpected user after promotion %+v", user)
	}
}

func TestEnsureAdminRequiresCredentialsForNewAccount(t *testing.T) {
	_, err := ensureAdmin(context.Background(), store.NewMemoryStore(), utils.NewPasswordHasher(bcrypt.MinCost), adminInput{Email: "new@example.com"})
	if err == nil {
		t.Fatalf("expected error without password and answer")
	}
}
