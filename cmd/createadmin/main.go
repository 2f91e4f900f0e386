// Command createadmin creates an admin account or promotes an existing user
// to admin. It is the only way to change a user's role.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/store"
	"github.com/example/storefront/internal/utils"
)

func main() {
	email := flag.String("email", "", "admin email (required)")
	password := flag.String("password", "", "password for a new account")
	name := flag.String("name", "Administrator", "display name for a new account")
	answer := flag.String("answer", "", "security answer for a new account")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if *email == "" {
		fmt.Fprintln(os.Stderr, "-email is required")
		flag.Usage()
		os.Exit(2)
	}

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	promoted, err := ensureAdmin(ctx, store.NewGormStore(db), utils.NewPasswordHasher(cfg.BcryptCost), adminInput{
		Email:    *email,
		Password: *password,
		Name:     *name,
		Answer:   *answer,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create admin failed")
	}

	if promoted {
		log.Info().Str("email", models.NormalizeEmail(*email)).Msg("existing user promoted to admin")
	} else {
		log.Info().Str("email", models.NormalizeEmail(*email)).Msg("admin account created")
	}
}

type adminInput struct {
	Email    string
	Password string
	Name     string
	Answer   string
}

type hasher interface {
	Hash(plaintext string) (string, error)
}

// ensureAdmin promotes the user with in.Email or creates a new admin. It
// reports whether an existing user was promoted.
func ensureAdmin(ctx context.Context, users store.UserStore, h hasher, in adminInput) (bool, error) {
	email := models.NormalizeEmail(in.Email)

	existing, err := users.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		existing.Role = models.RoleAdmin
		return true, users.SaveUser(ctx, existing)
	case !errors.Is(err, store.ErrNotFound):
		return false, err
	}

	if in.Password == "" || in.Answer == "" {
		return false, errors.New("-password and -answer are required to create a new admin")
	}

	passwordHash, err := h.Hash(in.Password)
	if err != nil {
		return false, err
	}
	answerHash, err := h.Hash(in.Answer)
	if err != nil {
		return false, err
	}

	return false, users.CreateUser(ctx, &models.User{
		Name:               in.Name,
		Email:              email,
		PasswordHash:       passwordHash,
		SecurityAnswerHash: answerHash,
		Role:               models.RoleAdmin,
	})
}
