package handlers

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/store"
)

const minPasswordLength = 6

// ProfileHandler manages the authenticated user's own profile.
type ProfileHandler struct {
	users  UserRepository
	hasher PasswordHasher
	log    zerolog.Logger
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(users UserRepository, hasher PasswordHasher, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{users: users, hasher: hasher, log: log}
}

type updateProfileRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// UpdateProfile updates name, phone, address and optionally the password.
// Email and role cannot be changed here.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Password != "" && utf8.RuneCountInString(req.Password) < minPasswordLength {
		return fiber.NewError(fiber.StatusBadRequest, "password must be at least 6 characters long")
	}

	ctx := c.UserContext()
	user, err := h.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		user.Phone = phone
	}
	if address := strings.TrimSpace(req.Address); address != "" {
		user.Address = address
	}
	if req.Password != "" {
		hashed, err := hashSecret(h.hasher, req.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = hashed
	}

	if err := h.users.SaveUser(ctx, user); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"message":     "profile updated successfully",
		"updatedUser": newUserResponse(user),
	})
}
