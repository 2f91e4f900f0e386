package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Pagination holds pagination parameters. Enabled is false when the client
// sent neither page nor limit and expects the full result set.
type Pagination struct {
	Enabled bool
	Page    int
	Limit   int
	Offset  int
}

// ParsePagination reads page and limit query params with sane defaults.
func ParsePagination(c *fiber.Ctx) Pagination {
	rawPage, rawLimit := c.Query("page"), c.Query("limit")
	if rawPage == "" && rawLimit == "" {
		return Pagination{}
	}

	page := parseInt(rawPage, 1)
	limit := parseInt(rawLimit, 20)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page <= 0 {
		page = 1
	}

	return Pagination{
		Enabled: true,
		Page:    page,
		Limit:   limit,
		Offset:  (page - 1) * limit,
	}
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
