package models

import "strings"

// Role is the coarse authorization tag of a user.
type Role int

const (
	RoleUser Role = iota
	RoleAdmin
)

// IsAdmin reports whether the role grants access to admin-only endpoints.
func (r Role) IsAdmin() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleUser:
		return false
	default:
		return false
	}
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// User represents a storefront account.
type User struct {
	BaseModel
	Name               string `gorm:"not null" json:"name"`
	Email              string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash       string `gorm:"not null" json:"-"`
	Phone              string `json:"phone"`
	Address            string `json:"address"`
	SecurityAnswerHash string `json:"-"`
	Role               Role   `gorm:"not null;default:0" json:"role"`
}

// NormalizeEmail trims and lowercases an email so that lookups and the
// uniqueness constraint agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
