package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/medstock-backend/pkg/db/models"
	"github.com/carelane/medstock-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	Username    string         `json:"username"`
	FullName    string         `json:"fullName"`
	Role        enums.UserRole `json:"role"`
	IsActive    bool           `json:"isActive"`
	LastLoginAt *time.Time     `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// CreateUserInput holds the data required to persist a new user.
type CreateUserInput struct {
	Username     string
	PasswordHash string
	FullName     string
	Role         enums.UserRole
	IsActive     *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		FullName:    u.FullName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// ToModel builds the row; usernames are stored lowercased.
func (in CreateUserInput) ToModel(now time.Time) *models.User {
	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}
	return &models.User{
		ID:           uuid.New(),
		Username:     NormalizeUsername(in.Username),
		PasswordHash: in.PasswordHash,
		FullName:     strings.TrimSpace(in.FullName),
		Role:         in.Role,
		IsActive:     isActive,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
}

// NormalizeUsername trims and lowercases a username for storage and lookup.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
