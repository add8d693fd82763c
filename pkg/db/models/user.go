package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/influenciando/reseller-backend/pkg/enums"
)

// User is a panel account. Authentication itself lives in the external
// session service; this backend only needs identity and role for order
// ownership checks.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username     string         `gorm:"column:username;uniqueIndex;not null" json:"username"`
	PasswordHash string         `gorm:"column:password_hash;not null" json:"-"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:'user'" json:"role"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
