package models

import (
	"time"

	"github.com/google/uuid"
)

// User — модель пользователя в системе.
// Email хранится в нормализованном виде (trim + lower),
// уникальность обеспечивается хранилищем.
type User struct {
	ID           uuid.UUID
	Email        string
	FullName     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  time.Time
}
