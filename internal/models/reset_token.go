package models

import (
	"time"

	"github.com/google/uuid"
)

// ResetEntry — данные, которые хранятся в KV-хранилище по значению
// reset-токена на время его жизни (см. internal/resetvault).
type ResetEntry struct {
	Email     string    `json:"email"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
