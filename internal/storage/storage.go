// storage задаёт контракт хранилища пользователей.
// Бизнес-логика зависит только от интерфейса; реализация на PostgreSQL —
// в подпакете postgres, в тестах используется gomock-мок.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/credential-service/internal/models"
)

var (
	// ErrNotFound — пользователь не найден.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности email.
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создаёт нового пользователя.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по нормализованному email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UpdatePassword заменяет хэш пароля пользователя.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	// UpdateLastLogin фиксирует время последнего входа.
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	// CountUsers возвращает число зарегистрированных пользователей (health).
	CountUsers(ctx context.Context) (int64, error)
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	UserStorage
	// Ping проверяет доступность БД.
	Ping(ctx context.Context) error
	Close()
}
