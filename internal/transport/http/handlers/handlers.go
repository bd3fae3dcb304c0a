// handlers реализует REST-хендлеры сервиса.
// Вся трансляция ошибок бизнес-логики в HTTP-формат — в пакете httperr.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pribylovaa/credential-service/internal/kvstore"
	"github.com/pribylovaa/credential-service/internal/models"
	"github.com/pribylovaa/credential-service/internal/service"
	"github.com/pribylovaa/credential-service/internal/storage"
)

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	svc     *service.Service
	storage storage.Storage
	kv      kvstore.Store
}

// New создаёт Handlers.
func New(svc *service.Service, st storage.Storage, kv kvstore.Store) *Handlers {
	return &Handlers{svc: svc, storage: st, kv: kv}
}

// userProfile — представление пользователя в ответах API.
type userProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// tokenSet — представление пары токенов в ответах API;
// сроки жизни отдаются в целых секундах.
type tokenSet struct {
	Access          string `json:"access"`
	Refresh         string `json:"refresh"`
	AccessLifetime  int64  `json:"access_token_lifetime"`
	RefreshLifetime int64  `json:"refresh_token_lifetime"`
}

func profileOf(u *models.User) userProfile {
	return userProfile{
		ID:        u.ID.String(),
		Email:     u.Email,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func tokensOf(p *models.TokenPair) tokenSet {
	return tokenSet{
		Access:          p.AccessToken,
		Refresh:         p.RefreshToken,
		AccessLifetime:  int64(p.AccessTTL / time.Second),
		RefreshLifetime: int64(p.RefreshTTL / time.Second),
	}
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
