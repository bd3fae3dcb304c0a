// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	DB        DBConfig        `yaml:"db"`
	KV        KVConfig        `yaml:"kv"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Reset     ResetConfig     `yaml:"reset"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host     string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	BasePath string `yaml:"base_path" env:"HTTP_BASE_PATH" env-default:"/api/v1/auth"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// AuthConfig содержит параметры выпуска и валидации токенов.
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"1h"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	Issuer          string        `yaml:"issuer" env:"ISSUER" env-default:"credential-service"`
}

// DBConfig — настройки подключения к базе данных.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
}

// KVConfig — настройки разделяемого KV-хранилища.
// URL со схемой redis:// подключает Redis; значение "memory://"
// включает in-memory реализацию (локальный запуск/тесты).
type KVConfig struct {
	URL       string `yaml:"url" env:"KV_URL" env-default:"memory://"`
	KeyPrefix string `yaml:"key_prefix" env:"KV_KEY_PREFIX" env-default:""`
}

// ResetConfig — параметры reset-токенов.
type ResetConfig struct {
	TokenTTL time.Duration `yaml:"token_ttl" env:"RESET_TOKEN_TTL" env-default:"10m"`
}

// RatePolicy — лимит одной конечной точки: limit запросов за window.
type RatePolicy struct {
	Limit  int           `yaml:"limit" env:"LIMIT"`
	Window time.Duration `yaml:"window" env:"WINDOW"`
}

// RateLimitConfig — политики скользящего окна по конечным точкам.
// Дефолты повторяют контракт сервиса: login 5/5m, register 3/10m,
// forgot-password 3/10m, reset-password 5/5m.
type RateLimitConfig struct {
	Login          RatePolicy `yaml:"login" env-prefix:"RATE_LOGIN_"`
	Register       RatePolicy `yaml:"register" env-prefix:"RATE_REGISTER_"`
	ForgotPassword RatePolicy `yaml:"forgot_password" env-prefix:"RATE_FORGOT_"`
	ResetPassword  RatePolicy `yaml:"reset_password" env-prefix:"RATE_RESET_"`
}

// withDefaults подставляет политику по умолчанию на место нулевой.
func withDefaults(p RatePolicy, limit int, window time.Duration) RatePolicy {
	if p.Limit <= 0 {
		p.Limit = limit
	}
	if p.Window <= 0 {
		p.Window = window
	}
	return p
}

// Normalize приводит нулевые политики к значениям по умолчанию.
// cleanenv не умеет env-default для вложенных структур с env-prefix,
// поэтому дефолты фиксируются здесь.
func (rl RateLimitConfig) Normalize() RateLimitConfig {
	rl.Login = withDefaults(rl.Login, 5, 5*time.Minute)
	rl.Register = withDefaults(rl.Register, 3, 10*time.Minute)
	rl.ForgotPassword = withDefaults(rl.ForgotPassword, 3, 10*time.Minute)
	rl.ResetPassword = withDefaults(rl.ResetPassword, 5, 5*time.Minute)
	return rl
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// ВАЖНО: после чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		cfg.RateLimit = cfg.RateLimit.Normalize()

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	cfg.RateLimit = cfg.RateLimit.Normalize()

	return &cfg, nil
}
