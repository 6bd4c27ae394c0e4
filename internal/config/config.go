package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Security SecurityConfig
	Engine   EngineConfig
	Client   ClientConfig
	Odds     OddsConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера (админ API + websocket)
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// SecurityConfig - настройки безопасности
type SecurityConfig struct {
	// AdminTokenHash - bcrypt-хеш токена админ API.
	// Сам токен в конфигурации не хранится.
	AdminTokenHash string

	// EncryptionKey - 32 байта для AES-256 шифрования API-ключей клиента
	EncryptionKey string
}

// EngineConfig - настройки решающего ядра
type EngineConfig struct {
	// CycleInterval - период цикла оценки сигналов.
	// Циклы не перекрываются: если предыдущий ещё идёт, тик пропускается.
	CycleInterval time.Duration

	// StalenessThreshold - максимальный возраст рыночных данных.
	// Превышение автоматически останавливает торговлю (stale_data).
	StalenessThreshold time.Duration

	// ConfidenceThreshold - минимальная уверенность сигнала.
	// Безопасный минимум 0.5, по умолчанию 0.6.
	ConfidenceThreshold float64

	// MaxSlippage - допустимое отклонение цены на момент отправки
	MaxSlippage float64

	// IdempotencyTTL - срок жизни идемпотентных ключей
	IdempotencyTTL time.Duration

	// IdempotencyBucket - ширина временной корзины для деривации ключа
	IdempotencyBucket time.Duration

	// SweepInterval - период фоновой очистки истёкших ключей
	SweepInterval time.Duration

	// PriceHistoryDepth - сколько последних цен хранить на исход
	PriceHistoryDepth int

	// SubmitTimeout - таймаут отправки одного ордера внешнему клиенту
	SubmitTimeout time.Duration
}

// ClientConfig - настройки внешнего торгового клиента (Polymarket)
type ClientConfig struct {
	BaseURL string

	// APIKeyEncrypted - API-ключ, зашифрованный AES-256-GCM (см. pkg/crypto)
	APIKeyEncrypted string

	// Rate limiting для API площадки
	RateLimit float64
	RateBurst float64

	RequestTimeout time.Duration
}

// OddsConfig - настройки источника линий букмекеров
type OddsConfig struct {
	BaseURL string
	APIKey  string

	RateLimit float64
	RateBurst float64

	RequestTimeout time.Duration
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "polybet"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Security: SecurityConfig{
			AdminTokenHash: getEnv("ADMIN_TOKEN_HASH", ""),
			EncryptionKey:  getEnv("ENCRYPTION_KEY", ""),
		},
		Engine: EngineConfig{
			CycleInterval:       getEnvAsDuration("CYCLE_INTERVAL", 30*time.Second),
			StalenessThreshold:  getEnvAsDuration("STALENESS_THRESHOLD", 2*time.Minute),
			ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.6),
			MaxSlippage:         getEnvAsFloat("MAX_SLIPPAGE", 0.05),
			IdempotencyTTL:      getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),
			IdempotencyBucket:   getEnvAsDuration("IDEMPOTENCY_BUCKET", 5*time.Minute),
			SweepInterval:       getEnvAsDuration("SWEEP_INTERVAL", 10*time.Minute),
			PriceHistoryDepth:   getEnvAsInt("PRICE_HISTORY_DEPTH", 20),
			SubmitTimeout:       getEnvAsDuration("SUBMIT_TIMEOUT", 10*time.Second),
		},
		Client: ClientConfig{
			BaseURL:         getEnv("POLYMARKET_BASE_URL", "https://clob.polymarket.com"),
			APIKeyEncrypted: getEnv("POLYMARKET_API_KEY_ENC", ""),
			RateLimit:       getEnvAsFloat("CLIENT_RATE_LIMIT", 10),
			RateBurst:       getEnvAsFloat("CLIENT_RATE_BURST", 20),
			RequestTimeout:  getEnvAsDuration("CLIENT_REQUEST_TIMEOUT", 10*time.Second),
		},
		Odds: OddsConfig{
			BaseURL:        getEnv("ODDS_BASE_URL", "https://api.the-odds-api.com/v4"),
			APIKey:         getEnv("ODDS_API_KEY", ""),
			RateLimit:      getEnvAsFloat("ODDS_RATE_LIMIT", 1),
			RateBurst:      getEnvAsFloat("ODDS_RATE_BURST", 5),
			RequestTimeout: getEnvAsDuration("ODDS_REQUEST_TIMEOUT", 10*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validateSecurity(); err != nil {
		return nil, err
	}
	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSecurity проверяет параметры безопасности
func (c *Config) validateSecurity() error {
	// ENCRYPTION_KEY обязателен для шифрования API-ключей клиента
	if c.Security.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required for encrypting client API keys")
	}
	if len(c.Security.EncryptionKey) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	// Без хеша токена админ API недоступен - а значит и kill switch
	if c.Security.AdminTokenHash == "" {
		return fmt.Errorf("ADMIN_TOKEN_HASH is required for the admin API")
	}

	return nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	// Порог уверенности: жёсткий пол 0.5, ниже конфигурировать нельзя
	if c.Engine.ConfidenceThreshold < 0.5 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD must be at least 0.5, got %v", c.Engine.ConfidenceThreshold)
	}
	if c.Engine.ConfidenceThreshold > 1 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD must not exceed 1, got %v", c.Engine.ConfidenceThreshold)
	}

	if c.Engine.CycleInterval <= 0 {
		return fmt.Errorf("CYCLE_INTERVAL must be positive, got %v", c.Engine.CycleInterval)
	}

	if c.Engine.StalenessThreshold <= 0 {
		return fmt.Errorf("STALENESS_THRESHOLD must be positive, got %v", c.Engine.StalenessThreshold)
	}

	if c.Engine.MaxSlippage < 0 || c.Engine.MaxSlippage > 1 {
		return fmt.Errorf("MAX_SLIPPAGE must be within [0,1], got %v", c.Engine.MaxSlippage)
	}

	if c.Engine.IdempotencyTTL <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL must be positive, got %v", c.Engine.IdempotencyTTL)
	}

	if c.Engine.IdempotencyBucket <= 0 {
		return fmt.Errorf("IDEMPOTENCY_BUCKET must be positive, got %v", c.Engine.IdempotencyBucket)
	}

	if c.Engine.PriceHistoryDepth < 2 {
		return fmt.Errorf("PRICE_HISTORY_DEPTH must be at least 2, got %d", c.Engine.PriceHistoryDepth)
	}

	if c.Engine.SubmitTimeout <= 0 {
		return fmt.Errorf("SUBMIT_TIMEOUT must be positive, got %v", c.Engine.SubmitTimeout)
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логов)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
