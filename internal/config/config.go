package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config содержит конфигурацию приложения.
type Config struct {
	RunAddress      string
	DatabaseURI     string
	JWTSecret       string
	TokenExpiration time.Duration
	TaxRate         decimal.Decimal
	StorageTimeout  time.Duration
	LockWait        time.Duration
	StreamBuffer    int
	ArchiveInterval time.Duration
}

// Load загружает конфигурацию из флагов командной строки и переменных окружения.
// Приоритет: переменные окружения > флаги > значения по умолчанию.
// Файл .env, если есть, подхватывается до чтения окружения.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	var taxRate float64
	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "адрес и порт запуска сервиса")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "строка подключения к PostgreSQL")
	flag.Float64Var(&taxRate, "t", 0.08, "ставка налога с продаж (доля)")
	flag.Parse()

	if envRunAddr := os.Getenv("RUN_ADDRESS"); envRunAddr != "" {
		cfg.RunAddress = envRunAddr
	}
	if envDBURI := os.Getenv("DATABASE_URI"); envDBURI != "" {
		cfg.DatabaseURI = envDBURI
	}
	if envTaxRate := os.Getenv("TAX_RATE"); envTaxRate != "" {
		if v, err := strconv.ParseFloat(envTaxRate, 64); err == nil {
			taxRate = v
		}
	}
	cfg.TaxRate = decimal.NewFromFloat(taxRate)

	// JWT секрет
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "default-secret-change-in-production"
	}

	// Время жизни токена
	cfg.TokenExpiration = 12 * time.Hour

	cfg.StorageTimeout = durationEnv("STORAGE_TIMEOUT", 5*time.Second)
	cfg.LockWait = durationEnv("ORDER_LOCK_WAIT", 3*time.Second)
	cfg.ArchiveInterval = durationEnv("ARCHIVE_INTERVAL", time.Hour)

	cfg.StreamBuffer = 64
	if envBuf := os.Getenv("STREAM_BUFFER"); envBuf != "" {
		if v, err := strconv.Atoi(envBuf); err == nil && v > 0 {
			cfg.StreamBuffer = v
		}
	}

	return cfg
}

// durationEnv читает длительность из окружения или возвращает значение
// по умолчанию.
func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
