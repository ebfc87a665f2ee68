package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the server settings. LogLevel is passed to logger.New as is;
// unknown levels fall back to info there.
type Config struct {
	Port            string        `validate:"required,numeric"`
	DBPath          string        `validate:"required"`
	JWTSecret       string        `validate:"required,min=8"`
	TokenTTL        time.Duration `validate:"gt=0"`
	CORSOrigins     []string      `validate:"dive,required"`
	LogLevel        string
	DeckSeedFile    string
	SeedSampleCards bool
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// Load reads configuration from the environment. A .env file in the working
// directory, when present, fills in variables that are not already set.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_PATH", ":memory:")
	v.SetDefault("JWT_SECRET", "change-this-secret")
	v.SetDefault("TOKEN_TTL_HOURS", 72)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DECK_SEED_FILE", "")
	v.SetDefault("SEED_SAMPLE_CARDS", true)
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)
	v.AutomaticEnv()
	return v
}

// FromViper builds and validates a Config from already-populated settings.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:            strings.TrimSpace(v.GetString("PORT")),
		DBPath:          strings.TrimSpace(v.GetString("DB_PATH")),
		JWTSecret:       v.GetString("JWT_SECRET"),
		TokenTTL:        time.Duration(v.GetInt("TOKEN_TTL_HOURS")) * time.Hour,
		CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
		LogLevel:        strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		DeckSeedFile:    strings.TrimSpace(v.GetString("DECK_SEED_FILE")),
		SeedSampleCards: v.GetBool("SEED_SAMPLE_CARDS"),
		ShutdownTimeout: time.Duration(v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")) * time.Second,
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
