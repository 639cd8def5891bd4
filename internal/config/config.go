package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	MinShutdownTimeout = 1
	MaxShutdownTimeout = 120
)

// Config carries everything the daemon needs to run. It is built once in
// main and handed to each component explicitly; nothing reads the process
// environment after Load returns.
type Config struct {
	StationID  string
	HospitalID string

	// DBDriver is "sqlite" for station deployments and "postgres" for the
	// hospital aggregator.
	DBDriver    string
	DatabaseURL string

	HTTPAddr    string
	MetricsAddr string

	LogLevel  string
	LogFormat string
	LogFile   string

	EquipmentResetInterval time.Duration
	ShutdownTimeout        time.Duration
}

func Load() *Config {
	_ = godotenv.Load()

	shutdownSec := getEnvInt("SHUTDOWN_TIMEOUT_SEC", 10)

	if shutdownSec > MaxShutdownTimeout {
		slog.Warn("SHUTDOWN_TIMEOUT_SEC exceeds safety limit. Clamping to maximum", "requested", shutdownSec, "limit", MaxShutdownTimeout)
		shutdownSec = MaxShutdownTimeout
	} else if shutdownSec < MinShutdownTimeout {
		shutdownSec = MinShutdownTimeout
	}

	return &Config{
		StationID:              getEnv("STATION_ID", "HC-000000"),
		HospitalID:             getEnv("HOSPITAL_ID", "HOSP-001"),
		DBDriver:               getEnv("DB_DRIVER", "sqlite"),
		DatabaseURL:            getEnv("DATABASE_URL", "file:medsync.db"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8000"),
		MetricsAddr:            getEnv("METRICS_ADDR", ":9090"),
		LogLevel:               getEnv("LOG_LEVEL", "INFO"),
		LogFormat:              getEnv("LOG_FORMAT", "TEXT"),
		LogFile:                getEnv("LOG_FILE", "medsync.log"),
		EquipmentResetInterval: time.Duration(getEnvInt("EQUIPMENT_RESET_INTERVAL_MIN", 1440)) * time.Minute,
		ShutdownTimeout:        time.Duration(shutdownSec) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
