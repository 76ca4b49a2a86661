package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the aquaponics forecasting backend
type Config struct {
	Server   ServerConfig
	MQTT     MQTTConfig
	Database DatabaseConfig
	ML       MLConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MQTTConfig holds MQTT broker configuration
type MQTTConfig struct {
	BrokerURL          string
	ClientID           string
	Username           string
	Password           string
	KeepAlive          time.Duration
	PingTimeout        time.Duration
	ConnectRetry       bool
	TopicPlantReadings string
	TopicFishReadings  string
}

// DatabaseConfig holds PostgreSQL database configuration
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the connection string, preferring a full DATABASE_URL
// over the individual settings.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// MLConfig holds model training and forecasting configuration
type MLConfig struct {
	ModelsDir        string
	Epochs           int
	BatchSize        int
	Patience         int
	ForecastInterval time.Duration
	RetrainInterval  time.Duration
	MinReadings      int
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		MQTT: MQTTConfig{
			BrokerURL:          getMQTTBrokerURL(),
			ClientID:           getEnv("MQTT_CLIENT_ID", "aquanexus_backend"),
			Username:           getEnv("MQTT_USERNAME", ""),
			Password:           getEnv("MQTT_PASSWORD", ""),
			KeepAlive:          getDurationEnv("MQTT_KEEP_ALIVE", 30*time.Second),
			PingTimeout:        getDurationEnv("MQTT_PING_TIMEOUT", 10*time.Second),
			ConnectRetry:       getBoolEnv("MQTT_CONNECT_RETRY", true),
			TopicPlantReadings: getEnv("MQTT_TOPIC_PLANT_READINGS", "aquanexus/plant/readings"),
			TopicFishReadings:  getEnv("MQTT_TOPIC_FISH_READINGS", "aquanexus/fish/readings"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "aquanexus"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
		},
		ML: MLConfig{
			ModelsDir:        getEnv("ML_MODELS_DIR", "./trained_models"),
			Epochs:           getIntEnv("ML_EPOCHS", 100),
			BatchSize:        getIntEnv("ML_BATCH_SIZE", 32),
			Patience:         getIntEnv("ML_PATIENCE", 10),
			ForecastInterval: getDurationEnv("ML_FORECAST_INTERVAL", 2*time.Hour),
			RetrainInterval:  getDurationEnv("ML_RETRAIN_INTERVAL", 24*time.Hour),
			MinReadings:      getIntEnv("ML_MIN_READINGS", 100),
		},
	}
}

// getEnv returns environment variable value or default if not set
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv returns duration environment variable value or default if not set
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getBoolEnv returns boolean environment variable value or default if not set
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getIntEnv returns integer environment variable value or default if not set
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getMQTTBrokerURL returns MQTT broker URL with tcp:// prefix if not present
// Supports both "localhost:1883" and "tcp://localhost:1883" formats
func getMQTTBrokerURL() string {
	broker := getEnv("MQTT_BROKER", getEnv("MQTT_BROKER_URL", "tcp://localhost:1883"))

	// If broker doesn't start with tcp://, add it
	if broker != "" && broker[:4] != "tcp:" && broker[:3] != "ssl" {
		return "tcp://" + broker
	}
	return broker
}
