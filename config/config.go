package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server Server
	Mongo  Mongo
	Redis  Redis
	Kafka  Kafka
	Observ Observability
	Auth   Auth
	SMTP   SMTP
}

type Server struct {
	Port    string
	Env     string
	BaseURL string
}

type Mongo struct {
	URI      string
	Database string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Kafka struct {
	Brokers            []string
	TopicNotifications string
	ConsumerGroup      string
}

type Observability struct {
	JaegerEndpoint string
}

type Auth struct {
	JWTSecret     string
	SessionTTL    time.Duration
	ResetTokenTTL time.Duration
}

type SMTP struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

func Load() *Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	sessionHours, _ := strconv.Atoi(getEnv("SESSION_TTL_HOURS", "24"))
	resetMinutes, _ := strconv.Atoi(getEnv("RESET_TOKEN_TTL_MINUTES", "60"))

	cfg := &Config{
		Server: Server{
			Port:    getEnv("PORT", "8080"),
			Env:     getEnv("ENV", "development"),
			BaseURL: getEnv("BASE_URL", "http://localhost:8080"),
		},
		Mongo: Mongo{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "petmarket"),
		},
		Redis: Redis{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: Kafka{
			Brokers:            strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicNotifications: getEnv("KAFKA_TOPIC_NOTIFICATIONS", "notification-events"),
			ConsumerGroup:      getEnv("KAFKA_CONSUMER_GROUP", "petmarket-mailer-group"),
		},
		Observ: Observability{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
		},
		Auth: Auth{
			JWTSecret:     getEnv("JWT_SECRET", "change-me-in-production"),
			SessionTTL:    time.Duration(sessionHours) * time.Hour,
			ResetTokenTTL: time.Duration(resetMinutes) * time.Minute,
		},
		SMTP: SMTP{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnv("SMTP_PORT", "587"),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASS", ""),
			From:     getEnv("EMAIL_FROM", "Pet Market <no-reply@petmarket.local>"),
		},
	}

	log.Printf("Config loaded: env=%s, port=%s", cfg.Server.Env, cfg.Server.Port)
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
