package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DatabaseURL string
	JWTSecret   string
	TokenTTL    time.Duration

	RedisAddr     string
	RedisPassword string

	KafkaBrokers    []string
	KafkaOrderTopic string

	PaystackSecretKey   string
	PaystackPublicKey   string
	PaystackBaseURL     string
	PaystackCallbackURL string
	PaymentSessionTTL   time.Duration

	UploadDir     string
	UploadBaseURL string
	AdminDir      string

	CODDelay      time.Duration
	CORSOrigins   string
	LogLevel      string
	RunMigrations bool
}

// Load reads .env (when present) and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	addr := os.Getenv("APP_ADDR")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}

	return Config{
		Addr:        addr,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		TokenTTL:    duration("TOKEN_TTL", 72*time.Hour),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		KafkaBrokers:    list("KAFKA_BROKERS"),
		KafkaOrderTopic: getenv("KAFKA_ORDER_TOPIC", "order-events"),

		PaystackSecretKey:   os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackPublicKey:   os.Getenv("PAYSTACK_PUBLIC_KEY"),
		PaystackBaseURL:     getenv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		PaystackCallbackURL: os.Getenv("PAYSTACK_CALLBACK_URL"),
		PaymentSessionTTL:   duration("PAYMENT_SESSION_TTL", 30*time.Minute),

		UploadDir:     getenv("UPLOAD_DIR", "./uploads"),
		UploadBaseURL: getenv("UPLOAD_BASE_URL", "/uploads"),
		AdminDir:      getenv("ADMIN_DIR", "./admin"),

		CODDelay:      duration("COD_DELAY", 1500*time.Millisecond),
		CORSOrigins:   getenv("CORS_ORIGINS", "*"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		RunMigrations: boolean("RUN_MIGRATIONS", true),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func list(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
