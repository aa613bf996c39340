package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// DefaultJWTSecret is the placeholder value main refuses to start with.
const DefaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	// Server
	ServerPort     string
	// TrustedProxies lists the proxy IPs or CIDRs whose X-Forwarded-For is
	// honoured. Empty means the socket address is the client IP.
	TrustedProxies []string

	// Logging
	LogLevel  string
	LogFormat string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Auth
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// AWS S3
	AWSRegion             string
	AWSAccessKeyID        string
	AWSSecretAccessKey    string
	AWSEndpoint           string
	S3UseSSL              string
	S3BucketName          string
	S3AdsBucketName       string
	S3ProcessedBucketName string
	AWSWebhookSecret      string

	// Payments
	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentCurrency     string

	// RabbitMQ
	RabbitMQHost     string
	RabbitMQPort     string
	RabbitMQUser     string
	RabbitMQPassword string

	// Wallet / classifieds
	WalletStartingBalance decimal.Decimal
	ClassifiedPostingFee  decimal.Decimal
	SystemUserID          string

	// Ad event rate limiting
	AdEventRateLimit  int
	AdEventRateWindow time.Duration
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	accessTTL, err := getDuration("ACCESS_TOKEN_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := getDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	rateWindow, err := getDuration("AD_EVENT_RATE_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}
	rateLimit, err := getInt("AD_EVENT_RATE_LIMIT", 100)
	if err != nil {
		return nil, err
	}
	redisDB, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	startingBalance, err := getDecimal("WALLET_STARTING_BALANCE", "1000")
	if err != nil {
		return nil, err
	}
	postingFee, err := getDecimal("CLASSIFIED_POSTING_FEE", "50")
	if err != nil {
		return nil, err
	}

	mainBucket := getEnv("S3_BUCKET_NAME", "quddle-reels")

	config := &Config{
		ServerPort:     getEnv("SERVER_PORT", "3000"),
		TrustedProxies: getList("TRUSTED_PROXIES"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "quddle"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		JWTSecret:       getEnv("JWT_SECRET", DefaultJWTSecret),
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,

		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:        getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpoint:           getEnv("AWS_ENDPOINT", ""),
		S3UseSSL:              getEnv("S3_USE_SSL", "true"),
		S3BucketName:          mainBucket,
		S3AdsBucketName:       getEnv("S3_ADS_BUCKET_NAME", mainBucket),
		S3ProcessedBucketName: getEnv("S3_PROCESSED_BUCKET_NAME", "quddle-ai-reel-upload-process-videos"),
		AWSWebhookSecret:      getEnv("AWS_WEBHOOK_SECRET", ""),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		PaymentCurrency:     getEnv("PAYMENT_CURRENCY", "usd"),

		RabbitMQHost:     getEnv("RABBITMQ_HOST", ""),
		RabbitMQPort:     getEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser:     getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword: getEnv("RABBITMQ_PASSWORD", "guest"),

		WalletStartingBalance: startingBalance,
		ClassifiedPostingFee:  postingFee,
		SystemUserID:          getEnv("SYSTEM_USER_ID", "00000000-0000-0000-0000-000000000000"),

		AdEventRateLimit:  rateLimit,
		AdEventRateWindow: rateWindow,
	}

	return config, nil
}

// RedisAddr returns host:port for the redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// PostgresDSN returns the libpq keyword/value connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost,
		c.DBUser,
		c.DBPassword,
		c.DBName,
		c.DBPort,
		c.DBSSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getDecimal(key, defaultValue string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(getEnv(key, defaultValue))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
