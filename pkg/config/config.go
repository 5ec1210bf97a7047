package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"storefront"`
	ServerPort  int    `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL"`

	JWTSecret    []byte        `envconfig:"JWT_SECRET"`
	TokenTTL     time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	SecureCookie bool          `envconfig:"SECURE_COOKIE" default:"true"`
	CSRFEnabled  bool          `envconfig:"CSRF_ENABLED" default:"true"`

	SiteURL string `envconfig:"SITE_URL" default:"http://localhost:5173"`

	PaymentProvider     string `envconfig:"PAYMENT_PROVIDER" default:"stripe"`
	PaymentCurrency     string `envconfig:"PAYMENT_CURRENCY" default:"usd"`
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	MidtransServerKey   string `envconfig:"MIDTRANS_SERVER_KEY"`
	MidtransProduction  bool   `envconfig:"MIDTRANS_PRODUCTION" default:"false"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`

	ESURL      string `envconfig:"ES_URL"`
	ESUser     string `envconfig:"ES_USER"`
	ESPassword string `envconfig:"ES_PASSWORD"`
	ESIndex    string `envconfig:"ES_INDEX" default:"products"`

	S3Bucket        string        `envconfig:"S3_BUCKET"`
	S3Region        string        `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint      string        `envconfig:"S3_ENDPOINT"`
	S3AccessKey     string        `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey     string        `envconfig:"S3_SECRET_KEY"`
	S3PublicBaseURL string        `envconfig:"S3_PUBLIC_BASE_URL"`
	MediaURLTTL     time.Duration `envconfig:"MEDIA_URL_TTL" default:"1h"`
	UploadURLTTL    time.Duration `envconfig:"UPLOAD_URL_TTL" default:"15m"`

	ReconcileInterval time.Duration `envconfig:"RECONCILE_INTERVAL" default:"0s"`
	ReconcileAfter    time.Duration `envconfig:"RECONCILE_AFTER" default:"30m"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	cfg.PaymentProvider = strings.ToLower(strings.TrimSpace(cfg.PaymentProvider))

	return cfg, nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
