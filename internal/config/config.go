package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Mode selects the persistence path for the whole process.
type Mode string

const (
	ModeLocalDev Mode = "local-dev"
	ModeDatabase Mode = "database"
)

type Config struct {
	HTTPAddr   string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel   slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	CORSOrigin string     `env:"CORS_ORIGIN" envDefault:"http://localhost:3000"`

	LocalDevMode bool   `env:"LOCAL_DEV_MODE"`
	DatabaseURL  string `env:"DATABASE_URL"`

	// Local-dev persistence.
	StateBackend        string `env:"STATE_BACKEND" envDefault:"file"`
	StateDir            string `env:"STATE_DIR" envDefault:"data"`
	GCPProjectID        string `env:"GCP_PROJECT_ID"`
	FirestoreDatabase   string `env:"FIRESTORE_DATABASE"`
	FirestoreCollection string `env:"FIRESTORE_COLLECTION" envDefault:"localDevState"`
	CredentialsFile     string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	JWTSecret          string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	TokenTTL           time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	LocalAdminEmail    string        `env:"LOCAL_ADMIN_EMAIL" envDefault:"admin@localhost.com"`
	LocalAdminPassword string        `env:"LOCAL_ADMIN_PASSWORD" envDefault:"admin1234"`

	BlobDriver    string `env:"BLOB_DRIVER" envDefault:"fs"`
	BlobDir       string `env:"BLOB_DIR" envDefault:"uploads"`
	BlobPublicURL string `env:"BLOB_PUBLIC_URL" envDefault:"/uploads"`
	S3Bucket      string `env:"S3_BUCKET"`
	S3Region      string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint    string `env:"S3_ENDPOINT"`
	S3PathStyle   bool   `env:"S3_PATH_STYLE"`

	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	SMTPFrom string `env:"SMTP_FROM"`

	// Zero disables the analytics scheduler.
	AnalyticsInterval time.Duration `env:"ANALYTICS_INTERVAL" envDefault:"1h"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	switch cfg.StateBackend {
	case "file", "sqlite", "firestore", "memory":
	default:
		return nil, fmt.Errorf("unknown STATE_BACKEND %q", cfg.StateBackend)
	}
	switch cfg.BlobDriver {
	case "fs", "s3":
	default:
		return nil, fmt.Errorf("unknown BLOB_DRIVER %q", cfg.BlobDriver)
	}
	if cfg.BlobDriver == "s3" && cfg.S3Bucket == "" {
		return nil, fmt.Errorf("BLOB_DRIVER=s3 requires S3_BUCKET")
	}
	return &cfg, nil
}

// Mode is LocalDev when LOCAL_DEV_MODE is set or no DATABASE_URL is given.
func (c *Config) Mode() Mode {
	if c.LocalDevMode || c.DatabaseURL == "" {
		return ModeLocalDev
	}
	return ModeDatabase
}
