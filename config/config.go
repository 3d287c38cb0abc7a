package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all runtime settings. Everything comes from the environment
// (optionally via a .env file); credentials are never read from committed files.
type Config struct {
	BindAddress string `env:"BIND_ADDRESS" envDefault:"0.0.0.0:8080"`
	TLSDomains  string `env:"TLS_DOMAINS" envDefault:""` // e.g. "example.com,example2.com"
	DebugMode   bool   `env:"DEBUG_MODE" envDefault:"true"`
	SessionKey  string `env:"SESSION_KEY" envDefault:"dev-session-key-change-me"`

	// MySQL is used if the DSN is set, otherwise SQLite
	MySQLDSN   string `env:"MYSQL_DSN" envDefault:""`
	SQLiteFile string `env:"SQLITE_FILE" envDefault:"data/memories.db"`

	// "local" or "s3"
	StorageType    string `env:"STORAGE_TYPE" envDefault:"local"`
	UploadsDir     string `env:"UPLOADS_DIR" envDefault:"data/uploads"`
	UploadsBaseURL string `env:"UPLOADS_BASE_URL" envDefault:"/uploads"`

	// S3-compatible object storage (R2, MinIO, etc)
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3Region    string `env:"S3_REGION" envDefault:"auto"`
	S3Bucket    string `env:"S3_BUCKET"`
	S3AccessKey string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3KeyPrefix string `env:"S3_KEY_PREFIX" envDefault:"uploads"`

	// Initial password for the seeded "admin" account
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"a123456"`
}

func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		logrus.WithError(err).Error("config: cannot parse environment")
		return Config{}, err
	}
	return cfg, nil
}
