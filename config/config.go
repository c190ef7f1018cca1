package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	StorageRoot    string `env:"PRODUCT_IMAGES_STORAGE_ROOT"     envDefault:"./data/images"`
	HTTPAddr       string `env:"PRODUCT_IMAGES_HTTP_ADDR"        envDefault:":8080"`
	LogLevel       string `env:"PRODUCT_IMAGES_LOG_LEVEL"        envDefault:"debug"`
	LogFormat      string `env:"PRODUCT_IMAGES_LOG_FORMAT"       envDefault:"console"`
	MaxUploadBytes int64  `env:"PRODUCT_IMAGES_MAX_UPLOAD_BYTES" envDefault:"10485760"`
	ServiceName    string `env:"PRODUCT_IMAGES_SERVICE_NAME"     envDefault:"product-images"`

	// Mirroring to Cloud Storage is disabled when GCSBucket is empty.
	GCSBucket    string `env:"PRODUCT_IMAGES_GCS_BUCKET"`
	GCSPrefix    string `env:"PRODUCT_IMAGES_GCS_PREFIX" envDefault:"products/"`
	OTLPEndpoint string `env:"PRODUCT_IMAGES_OTLP_ENDPOINT"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MaxUploadBytes <= 0 {
		return Config{}, fmt.Errorf("PRODUCT_IMAGES_MAX_UPLOAD_BYTES must be positive, got %d", cfg.MaxUploadBytes)
	}
	return cfg, nil
}
