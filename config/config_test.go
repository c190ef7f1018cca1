package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "./data/images", cfg.StorageRoot)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
		assert.Empty(t, cfg.GCSBucket)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("PRODUCT_IMAGES_STORAGE_ROOT", "/srv/images")
		t.Setenv("PRODUCT_IMAGES_GCS_BUCKET", "catalogue")
		t.Setenv("PRODUCT_IMAGES_MAX_UPLOAD_BYTES", "1024")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "/srv/images", cfg.StorageRoot)
		assert.Equal(t, "catalogue", cfg.GCSBucket)
		assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	})

	t.Run("rejects a non positive upload limit", func(t *testing.T) {
		t.Setenv("PRODUCT_IMAGES_MAX_UPLOAD_BYTES", "0")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects a malformed number", func(t *testing.T) {
		t.Setenv("PRODUCT_IMAGES_MAX_UPLOAD_BYTES", "lots")
		_, err := Load()
		assert.Error(t, err)
	})
}
