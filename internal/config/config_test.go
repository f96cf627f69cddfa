package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tesseract", cfg.OCREngine)
	assert.Equal(t, "eng", cfg.OCRLanguage)
	assert.Equal(t, 4, cfg.PoolMin)
	assert.Equal(t, 16, cfg.PoolMax)
	assert.Equal(t, 2, cfg.PoolFactor)
	assert.Equal(t, 32, cfg.MaxEngines)
	assert.True(t, cfg.EngineQuiet)
	assert.Equal(t, 200, cfg.RasterDPI)
	assert.Equal(t, 5*time.Minute, cfg.RasterTimeout)
	assert.Equal(t, 4, cfg.BatchConcurrency)
	assert.Equal(t, "stderr", cfg.LogOutput)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("OCR_ENGINE", "Vision")
	t.Setenv("OCR_LANGUAGE", "deu")
	t.Setenv("RASTER_TIMEOUT", "90s")
	t.Setenv("BATCH_CONCURRENCY", "2")
	t.Setenv("PDFTOPPM_PATH", "/opt/poppler/bin/pdftoppm")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "vision", cfg.OCREngine)
	assert.Equal(t, "deu", cfg.OCRLanguage)
	assert.Equal(t, 90*time.Second, cfg.RasterTimeout)
	assert.Equal(t, 2, cfg.BatchConcurrency)
	assert.Equal(t, "/opt/poppler/bin/pdftoppm", cfg.PdftoppmPath)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown engine", map[string]string{"OCR_ENGINE": "abbyy"}, "OCR_ENGINE"},
		{"documentai without processor", map[string]string{"OCR_ENGINE": "documentai", "GOOGLE_CLOUD_PROJECT": "p"}, "DOCUMENT_AI_PROCESSOR_ID"},
		{"inverted pool bounds", map[string]string{"OCR_POOL_MIN": "8", "OCR_POOL_MAX": "4"}, "pool bounds"},
		{"zero concurrency", map[string]string{"BATCH_CONCURRENCY": "0"}, "BATCH_CONCURRENCY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetLoggerConfig(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "json", LogTimeFormat: time.RFC3339, LogOutput: "stdout"}
	lc := cfg.GetLoggerConfig()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, "stdout", lc.Output)
}

func TestGetEngineConfigAndPolicy(t *testing.T) {
	cfg := &Config{
		OCREngine:             "documentai",
		OCRLanguage:           "deu",
		EngineQuiet:           true,
		GoogleCloudProject:    "acme",
		GoogleCloudLocation:   "eu",
		DocumentAIProcessorID: "abc123",
		PoolMin:               2,
		PoolMax:               6,
		PoolFactor:            3,
	}

	ec := cfg.GetEngineConfig()
	assert.Equal(t, "documentai", ec.Kind)
	assert.Equal(t, "deu", ec.Language)
	assert.True(t, ec.Quiet)
	assert.Equal(t, "eu", ec.Location)
	assert.Equal(t, "abc123", ec.ProcessorID)

	policy := cfg.GetSizePolicy()
	assert.Equal(t, 3, policy.Size(1))
	assert.Equal(t, 6, policy.Size(4))
}
