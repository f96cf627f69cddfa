package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pdfocr/internal/logger"
	"pdfocr/internal/ocr"
)

// Config holds runtime configuration, read from the environment (and a .env
// file loaded by main) with defaults for every key.
type Config struct {
	// OCR engine
	OCREngine   string
	OCRLanguage string
	PoolMin     int
	PoolMax     int
	PoolFactor  int
	MaxEngines  int
	EngineQuiet bool

	// Rasterizer
	PdftoppmPath  string
	RasterDPI     int
	RasterTimeout time.Duration

	// Pipeline
	BatchConcurrency int
	WorkspaceRoot    string

	// Google Cloud, used by the vision and documentai engines
	GoogleCloudProject         string
	GoogleCloudLocation        string
	DocumentAIProcessorID      string
	DocumentAIProcessorVersion string

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

var defaults = map[string]any{
	"OCR_ENGINE":                    "tesseract",
	"OCR_LANGUAGE":                  "eng",
	"OCR_POOL_MIN":                  4,
	"OCR_POOL_MAX":                  16,
	"OCR_POOL_MULTIPLIER":           2,
	"OCR_MAX_ENGINES":               32,
	"OCR_ENGINE_QUIET":              true,
	"PDFTOPPM_PATH":                 "",
	"RASTER_DPI":                    200,
	"RASTER_TIMEOUT":                "5m",
	"BATCH_CONCURRENCY":             4,
	"WORKSPACE_ROOT":                "",
	"GOOGLE_CLOUD_PROJECT":          "",
	"GOOGLE_CLOUD_LOCATION":         "us",
	"DOCUMENT_AI_PROCESSOR_ID":      "",
	"DOCUMENT_AI_PROCESSOR_VERSION": "",
	"LOG_LEVEL":                     "info",
	"LOG_FORMAT":                    "console",
	"LOG_TIME_FORMAT":               time.RFC3339,
	"LOG_OUTPUT":                    "stderr",
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	config := &Config{
		OCREngine:                  strings.ToLower(v.GetString("OCR_ENGINE")),
		OCRLanguage:                v.GetString("OCR_LANGUAGE"),
		PoolMin:                    v.GetInt("OCR_POOL_MIN"),
		PoolMax:                    v.GetInt("OCR_POOL_MAX"),
		PoolFactor:                 v.GetInt("OCR_POOL_MULTIPLIER"),
		MaxEngines:                 v.GetInt("OCR_MAX_ENGINES"),
		EngineQuiet:                v.GetBool("OCR_ENGINE_QUIET"),
		PdftoppmPath:               v.GetString("PDFTOPPM_PATH"),
		RasterDPI:                  v.GetInt("RASTER_DPI"),
		RasterTimeout:              v.GetDuration("RASTER_TIMEOUT"),
		BatchConcurrency:           v.GetInt("BATCH_CONCURRENCY"),
		WorkspaceRoot:              v.GetString("WORKSPACE_ROOT"),
		GoogleCloudProject:         v.GetString("GOOGLE_CLOUD_PROJECT"),
		GoogleCloudLocation:        v.GetString("GOOGLE_CLOUD_LOCATION"),
		DocumentAIProcessorID:      v.GetString("DOCUMENT_AI_PROCESSOR_ID"),
		DocumentAIProcessorVersion: v.GetString("DOCUMENT_AI_PROCESSOR_VERSION"),
		LogLevel:                   v.GetString("LOG_LEVEL"),
		LogFormat:                  v.GetString("LOG_FORMAT"),
		LogTimeFormat:              v.GetString("LOG_TIME_FORMAT"),
		LogOutput:                  v.GetString("LOG_OUTPUT"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.OCREngine {
	case "tesseract", "vision":
	case "documentai":
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required for the documentai engine")
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required for the documentai engine")
		}
	default:
		return fmt.Errorf("OCR_ENGINE must be one of tesseract, vision, documentai (got %q)", c.OCREngine)
	}
	if c.OCRLanguage == "" {
		return fmt.Errorf("OCR_LANGUAGE must not be empty")
	}
	if c.PoolMin < 1 || c.PoolMax < c.PoolMin {
		return fmt.Errorf("invalid pool bounds: OCR_POOL_MIN=%d OCR_POOL_MAX=%d", c.PoolMin, c.PoolMax)
	}
	if c.PoolFactor < 1 {
		return fmt.Errorf("OCR_POOL_MULTIPLIER must be at least 1")
	}
	if c.MaxEngines < 0 {
		return fmt.Errorf("OCR_MAX_ENGINES must not be negative")
	}
	if c.RasterDPI <= 0 {
		return fmt.Errorf("RASTER_DPI must be positive")
	}
	if c.RasterTimeout <= 0 {
		return fmt.Errorf("RASTER_TIMEOUT must be positive")
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be at least 1")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// GetEngineConfig returns the OCR engine settings.
func (c *Config) GetEngineConfig() ocr.EngineConfig {
	return ocr.EngineConfig{
		Kind:             c.OCREngine,
		Language:         c.OCRLanguage,
		Quiet:            c.EngineQuiet,
		ProjectID:        c.GoogleCloudProject,
		Location:         c.GoogleCloudLocation,
		ProcessorID:      c.DocumentAIProcessorID,
		ProcessorVersion: c.DocumentAIProcessorVersion,
	}
}

// GetSizePolicy returns the OCR pool sizing policy.
func (c *Config) GetSizePolicy() ocr.SizePolicy {
	return ocr.SizePolicy{Min: c.PoolMin, Max: c.PoolMax, Multiplier: c.PoolFactor}
}
