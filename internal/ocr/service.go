// Package ocr provides the OCR engines and the worker pool that runs them.
//
// An Engine is one long-lived recognizer instance: expensive to create,
// cheap to call, and never safe for two concurrent callers. A Pool owns a
// fixed set of engines and dispatches by worker index so callers can run
// different workers in parallel while each worker stays single-threaded.
//
// Engines:
//   - tesseract: local Tesseract through gosseract (default)
//   - vision: Google Cloud Vision document text detection
//   - documentai: Google Document AI OCR processor
//
// The cloud engines read credentials the same way:
//   - GOOGLE_CREDENTIALS: inline service account JSON, OR
//   - GOOGLE_APPLICATION_CREDENTIALS: path to a service account JSON file, OR
//   - Application Default Credentials
package ocr

import (
	"context"
	"fmt"
)

// Engine kinds accepted by NewEngineFactory.
const (
	EngineTesseract  = "tesseract"
	EngineVision     = "vision"
	EngineDocumentAI = "documentai"
)

// DefaultLanguage is the Tesseract language model used when none is configured.
const DefaultLanguage = "eng"

// Engine recognizes text in one image at a time.
type Engine interface {
	// Recognize returns the text found in a PNG image.
	Recognize(ctx context.Context, image []byte) (string, error)

	// Close releases the engine's resources.
	Close() error
}

// EngineFactory creates a fresh, initialized engine.
type EngineFactory func(ctx context.Context) (Engine, error)

// EngineConfig selects and configures an engine backend.
type EngineConfig struct {
	// Kind is one of EngineTesseract, EngineVision, EngineDocumentAI.
	Kind string

	// Language is the Tesseract language code (e.g., "eng").
	Language string

	// Quiet suppresses the engine's own diagnostic output.
	Quiet bool

	// Document AI processor settings.
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
}

// NewEngineFactory returns a factory for the configured engine kind.
func NewEngineFactory(cfg EngineConfig) (EngineFactory, error) {
	language := cfg.Language
	if language == "" {
		language = DefaultLanguage
	}

	switch cfg.Kind {
	case "", EngineTesseract:
		return func(ctx context.Context) (Engine, error) {
			return NewTesseractEngine(language, cfg.Quiet)
		}, nil
	case EngineVision:
		return func(ctx context.Context) (Engine, error) {
			return NewGoogleVisionEngine(ctx, language)
		}, nil
	case EngineDocumentAI:
		dcfg := DocumentAIConfig{
			ProjectID:        cfg.ProjectID,
			Location:         cfg.Location,
			ProcessorID:      cfg.ProcessorID,
			ProcessorVersion: cfg.ProcessorVersion,
		}
		if err := dcfg.validate(); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (Engine, error) {
			return NewDocumentAIEngine(ctx, dcfg)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.Kind)
	}
}
