package ocr

import (
	"context"
	"fmt"
	"os"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine wraps one gosseract client. The client keeps its
// initialized Tesseract API between calls, so reusing the engine only pays
// the model load once.
type TesseractEngine struct {
	client *gosseract.Client
}

// NewTesseractEngine creates a client bound to a single language model.
func NewTesseractEngine(language string, quiet bool) (*TesseractEngine, error) {
	const op = "NewTesseractEngine"

	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		_ = client.Close()
		return nil, NewOCRError(op, fmt.Errorf("%w: %w", ErrEngineInit, err), "language "+language)
	}
	if quiet {
		if err := client.SetVariable("debug_file", os.DevNull); err != nil {
			_ = client.Close()
			return nil, NewOCRError(op, fmt.Errorf("%w: %w", ErrEngineInit, err), "silencing engine output")
		}
	}

	return &TesseractEngine{client: client}, nil
}

// Recognize implements Engine.
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := e.client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}

// Close implements Engine.
func (e *TesseractEngine) Close() error {
	return e.client.Close()
}
