package ocr

import (
	"errors"
	"fmt"
)

// Common OCR errors
var (
	// ErrOCRFailed is returned when an engine fails to recognize an image.
	ErrOCRFailed = errors.New("OCR recognition failed")

	// ErrEngineInit is returned when an engine instance cannot be created.
	ErrEngineInit = errors.New("OCR engine initialization failed")

	// ErrPoolClosed is returned when a pool is used after Shutdown.
	ErrPoolClosed = errors.New("OCR worker pool is shut down")

	// ErrWorkerBusy is returned when a worker already has a call in flight.
	// Each engine instance serves at most one caller at a time.
	ErrWorkerBusy = errors.New("OCR worker is busy")

	// ErrInvalidPoolSize is returned when a pool is requested with fewer than one worker.
	ErrInvalidPoolSize = errors.New("OCR pool size must be at least 1")

	// ErrUnknownEngine is returned for an unsupported engine kind.
	ErrUnknownEngine = errors.New("unknown OCR engine")

	// ErrMissingCredentials is returned when a cloud engine cannot find Google
	// Cloud credentials (GOOGLE_CREDENTIALS, GOOGLE_APPLICATION_CREDENTIALS or ADC).
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")
)

// OCRError wraps errors with additional context about the OCR failure.
type OCRError struct {
	// Op is the operation that failed (e.g., "Recognize", "NewPool").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *OCRError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *OCRError) Unwrap() error {
	return e.Err
}

// NewOCRError creates a new OCRError with the specified operation and underlying error.
func NewOCRError(op string, err error, details string) *OCRError {
	return &OCRError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapOCRError wraps an error as an OCRError if it isn't already one.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err
	}

	return NewOCRError(op, err, details)
}
