package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"pdfocr/internal/ocr"
	"pdfocr/internal/raster"
)

var (
	// ErrIO is returned when a required filesystem step fails (workspace
	// creation, reading a page image). Cleanup failures are never reported.
	ErrIO = errors.New("file system operation failed")

	// ErrDocumentPanic is reported for a batch item whose processing panicked
	// outside page recognition.
	ErrDocumentPanic = errors.New("document processing panicked")

	// ErrInvalidConcurrency is returned by ProcessBatch for a concurrency below 1.
	ErrInvalidConcurrency = errors.New("batch concurrency must be at least 1")
)

// DocumentError reports why one document could not be processed.
type DocumentError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *DocumentError) Error() string {
	return fmt.Sprintf("pipeline: %s: %v", filepath.Base(e.Path), e.Err)
}

// Unwrap returns the underlying error.
func (e *DocumentError) Unwrap() error {
	return e.Err
}

// PageError reports a failure on one page. Index is 1-based.
type PageError struct {
	Index int
	Err   error
}

// Error implements the error interface.
func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *PageError) Unwrap() error {
	return e.Err
}

// User-facing messages produced by UserMessage.
const (
	MsgToolNotFound      = "PDF rasterizer (pdftoppm) not found. Install poppler: brew install poppler (macOS) or sudo apt-get install poppler-utils (Linux)"
	MsgToolNotExecutable = "PDF rasterizer was found but could not be executed. Check its permissions or code signature."
	MsgNoPages           = "No pages were converted from the PDF. The file may be empty or corrupted."
	MsgTimeout           = "PDF conversion timed out."
	MsgCanceled          = "Processing was canceled."
	MsgEngineInit        = "The OCR engine could not be started. Check the OCR installation and language data."
	MsgGeneric           = "Error processing PDF."
)

// UserMessage turns a pipeline error into a short message for end users.
// The full error chain belongs in the logs, not in this message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var pageErr *PageError

	switch {
	case errors.Is(err, raster.ErrToolNotFound):
		return MsgToolNotFound
	case errors.Is(err, raster.ErrToolNotExecutable):
		return MsgToolNotExecutable
	case errors.Is(err, raster.ErrNoPagesProduced):
		return MsgNoPages
	case errors.Is(err, raster.ErrExecutionTimeout):
		return MsgTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return MsgCanceled
	case errors.Is(err, ocr.ErrEngineInit):
		return MsgEngineInit
	case errors.As(err, &pageErr) && errors.Is(err, ocr.ErrOCRFailed):
		return fmt.Sprintf("Text recognition failed on page %d.", pageErr.Index)
	default:
		return MsgGeneric
	}
}
