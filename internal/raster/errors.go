package raster

import (
	"errors"
	"fmt"
)

// Rasterization errors. ErrToolNotFound and ErrToolNotExecutable both match
// ErrToolMissing with errors.Is, so callers can branch on the broad class or
// on the specific cause.
var (
	// ErrToolMissing is returned when pdftoppm cannot be located or run.
	ErrToolMissing = errors.New("rasterization tool unavailable")

	// ErrToolNotFound is returned when no pdftoppm binary exists at any candidate location.
	ErrToolNotFound = fmt.Errorf("%w: pdftoppm not found", ErrToolMissing)

	// ErrToolNotExecutable is returned when pdftoppm exists but the OS refuses to
	// run it (missing execute bit, quarantine, code signature).
	ErrToolNotExecutable = fmt.Errorf("%w: pdftoppm is not executable", ErrToolMissing)

	// ErrNoPagesProduced is returned when pdftoppm exits cleanly without writing any page image.
	ErrNoPagesProduced = errors.New("rasterization produced no pages")

	// ErrExecutionTimeout is returned when pdftoppm exceeds its time budget.
	ErrExecutionTimeout = errors.New("rasterization timed out")

	// ErrRasterizeFailed is returned for any other pdftoppm failure.
	ErrRasterizeFailed = errors.New("rasterization failed")
)

// ToolError wraps a rasterization failure with the binary involved.
type ToolError struct {
	// Op is the operation that failed (e.g., "Locate", "Rasterize").
	Op string

	// Path is the binary path, when known.
	Path string

	// Err is the underlying error.
	Err error

	// Details carries diagnostics such as exit code and stderr.
	Details string
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	msg := fmt.Sprintf("raster: %s failed", e.Op)
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %v", msg, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

// Unwrap returns the underlying error.
func (e *ToolError) Unwrap() error {
	return e.Err
}

func newToolError(op, path string, err error, details string) *ToolError {
	return &ToolError{Op: op, Path: path, Err: err, Details: details}
}
