// Package raster converts PDF documents into one grayscale PNG per page by
// running poppler's pdftoppm.
//
// The binary is resolved through a ToolLocator so that bundled copies,
// configured paths and platform quirks (macOS quarantine flags, dynamic
// library search paths) stay out of the pipeline. Every invocation is bounded
// by a hard timeout and writes only inside the directory it is given.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pdfocr/internal/logger"
)

const (
	// DefaultDPI is the render resolution used for OCR input.
	DefaultDPI = 200

	// DefaultTimeout bounds a single pdftoppm run.
	DefaultTimeout = 5 * time.Minute

	// PagePrefix is the file name prefix handed to pdftoppm.
	PagePrefix = "page"
)

var pageFilePattern = regexp.MustCompile(`^` + PagePrefix + `-(\d+)\.png$`)

// Page is one rendered page image inside a workspace.
type Page struct {
	// Index is the 1-based position of the page in the document.
	Index int

	// Number is the page number pdftoppm encoded in the file name.
	Number int

	// Path is the image file location.
	Path string
}

// Rasterizer renders PDF pages with pdftoppm.
type Rasterizer struct {
	locator ToolLocator
	dpi     int
	timeout time.Duration
	log     zerolog.Logger
}

// Option configures a Rasterizer.
type Option func(*Rasterizer)

// WithDPI overrides the render resolution.
func WithDPI(dpi int) Option {
	return func(r *Rasterizer) {
		if dpi > 0 {
			r.dpi = dpi
		}
	}
}

// WithTimeout overrides the hard execution timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Rasterizer) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Rasterizer) { r.log = log }
}

// New creates a Rasterizer that resolves pdftoppm through locator.
func New(locator ToolLocator, opts ...Option) *Rasterizer {
	r := &Rasterizer{
		locator: locator,
		dpi:     DefaultDPI,
		timeout: DefaultTimeout,
		log:     logger.WithComponent("raster"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rasterize renders every page of pdfPath into outDir and returns the pages
// in page order. outDir must exist.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath, outDir string) ([]Page, error) {
	const op = "Rasterize"

	tool, err := r.locator.Locate(ctx)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := []string{
		"-png",
		"-gray",
		"-r", strconv.Itoa(r.dpi),
		pdfPath,
		filepath.Join(outDir, PagePrefix),
	}
	cmd := exec.CommandContext(runCtx, tool.Path, args...)
	cmd.Env = append(os.Environ(), tool.Env...)
	cmd.WaitDelay = 2 * time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	r.log.Debug().
		Str("tool", tool.Path).
		Strs("args", args).
		Dur("timeout", r.timeout).
		Msg("Running rasterizer")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, newToolError(op, tool.Path, ErrExecutionTimeout, fmt.Sprintf("exceeded %s", r.timeout))
		}
		return nil, classifyRunError(op, tool.Path, err, stderr.String())
	}

	pages, err := ListPages(outDir)
	if err != nil {
		return nil, newToolError(op, tool.Path, err, "listing rendered pages")
	}
	if len(pages) == 0 {
		return nil, newToolError(op, tool.Path, ErrNoPagesProduced, filepath.Base(pdfPath))
	}

	r.log.Debug().
		Int("pages", len(pages)).
		Dur("duration", time.Since(start)).
		Msg("Rasterization complete")

	return pages, nil
}

func classifyRunError(op, path string, err error, stderr string) error {
	details := strings.TrimSpace(stderr)

	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, exec.ErrNotFound):
		return newToolError(op, path, ErrToolNotFound, err.Error())
	case errors.Is(err, fs.ErrPermission), killedAtLaunch(err):
		return newToolError(op, path, ErrToolNotExecutable, err.Error())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case 126:
			return newToolError(op, path, ErrToolNotExecutable, details)
		case 127:
			return newToolError(op, path, ErrToolNotFound, details)
		}
		return newToolError(op, path, ErrRasterizeFailed, fmt.Sprintf("exit code %d: %s", exitErr.ExitCode(), details))
	}
	return newToolError(op, path, fmt.Errorf("%w: %v", ErrRasterizeFailed, err), details)
}

// ListPages returns the page images in dir sorted by their embedded page
// number, so page-10 follows page-9 rather than page-1.
func ListPages(dir string) ([]Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var pages []Page
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := pageFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		pages = append(pages, Page{Number: n, Path: filepath.Join(dir, entry.Name())})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	for i := range pages {
		pages[i].Index = i + 1
	}
	return pages, nil
}
