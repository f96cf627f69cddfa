package raster

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"

	"pdfocr/internal/logger"
)

// DefaultBinary is the poppler tool used to rasterize pages.
const DefaultBinary = "pdftoppm"

// Tool is a validated rasterizer binary plus the extra environment it needs.
type Tool struct {
	Path string
	Env  []string
}

// ToolLocator finds a runnable rasterizer binary. All platform-specific
// discovery lives behind this interface.
type ToolLocator interface {
	Locate(ctx context.Context) (Tool, error)
}

// StaticLocator always returns the same binary after checking it can run.
type StaticLocator struct {
	Path string
	Env  []string
}

// Locate implements ToolLocator.
func (s StaticLocator) Locate(_ context.Context) (Tool, error) {
	if err := validateExecutable(s.Path); err != nil {
		return Tool{}, err
	}
	return Tool{Path: s.Path, Env: s.Env}, nil
}

// SystemLocator resolves pdftoppm in order: an explicitly configured path,
// a copy bundled next to the running executable, then $PATH.
type SystemLocator struct {
	// Configured is an explicit binary path. When set, no other location is tried.
	Configured string

	// BundleDir is the directory searched for bundled copies. Defaults to
	// the directory of the running executable.
	BundleDir string

	// Binary is the executable name. Defaults to DefaultBinary.
	Binary string

	lookPath func(string) (string, error)
	log      zerolog.Logger
}

// NewSystemLocator creates a locator honoring an optional configured path.
func NewSystemLocator(configured string) *SystemLocator {
	return &SystemLocator{
		Configured: configured,
		Binary:     DefaultBinary,
		lookPath:   exec.LookPath,
		log:        logger.WithComponent("raster-locator"),
	}
}

// Locate implements ToolLocator.
func (l *SystemLocator) Locate(ctx context.Context) (Tool, error) {
	if l.Configured != "" {
		if err := validateExecutable(l.Configured); err != nil {
			return Tool{}, err
		}
		return Tool{Path: l.Configured}, nil
	}

	binary := l.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	for _, root := range bundledRoots(l.bundleDir()) {
		candidate := filepath.Join(root, "bin", binary)
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		l.log.Debug().Str("path", candidate).Msg("Using bundled rasterizer")
		if err := prepareBundled(ctx, candidate); err != nil {
			l.log.Warn().Err(err).Str("path", candidate).Msg("Could not prepare bundled rasterizer")
		}
		if err := validateExecutable(candidate); err != nil {
			return Tool{}, err
		}
		return Tool{Path: candidate, Env: libraryEnv(filepath.Join(root, "lib"))}, nil
	}

	lookPath := l.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(binary)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Tool{}, newToolError("Locate", binary, ErrToolNotFound, "not bundled and not on PATH")
		}
		return Tool{}, newToolError("Locate", binary, ErrToolNotExecutable, err.Error())
	}
	return Tool{Path: path}, nil
}

func (l *SystemLocator) bundleDir() string {
	if l.BundleDir != "" {
		return l.BundleDir
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// platformDir is the per-platform subdirectory used for bundled binaries.
func platformDir() string {
	return fmt.Sprintf("%s-%s", runtime.GOOS, runtime.GOARCH)
}

func validateExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newToolError("Locate", path, ErrToolNotFound, "")
		}
		return newToolError("Locate", path, ErrToolNotExecutable, err.Error())
	}
	if info.IsDir() {
		return newToolError("Locate", path, ErrToolNotFound, "path is a directory")
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return newToolError("Locate", path, ErrToolNotExecutable, fmt.Sprintf("mode %s", info.Mode().Perm()))
	}
	return nil
}

func libraryEnv(libDir string) []string {
	if libraryPathVar == "" {
		return nil
	}
	if info, err := os.Stat(libDir); err != nil || !info.IsDir() {
		return nil
	}
	value := libDir
	if existing := os.Getenv(libraryPathVar); existing != "" {
		value += string(os.PathListSeparator) + existing
	}
	return []string{libraryPathVar + "=" + value}
}
