//go:build darwin

package raster

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

const libraryPathVar = "DYLD_LIBRARY_PATH"

// bundledRoots lists poppler bundle roots, each holding bin/ and lib/. The
// second entry matches the Resources folder of a packaged .app.
func bundledRoots(exeDir string) []string {
	if exeDir == "" {
		return nil
	}
	return []string{
		filepath.Join(exeDir, "poppler", platformDir()),
		filepath.Join(exeDir, "..", "Resources", "poppler"),
	}
}

// prepareBundled clears the download quarantine flag and restores the
// execute bit, both of which are lost when an app bundle is copied around.
func prepareBundled(ctx context.Context, path string) error {
	// xattr exits non-zero when the attribute is absent.
	_ = exec.CommandContext(ctx, "xattr", "-d", "com.apple.quarantine", path).Run()

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm()&0o111 == 0 {
		return os.Chmod(path, 0o755)
	}
	return nil
}

// killedAtLaunch reports whether the kernel killed the process before it
// could run, which is how Gatekeeper rejects an unsigned binary.
func killedAtLaunch(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	ws, ok := exitErr.Sys().(syscall.WaitStatus)
	return ok && ws.Signaled() && ws.Signal() == syscall.SIGKILL
}
