//go:build !darwin

package raster

import (
	"context"
	"path/filepath"
	"runtime"
)

var libraryPathVar = func() string {
	if runtime.GOOS == "windows" {
		return ""
	}
	return "LD_LIBRARY_PATH"
}()

func bundledRoots(exeDir string) []string {
	if exeDir == "" {
		return nil
	}
	return []string{filepath.Join(exeDir, "poppler", platformDir())}
}

func prepareBundled(context.Context, string) error { return nil }

func killedAtLaunch(error) bool { return false }
