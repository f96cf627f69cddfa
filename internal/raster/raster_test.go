package raster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePdftoppm mimics pdftoppm: it writes one file per number listed in
// FAKE_PAGES next to the output prefix (its last argument).
const fakePdftoppm = `#!/bin/sh
for arg; do prefix=$arg; done
if [ -n "$FAKE_ARGS" ]; then echo "$@" > "$FAKE_ARGS"; fi
if [ -n "$FAKE_SLEEP" ]; then exec sleep "$FAKE_SLEEP"; fi
if [ -n "$FAKE_EXIT" ]; then echo "Syntax Error: broken xref" >&2; exit "$FAKE_EXIT"; fi
for n in $FAKE_PAGES; do printf 'image-%s' "$n" > "$prefix-$n.png"; done
exit 0
`

func writeFakeTool(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script tool stand-in requires a unix shell")
	}
	path := filepath.Join(t.TempDir(), "pdftoppm")
	require.NoError(t, os.WriteFile(path, []byte(fakePdftoppm), 0o755))
	return path
}

func newFakeRasterizer(t *testing.T, env ...string) *Rasterizer {
	t.Helper()
	return New(StaticLocator{Path: writeFakeTool(t), Env: env}, WithTimeout(5*time.Second))
}

func TestRasterizeSortsPagesNumerically(t *testing.T) {
	r := newFakeRasterizer(t, "FAKE_PAGES=10 2 1 9")
	out := t.TempDir()

	pages, err := r.Rasterize(context.Background(), "input.pdf", out)
	require.NoError(t, err)
	require.Len(t, pages, 4)

	var numbers, indexes []int
	for _, p := range pages {
		numbers = append(numbers, p.Number)
		indexes = append(indexes, p.Index)
		assert.Equal(t, out, filepath.Dir(p.Path))
	}
	assert.Equal(t, []int{1, 2, 9, 10}, numbers)
	assert.Equal(t, []int{1, 2, 3, 4}, indexes)
}

func TestRasterizePassesToolFlags(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	r := New(StaticLocator{
		Path: writeFakeTool(t),
		Env:  []string{"FAKE_PAGES=1", "FAKE_ARGS=" + argsFile},
	}, WithDPI(150))
	out := t.TempDir()

	_, err := r.Rasterize(context.Background(), "/docs/in.pdf", out)
	require.NoError(t, err)

	raw, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "-png -gray -r 150 /docs/in.pdf "+filepath.Join(out, "page"), strings.TrimSpace(string(raw)))
}

func TestRasterizeNoPagesProduced(t *testing.T) {
	r := newFakeRasterizer(t)

	_, err := r.Rasterize(context.Background(), "empty.pdf", t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoPagesProduced)
	assert.NotErrorIs(t, err, ErrToolMissing)
}

func TestRasterizeTimeout(t *testing.T) {
	r := New(StaticLocator{Path: writeFakeTool(t), Env: []string{"FAKE_SLEEP=10"}}, WithTimeout(200*time.Millisecond))

	start := time.Now()
	_, err := r.Rasterize(context.Background(), "slow.pdf", t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExecutionTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRasterizeParentCancellation(t *testing.T) {
	r := newFakeRasterizer(t, "FAKE_SLEEP=10")
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := r.Rasterize(ctx, "slow.pdf", t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRasterizeToolFailure(t *testing.T) {
	r := newFakeRasterizer(t, "FAKE_EXIT=1")

	_, err := r.Rasterize(context.Background(), "broken.pdf", t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRasterizeFailed)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Contains(t, toolErr.Details, "exit code 1")
	assert.Contains(t, toolErr.Details, "broken xref")
}

func TestRasterizeMissingTool(t *testing.T) {
	r := New(StaticLocator{Path: filepath.Join(t.TempDir(), "nope")})

	_, err := r.Rasterize(context.Background(), "in.pdf", t.TempDir())
	assert.ErrorIs(t, err, ErrToolNotFound)
	assert.ErrorIs(t, err, ErrToolMissing)
}

func TestRasterizeWritesOnlyIntoOutDir(t *testing.T) {
	r := newFakeRasterizer(t, "FAKE_PAGES=1 2")
	parent := t.TempDir()
	out := filepath.Join(parent, "ws")
	require.NoError(t, os.Mkdir(out, 0o755))

	_, err := r.Rasterize(context.Background(), "in.pdf", out)
	require.NoError(t, err)

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ws", entries[0].Name())
}

func TestListPagesIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"page-3.png", "page-01.png", "page-2.png", "notes.txt", "page-x.png", "cover.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	pages, err := ListPages(dir)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, "page-01.png", filepath.Base(pages[0].Path))
	assert.Equal(t, "page-2.png", filepath.Base(pages[1].Path))
	assert.Equal(t, "page-3.png", filepath.Base(pages[2].Path))
}
