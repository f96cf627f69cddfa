package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"pdfocr/internal/ocr"
	"pdfocr/internal/raster"
)

// fakeRasterizer writes "<file>#<n>" into page-<n>.png for each page.
type fakeRasterizer struct {
	pages    map[string]int
	fallback int
	errs     map[string]error
	panicOn  string
	delay    time.Duration

	mu        sync.Mutex
	dirs      []string
	paths     []string
	active    atomic.Int32
	maxActive atomic.Int32
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, pdfPath, outDir string) ([]raster.Page, error) {
	now := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		prev := f.maxActive.Load()
		if now <= prev || f.maxActive.CompareAndSwap(prev, now) {
			break
		}
	}

	f.mu.Lock()
	f.dirs = append(f.dirs, outDir)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	name := filepath.Base(pdfPath)
	if name == f.panicOn {
		panic("pdftoppm wrapper: nil page list")
	}
	if err, ok := f.errs[name]; ok {
		// Leave a partial page behind to prove cleanup handles it.
		_ = os.WriteFile(filepath.Join(outDir, "page-1.png"), []byte("partial"), 0o644)
		return nil, err
	}

	n := f.fallback
	if v, ok := f.pages[name]; ok {
		n = v
	}
	for i := 1; i <= n; i++ {
		path := filepath.Join(outDir, fmt.Sprintf("page-%d.png", i))
		if err := os.WriteFile(path, []byte(fmt.Sprintf("%s#%d", name, i)), 0o644); err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.paths = append(f.paths, path)
		f.mu.Unlock()
	}
	return raster.ListPages(outDir)
}

// engineFactory hands out stubEngines and tracks their lifetimes.
type engineFactory struct {
	failOn  string
	panicOn string
	// slowFirst makes earlier pages finish later, so completion order is
	// the reverse of page order inside each batch.
	slowFirst bool

	mu       sync.Mutex
	engines  []*stubEngine
	alive    atomic.Int32
	maxAlive atomic.Int32
}

func (f *engineFactory) create(context.Context) (ocr.Engine, error) {
	now := f.alive.Add(1)
	for {
		prev := f.maxAlive.Load()
		if now <= prev || f.maxAlive.CompareAndSwap(prev, now) {
			break
		}
	}
	e := &stubEngine{factory: f}
	f.mu.Lock()
	f.engines = append(f.engines, e)
	f.mu.Unlock()
	return e, nil
}

func (f *engineFactory) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.engines)
}

type stubEngine struct {
	factory *engineFactory
	closes  atomic.Int32
}

func (s *stubEngine) Recognize(_ context.Context, image []byte) (string, error) {
	content := string(image)
	f := s.factory
	if f.failOn != "" && content == f.failOn {
		return "", errors.New("tesseract: recognition aborted")
	}
	if f.panicOn != "" && content == f.panicOn {
		panic("tesseract: segfault in leptonica")
	}
	if f.slowFirst {
		if i := strings.LastIndex(content, "#"); i >= 0 {
			n, _ := strconv.Atoi(content[i+1:])
			time.Sleep(time.Duration(20-n%20) * 3 * time.Millisecond)
		}
	}
	return "text(" + content + ")", nil
}

func (s *stubEngine) Close() error {
	s.closes.Add(1)
	s.factory.alive.Add(-1)
	return nil
}
