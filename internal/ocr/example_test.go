package ocr_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"pdfocr/internal/ocr"
)

// Example shows the pool sizes chosen for a few machine sizes.
func Example() {
	for _, cores := range []int{1, 2, 4, 8, 64} {
		fmt.Printf("%d cores -> %d workers\n", cores, ocr.PoolSize(cores))
	}
	// Output:
	// 1 cores -> 4 workers
	// 2 cores -> 4 workers
	// 4 cores -> 8 workers
	// 8 cores -> 16 workers
	// 64 cores -> 16 workers
}

// ExampleNewPool demonstrates creating a Tesseract pool and recognizing one
// page image with the first worker.
func ExampleNewPool() {
	ctx := context.Background()

	factory, err := ocr.NewEngineFactory(ocr.EngineConfig{Kind: ocr.EngineTesseract, Language: "eng", Quiet: true})
	if err != nil {
		log.Fatalf("Failed to configure OCR engine: %v", err)
	}

	pool, err := ocr.NewPool(ctx, ocr.DefaultPoolSize(), factory)
	if err != nil {
		log.Fatalf("Failed to start OCR workers: %v", err)
	}
	defer pool.Shutdown()

	image, err := os.ReadFile("page-1.png")
	if err != nil {
		log.Fatalf("Failed to read page image: %v", err)
	}

	text, err := pool.Recognize(ctx, 0, image)
	if err != nil {
		log.Fatalf("Failed to recognize page: %v", err)
	}
	fmt.Println(text)
}
