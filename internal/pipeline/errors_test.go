package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"pdfocr/internal/ocr"
	"pdfocr/internal/raster"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"tool not found", &DocumentError{Path: "a.pdf", Err: raster.ErrToolNotFound}, MsgToolNotFound},
		{"tool not executable", &raster.ToolError{Op: "Locate", Err: raster.ErrToolNotExecutable}, MsgToolNotExecutable},
		{"no pages", fmt.Errorf("rasterize: %w", raster.ErrNoPagesProduced), MsgNoPages},
		{"timeout", raster.ErrExecutionTimeout, MsgTimeout},
		{"canceled", &DocumentError{Path: "a.pdf", Err: context.Canceled}, MsgCanceled},
		{"engine init", ocr.NewOCRError("NewPool", fmt.Errorf("%w: no tessdata", ocr.ErrEngineInit), ""), MsgEngineInit},
		{
			"page failure",
			&DocumentError{Path: "a.pdf", Err: &PageError{Index: 4, Err: ocr.NewOCRError("Recognize", ocr.ErrOCRFailed, "")}},
			"Text recognition failed on page 4.",
		},
		{"page io failure", &PageError{Index: 2, Err: ErrIO}, MsgGeneric},
		{"rasterizer exit", raster.ErrRasterizeFailed, MsgGeneric},
		{"unknown", errors.New("boom"), MsgGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestDocumentErrorNamesFile(t *testing.T) {
	err := &DocumentError{Path: "/scans/invoice.pdf", Err: raster.ErrNoPagesProduced}
	assert.Contains(t, err.Error(), "invoice.pdf")
	assert.NotContains(t, err.Error(), "/scans/")
	assert.ErrorIs(t, err, raster.ErrNoPagesProduced)
}
