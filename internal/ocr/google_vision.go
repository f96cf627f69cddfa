package ocr

import (
	"context"
	"fmt"
	"os"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// visionLanguageHints maps Tesseract model names to the BCP-47 codes Vision expects.
var visionLanguageHints = map[string]string{
	"eng": "en",
	"deu": "de",
	"fra": "fr",
	"spa": "es",
	"ita": "it",
	"por": "pt",
	"nld": "nl",
	"pol": "pl",
}

// GoogleVisionEngine recognizes page images with Cloud Vision document text
// detection. One engine owns one gRPC client.
type GoogleVisionEngine struct {
	client   *vision.ImageAnnotatorClient
	language string
}

// NewGoogleVisionEngine creates an engine with credentials from the environment.
func NewGoogleVisionEngine(ctx context.Context, language string) (*GoogleVisionEngine, error) {
	const op = "NewGoogleVisionEngine"

	opts := credentialOptions()
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, NewOCRError(op, fmt.Errorf("%w: %w", ErrEngineInit, ErrMissingCredentials), "no credentials found in environment")
		}
		return nil, NewOCRError(op, fmt.Errorf("%w: %w", ErrEngineInit, err), "failed to create Vision client")
	}

	hint := language
	if mapped, ok := visionLanguageHints[language]; ok {
		hint = mapped
	}

	return &GoogleVisionEngine{client: client, language: hint}, nil
}

// Recognize implements Engine.
func (g *GoogleVisionEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				ImageContext: &visionpb.ImageContext{
					LanguageHints: []string{g.language},
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("Vision API call failed: %w", err)
	}
	if len(resp.GetResponses()) == 0 {
		return "", fmt.Errorf("no response from Vision API")
	}

	imageResp := resp.GetResponses()[0]
	if imageResp.GetError() != nil {
		return "", fmt.Errorf("Vision API error: %s", imageResp.GetError().GetMessage())
	}

	// A blank page has no annotation; that is empty text, not a failure.
	return imageResp.GetFullTextAnnotation().GetText(), nil
}

// Close implements Engine.
func (g *GoogleVisionEngine) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// credentialOptions picks inline JSON credentials first, then a credentials
// file; with neither set the client falls back to Application Default
// Credentials.
func credentialOptions() []option.ClientOption {
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credJSON))}
	}
	if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(credFile)}
	}
	return nil
}
