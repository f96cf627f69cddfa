package ocr

import (
	"context"
	"fmt"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
)

// DocumentAIConfig identifies the Document AI OCR processor to call.
type DocumentAIConfig struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
}

func (c DocumentAIConfig) validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("%w: documentai engine needs a project ID", ErrEngineInit)
	}
	if c.ProcessorID == "" {
		return fmt.Errorf("%w: documentai engine needs a processor ID", ErrEngineInit)
	}
	return nil
}

// processorName returns the fully qualified processor resource name.
func (c DocumentAIConfig) processorName() string {
	location := c.Location
	if location == "" {
		location = "us"
	}
	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, location, c.ProcessorID)
	if c.ProcessorVersion != "" {
		name += "/processorVersions/" + c.ProcessorVersion
	}
	return name
}

// DocumentAIEngine sends each page image to a Document AI OCR processor.
type DocumentAIEngine struct {
	client *documentai.DocumentProcessorClient
	name   string
}

// NewDocumentAIEngine creates a client against the processor's regional endpoint.
func NewDocumentAIEngine(ctx context.Context, cfg DocumentAIConfig) (*DocumentAIEngine, error) {
	const op = "NewDocumentAIEngine"

	if err := cfg.validate(); err != nil {
		return nil, NewOCRError(op, err, "")
	}

	creds := credentialOptions()
	opts := append([]option.ClientOption{}, creds...)
	if cfg.Location != "" && cfg.Location != "us" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		if len(creds) == 0 {
			return nil, NewOCRError(op, fmt.Errorf("%w: %w", ErrEngineInit, ErrMissingCredentials), "no credentials found in environment")
		}
		return nil, NewOCRError(op, fmt.Errorf("%w: %w", ErrEngineInit, err), fmt.Sprintf("failed to create Document AI client for location: %s", cfg.Location))
	}

	return &DocumentAIEngine{client: client, name: cfg.processorName()}, nil
}

// Recognize implements Engine.
func (d *DocumentAIEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	req := &documentaipb.ProcessRequest{
		Name: d.name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  image,
				MimeType: "image/png",
			},
		},
	}

	resp, err := d.client.ProcessDocument(ctx, req)
	if err != nil {
		return "", fmt.Errorf("Document AI call failed: %w", err)
	}
	return resp.GetDocument().GetText(), nil
}

// Close implements Engine.
func (d *DocumentAIEngine) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}
