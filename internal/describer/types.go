package describer

import (
	"context"

	"github.com/mkastner/imagealt-pipeline/internal/metadatadoc"
	"github.com/mkastner/imagealt-pipeline/internal/visionhints"
)

// TokenSource returns a bearer token for a resource audience.
type TokenSource interface {
	GetToken(ctx context.Context, audience string) (string, error)
}

// Request carries everything a Describer needs to produce alt text for one
// image.
type Request struct {
	BlobName string
	ImageRef string // data: URL or absolute image URL
	Metadata *metadatadoc.Document
	Facts    metadatadoc.ProductFacts
	Hints    visionhints.Hints
}

// TokenUsage optionally reports model token consumption for observability.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
}

// Result is a describer's output. AltEn is empty on failure; the caller
// treats an empty AltEn as an error.
type Result struct {
	AltEn      string
	TokenUsage *TokenUsage
}

// Describer transforms an image plus structured context into an English
// alt-text string.
type Describer interface {
	Describe(ctx context.Context, req Request) (Result, error)
}
