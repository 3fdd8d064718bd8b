// Package translator transforms an English alt-text string plus a target
// language list into a mapping of language code to translated text.
package translator

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mkastner/imagealt-pipeline/internal/metadatadoc"
)

// TokenSource returns a bearer token for a resource audience.
type TokenSource interface {
	GetToken(ctx context.Context, audience string) (string, error)
}

// Translator produces translations of an English alt text into a
// specified language set. Failures for individual languages fall back to
// the English source text; the batch itself never fails.
type Translator interface {
	Translate(ctx context.Context, textEn string, languages []string, metadata *metadatadoc.Document) (map[string]string, error)
}

// Config carries the environment-derived endpoints needed to construct
// either translator variant.
type Config struct {
	DedicatedEndpoint string
	Region            string
	ChatEndpoint      string
	ChatDeployment    string
}

// New parses a "strategy:<name>" selector (already stripped of its prefix)
// and returns the matching Translator variant.
func New(strategy string, httpClient *http.Client, tokens TokenSource, cfg Config) (Translator, error) {
	switch strings.ToLower(strategy) {
	case "translator":
		return &dedicatedTranslator{
			httpClient: httpClient,
			tokens:     tokens,
			endpoint:   cfg.DedicatedEndpoint,
			region:     cfg.Region,
		}, nil
	case "llm", "phi4":
		return &chatTranslator{
			httpClient: httpClient,
			tokens:     tokens,
			endpoint:   cfg.ChatEndpoint,
			deployment: cfg.ChatDeployment,
		}, nil
	default:
		return nil, fmt.Errorf("translator: unknown strategy %q", strategy)
	}
}
