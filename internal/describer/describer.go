package describer

import (
	"fmt"
	"net/http"
	"strings"
)

// Config carries the environment-derived endpoints and deployment names
// needed to construct any describer variant.
type Config struct {
	FoundryEndpoint  string
	DeploymentSLM    string
	DeploymentLLM    string
	VisionEndpoint   string
}

// New parses a "strategy:<name>" selector (already stripped of its
// "strategy:" prefix by internal/config) and returns the matching
// Describer variant. No reflection: each case names a concrete type.
func New(strategy string, httpClient *http.Client, tokens TokenSource, cfg Config) (Describer, error) {
	switch strings.ToLower(strategy) {
	case "slm":
		return &multimodalDescriber{
			httpClient: httpClient,
			tokens:     tokens,
			endpoint:   cfg.FoundryEndpoint,
			deployment: cfg.DeploymentSLM,
			maxTokens:  300,
		}, nil
	case "llm", "phi4":
		return &multimodalDescriber{
			httpClient: httpClient,
			tokens:     tokens,
			endpoint:   cfg.FoundryEndpoint,
			deployment: cfg.DeploymentLLM,
			maxTokens:  500,
		}, nil
	case "vision":
		return &visionCaptionDescriber{
			httpClient: httpClient,
			tokens:     tokens,
			endpoint:   cfg.VisionEndpoint,
		}, nil
	default:
		return nil, fmt.Errorf("describer: unknown strategy %q", strategy)
	}
}
