package describer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mkastner/imagealt-pipeline/internal/normalizer"
	"github.com/mkastner/imagealt-pipeline/internal/promptcompose"
)

const describerTimeout = 60 * time.Second

const cognitiveServicesAudience = "https://cognitiveservices.azure.com/.default"

const chatCompletionsAPIVersion = "2024-05-01-preview"

// contentPart is one element of the ordered, heterogeneous content array in
// a multimodal chat message: either an image reference or a text part.
type contentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *imageURLPart `json:"image_url,omitempty"`
}

type imageURLPart struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatCompletionRequest struct {
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	TopP             float64       `json:"top_p"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// multimodalDescriber sends an image + text content array to an Azure
// OpenAI chat-completions deployment.
type multimodalDescriber struct {
	httpClient *http.Client
	tokens     TokenSource
	endpoint   string
	deployment string
	maxTokens  int
}

func (d *multimodalDescriber) Describe(ctx context.Context, req Request) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, describerTimeout)
	defer cancel()

	source := ""
	if req.Metadata != nil {
		source = req.Metadata.Source
	}
	systemInstruction := promptcompose.SystemInstruction(source)
	userInstruction := promptcompose.UserInstruction(req.BlobName, req.Metadata, req.Facts, req.Hints)

	body := chatCompletionRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: []contentPart{
				{Type: "image_url", ImageURL: &imageURLPart{URL: req.ImageRef}},
				{Type: "text", Text: userInstruction},
			}},
		},
		Temperature:      0.3,
		MaxTokens:        d.maxTokens,
		TopP:             0.95,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("describer: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s", d.endpoint, d.deployment, chatCompletionsAPIVersion)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("describer: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	token, err := d.tokens.GetToken(ctx, cognitiveServicesAudience)
	if err != nil {
		return Result{}, fmt.Errorf("describer: acquire token: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		log.Warn().Err(err).Msg("describer: request failed")
		return Result{}, nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn().Err(err).Msg("describer: read response failed")
		return Result{}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Str("body", truncate(string(respBody), 300)).Msg("describer: non-2xx response")
		return Result{}, nil
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil || len(parsed.Choices) == 0 {
		log.Warn().Err(err).Msg("describer: unparseable response")
		return Result{}, nil
	}

	altEn := normalizer.Normalize(parsed.Choices[0].Message.Content)

	return Result{
		AltEn: altEn,
		TokenUsage: &TokenUsage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
		},
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
