package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mkastner/imagealt-pipeline/internal/metadatadoc"
)

const chatTranslateAPIVersion = "2024-05-01-preview"
const maxChatTranslationLen = 125

type chatTranslateMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatTranslateRequest struct {
	Messages  []chatTranslateMessage `json:"messages"`
	MaxTokens int                    `json:"max_tokens"`
}

type chatTranslateResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chatTranslator issues one chat-completion call per target language,
// constraining the model to preserve brand/model names and stay within
// 125 characters.
type chatTranslator struct {
	httpClient *http.Client
	tokens     TokenSource
	endpoint   string
	deployment string
}

func (t *chatTranslator) Translate(ctx context.Context, textEn string, languages []string, metadata *metadatadoc.Document) (map[string]string, error) {
	result := make(map[string]string, len(languages))

	for _, raw := range languages {
		code := normalizeLanguageCode(raw)
		if code == "en" {
			result[code] = textEn
			continue
		}

		translated, err := t.translateOne(ctx, textEn, code, metadata)
		if err != nil {
			log.Warn().Err(err).Str("lang", code).Msg("translator: falling back to English source")
			result[code] = textEn
			continue
		}
		result[code] = translated
	}

	return result, nil
}

func (t *chatTranslator) translateOne(ctx context.Context, text, code string, metadata *metadatadoc.Document) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, translateTimeout)
	defer cancel()

	preserve := ""
	if metadata != nil && (metadata.Make != "" || metadata.Model != "") {
		preserve = fmt.Sprintf(" Preserve the brand %q and model %q exactly as written.", metadata.Make, metadata.Model)
	}

	system := fmt.Sprintf(
		"Translate the given English alt-text into the language with ISO code %q. Respond with only the translated sentence, no quotes, no explanation, at most %d characters.%s",
		apiLanguageCode(code), maxChatTranslationLen, preserve,
	)

	body := chatTranslateRequest{
		Messages: []chatTranslateMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: text},
		},
		MaxTokens: 200,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("translator: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s", t.endpoint, t.deployment, chatTranslateAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("translator: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := t.tokens.GetToken(ctx, cognitiveServicesAudience)
	if err != nil {
		return "", fmt.Errorf("translator: acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translator: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("translator: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("translator: status %d", resp.StatusCode)
	}

	var parsed chatTranslateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil || len(parsed.Choices) == 0 {
		return "", fmt.Errorf("translator: unparseable response: %w", err)
	}

	return stripSurroundingQuotes(strings.TrimSpace(parsed.Choices[0].Message.Content)), nil
}

func stripSurroundingQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
