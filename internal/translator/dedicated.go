package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mkastner/imagealt-pipeline/internal/metadatadoc"
)

const translateTimeout = 30 * time.Second

const cognitiveServicesAudience = "https://cognitiveservices.azure.com/.default"

// managedIdentitySubdomainSuffix identifies a custom-subdomain translator
// resource, which is addressed via the /translator/text/v3.0 path rather
// than the global /translate endpoint.
const managedIdentitySubdomainSuffix = ".cognitiveservices.azure.com"

type translateRequestItem struct {
	Text string `json:"text"`
}

type translateResponseItem struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

// dedicatedTranslator calls the Azure Translator Text API v3.0 directly.
type dedicatedTranslator struct {
	httpClient *http.Client
	tokens     TokenSource
	endpoint   string
	region     string
}

func (t *dedicatedTranslator) Translate(ctx context.Context, textEn string, languages []string, metadata *metadatadoc.Document) (map[string]string, error) {
	result := make(map[string]string, len(languages))

	for _, raw := range languages {
		code := normalizeLanguageCode(raw)
		if code == "en" {
			result[code] = textEn
			continue
		}

		translated, err := t.translateOne(ctx, textEn, code)
		if err != nil {
			log.Warn().Err(err).Str("lang", code).Msg("translator: falling back to English source")
			result[code] = textEn
			continue
		}
		result[code] = translated
	}

	return result, nil
}

func (t *dedicatedTranslator) translateOne(ctx context.Context, text, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, translateTimeout)
	defer cancel()

	mapped := apiLanguageCode(code)

	var reqURL string
	if strings.HasSuffix(t.endpoint, managedIdentitySubdomainSuffix) {
		q := url.Values{"from": {"en"}, "to": {mapped}}
		reqURL = fmt.Sprintf("%s/translator/text/v3.0/translate?%s", t.endpoint, q.Encode())
	} else {
		q := url.Values{"api-version": {"3.0"}, "from": {"en"}, "to": {mapped}}
		reqURL = fmt.Sprintf("%s/translate?%s", t.endpoint, q.Encode())
	}

	payload, err := json.Marshal([]translateRequestItem{{Text: text}})
	if err != nil {
		return "", fmt.Errorf("translator: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("translator: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Region", t.region)

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

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("translator: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("translator: status %d", resp.StatusCode)
	}

	var parsed []translateResponseItem
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("translator: decode response: %w", err)
	}
	if len(parsed) == 0 || len(parsed[0].Translations) == 0 {
		return "", fmt.Errorf("translator: empty translation response")
	}

	return parsed[0].Translations[0].Text, nil
}
