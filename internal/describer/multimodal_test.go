package describer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mkastner/imagealt-pipeline/internal/metadatadoc"
)

type fakeTokens struct{}

func (fakeTokens) GetToken(ctx context.Context, audience string) (string, error) {
	return "test-token", nil
}

func TestMultimodalDescribeParsesContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api-version") != chatCompletionsAPIVersion {
			t.Errorf("api-version = %q", r.URL.Query().Get("api-version"))
		}
		var body chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(body.Messages) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(body.Messages))
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"alt_en\":\"a printer\"}"}}],"usage":{"prompt_tokens":10,"completion_tokens":5}}`))
	}))
	defer srv.Close()

	d := &multimodalDescriber{
		httpClient: srv.Client(),
		tokens:     fakeTokens{},
		endpoint:   srv.URL,
		deployment: "test-deployment",
		maxTokens:  300,
	}

	res, err := d.Describe(context.Background(), Request{
		BlobName: "img_0.png",
		ImageRef: "data:image/png;base64,abc",
		Metadata: &metadatadoc.Document{Source: "public website"},
	})
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if res.AltEn != "A printer." {
		t.Errorf("AltEn = %q", res.AltEn)
	}
	if res.TokenUsage == nil || res.TokenUsage.PromptTokens != 10 {
		t.Errorf("TokenUsage = %+v", res.TokenUsage)
	}
}

func TestMultimodalDescribeNon2xxYieldsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := &multimodalDescriber{httpClient: srv.Client(), tokens: fakeTokens{}, endpoint: srv.URL, deployment: "d", maxTokens: 300}

	res, err := d.Describe(context.Background(), Request{BlobName: "img_0.png", ImageRef: "data:x"})
	if err != nil {
		t.Fatalf("Describe returned error, want nil per fail-soft contract: %v", err)
	}
	if res.AltEn != "" {
		t.Errorf("AltEn = %q, want empty on failure", res.AltEn)
	}
}

func TestNewSelectsVariantByStrategy(t *testing.T) {
	cfg := Config{FoundryEndpoint: "https://foundry", DeploymentSLM: "slm-dep", DeploymentLLM: "llm-dep", VisionEndpoint: "https://vision"}

	d, err := New("slm", http.DefaultClient, fakeTokens{}, cfg)
	if err != nil {
		t.Fatalf("New(slm): %v", err)
	}
	if mm, ok := d.(*multimodalDescriber); !ok || mm.deployment != "slm-dep" || mm.maxTokens != 300 {
		t.Errorf("unexpected slm describer: %+v", d)
	}

	d, err = New("vision", http.DefaultClient, fakeTokens{}, cfg)
	if err != nil {
		t.Fatalf("New(vision): %v", err)
	}
	if _, ok := d.(*visionCaptionDescriber); !ok {
		t.Errorf("expected visionCaptionDescriber, got %T", d)
	}

	if _, err := New("bogus", http.DefaultClient, fakeTokens{}, cfg); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
