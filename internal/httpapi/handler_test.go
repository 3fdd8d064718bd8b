package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mkastner/imagealt-pipeline/internal/apierror"
	"github.com/mkastner/imagealt-pipeline/internal/orchestrator"
)

type fakeProcessor struct {
	out       orchestrator.Output
	err       error
	lastInput orchestrator.Input
	calls     int
}

func (f *fakeProcessor) Process(ctx context.Context, in orchestrator.Input) (orchestrator.Output, error) {
	f.calls++
	f.lastInput = in
	return f.out, f.err
}

func newTestHandler(proc Processor) *Handler {
	h := New(proc, "ingest")
	h.Now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return h
}

func TestHealthReturnsOK(t *testing.T) {
	h := newTestHandler(&fakeProcessor{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v", body["status"])
	}
}

func TestDescribeValidationHandshake(t *testing.T) {
	proc := &fakeProcessor{}
	h := newTestHandler(proc)

	body := `[{"eventType":"Microsoft.EventGrid.SubscriptionValidationEvent","data":{"validationCode":"ABC-123"}}]`
	req := httptest.NewRequest(http.MethodPost, "/describe", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["validationResponse"] != "ABC-123" {
		t.Errorf("validationResponse = %q", resp["validationResponse"])
	}
	if proc.calls != 0 {
		t.Errorf("handshake must have zero side effects, got %d orchestrator calls", proc.calls)
	}
}

func TestDescribeNonImageSkip(t *testing.T) {
	proc := &fakeProcessor{}
	h := newTestHandler(proc)

	body := `[{"eventType":"Microsoft.Storage.BlobCreated","data":{"url":"https://acct.blob.core.windows.net/ingest/notes.txt"}}]`
	req := httptest.NewRequest(http.MethodPost, "/describe", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "skipped" {
		t.Errorf("status = %q", resp["status"])
	}
	if proc.calls != 0 {
		t.Errorf("non-image skip must not invoke orchestrator, got %d calls", proc.calls)
	}
}

func TestDescribeBlobCreatedDispatchesOrchestrator(t *testing.T) {
	proc := &fakeProcessor{out: orchestrator.Output{
		AltJSON: orchestrator.AltTextResult{
			Image:   "img_0.png",
			AltText: map[string]string{"en": "A printer."},
		},
		Tags: orchestrator.TagSet{"processed": "true", "alt.v": "1", "langs": "en"},
	}}
	h := newTestHandler(proc)

	body := `[{"eventType":"Microsoft.Storage.BlobCreated","data":{"url":"https://acct.blob.core.windows.net/ingest/img_0.png"}}]`
	req := httptest.NewRequest(http.MethodPost, "/describe", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if proc.calls != 1 {
		t.Fatalf("expected 1 orchestrator call, got %d", proc.calls)
	}
	if proc.lastInput.Container != "ingest" || proc.lastInput.BlobName != "img_0.png" {
		t.Errorf("lastInput = %+v", proc.lastInput)
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "processed" {
		t.Errorf("status = %v", resp["status"])
	}
}

func TestDescribeDirectRequestWithBlobName(t *testing.T) {
	proc := &fakeProcessor{out: orchestrator.Output{
		AltJSON: orchestrator.AltTextResult{AltText: map[string]string{"en": "A printer."}},
		Tags:    orchestrator.TagSet{"langs": "en"},
	}}
	h := newTestHandler(proc)

	body := `{"blobName":"img_2.png","cmsText":"Print: 15 ppm"}`
	req := httptest.NewRequest(http.MethodPost, "/describe", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if proc.lastInput.BlobName != "img_2.png" || proc.lastInput.CMSText != "Print: 15 ppm" {
		t.Errorf("lastInput = %+v", proc.lastInput)
	}
}

func TestDescribeDirectRequestWithoutBlobNameIsPending(t *testing.T) {
	proc := &fakeProcessor{}
	h := newTestHandler(proc)

	req := httptest.NewRequest(http.MethodPost, "/describe", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "pending" {
		t.Errorf("status = %q", resp["status"])
	}
	if proc.calls != 0 {
		t.Errorf("expected no orchestrator call, got %d", proc.calls)
	}
}

func TestDescribeMalformedBodyReturns400(t *testing.T) {
	h := newTestHandler(&fakeProcessor{})
	req := httptest.NewRequest(http.MethodPost, "/describe", strings.NewReader(`not json`))
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDescribeOrchestratorErrorReturns500(t *testing.T) {
	proc := &fakeProcessor{err: apierror.TransientRemote("boom", nil)}
	h := newTestHandler(proc)

	body := `{"blobName":"img_3.png"}`
	req := httptest.NewRequest(http.MethodPost, "/describe", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestLoginIssuesSessionToken(t *testing.T) {
	h := newTestHandler(&fakeProcessor{})

	body := `{"tenant_id":"t1","user_id":"u1"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["session_token"] == "" || resp["session_token"] == nil {
		t.Errorf("expected a session_token, got %v", resp)
	}
	if resp["tenant_id"] != "t1" || resp["user_id"] != "u1" {
		t.Errorf("resp = %v", resp)
	}
	if resp["expires_in"].(float64) != 3600 {
		t.Errorf("expires_in = %v", resp["expires_in"])
	}
}
