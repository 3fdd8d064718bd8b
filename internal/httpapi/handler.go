// Package httpapi is the webhook-facing HTTP surface: the Event Grid
// delivery-service handshake and blob-created dispatch on /describe, a
// liveness probe on /health, and the audit-only session issuer on /login.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/mkastner/imagealt-pipeline/internal/apierror"
	"github.com/mkastner/imagealt-pipeline/internal/blobstore"
	"github.com/mkastner/imagealt-pipeline/internal/eventgrid"
	"github.com/mkastner/imagealt-pipeline/internal/metadatadoc"
	"github.com/mkastner/imagealt-pipeline/internal/orchestrator"
	"github.com/mkastner/imagealt-pipeline/internal/session"
)

// maxBodySize bounds the webhook body the handler will read; Event Grid
// batches are small JSON arrays, well under this limit.
const maxBodySize = 1 << 20 // 1 MB

// Processor is the subset of orchestrator.Orchestrator the handler needs,
// kept as an interface so tests can supply a fake.
type Processor interface {
	Process(ctx context.Context, in orchestrator.Input) (orchestrator.Output, error)
}

// Handler implements the webhook HTTP surface.
type Handler struct {
	Orchestrator    Processor
	IngestContainer string
	Now             func() time.Time
}

// New constructs a Handler with sensible defaults.
func New(o Processor, ingestContainer string) *Handler {
	return &Handler{
		Orchestrator:    o,
		IngestContainer: ingestContainer,
		Now:             time.Now,
	}
}

// Routes builds the mux with request-ID, panic-recovery, and logging
// middleware applied, ready to pass to http.Server.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/describe", h.handleDescribe)
	mux.HandleFunc("/login", h.handleLogin)
	return withRequestID(withRecover(withLogging(mux)))
}

// GET /health -> {status, timestamp}.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": h.Now().Unix(),
	})
}

// directDescribeRequest is the non-array body shape for /describe.
type directDescribeRequest struct {
	BlobName string                `json:"blobName"`
	Sidecar  *metadatadoc.Document `json:"sidecar,omitempty"`
	CMSText  string                `json:"cmsText,omitempty"`
}

// POST /describe -> either an Event Grid event array, or a direct request.
func (h *Handler) handleDescribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body", err.Error())
		return
	}
	defer r.Body.Close()

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		respondError(w, http.StatusBadRequest, "empty request body")
		return
	}

	switch trimmed[0] {
	case '[':
		h.handleEventArray(w, r, body)
	case '{':
		h.handleDirectRequest(w, r, body)
	default:
		respondError(w, http.StatusBadRequest, "request body must be a JSON array or object")
	}
}

// handleEventArray implements the validation handshake and blob-created
// dispatch for an Event Grid event array.
func (h *Handler) handleEventArray(w http.ResponseWriter, r *http.Request, body []byte) {
	events, err := eventgrid.ParseEvents(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed event payload", err.Error())
		return
	}

	// The handshake MUST succeed without side effects: it is a pure
	// function of the first element's validation code.
	if events[0].Kind == eventgrid.KindValidation {
		respondJSON(w, http.StatusOK, map[string]string{
			"validationResponse": events[0].ValidationCode,
		})
		return
	}

	// Dispatch the first actionable (blob-created) event in the
	// sequence; subsequent events in the same batch are the delivery
	// service's concern to redeliver individually.
	for _, evt := range events {
		if evt.Kind != eventgrid.KindBlobCreated {
			continue
		}
		container, blobName, err := eventgrid.ParseBlobURL(evt.BlobURL)
		if err != nil {
			respondError(w, http.StatusBadRequest, "malformed blob url", err.Error())
			return
		}
		h.processAndRespond(w, r, container, blobName, nil, "")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "skipped",
		"reason": "No processable event",
	})
}

// handleDirectRequest implements the direct-request branch of /describe:
// a blobName present processes that blob; its absence is a pending probe.
func (h *Handler) handleDirectRequest(w http.ResponseWriter, r *http.Request, body []byte) {
	var req directDescribeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body", err.Error())
		return
	}

	if req.BlobName == "" {
		respondJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
		return
	}

	h.processAndRespond(w, r, h.IngestContainer, req.BlobName, req.Sidecar, req.CMSText)
}

// processAndRespond invokes the orchestrator for one blob and writes the
// HTTP response, including the non-image skip branch.
func (h *Handler) processAndRespond(w http.ResponseWriter, r *http.Request, container, blobName string, metadata *metadatadoc.Document, cmsText string) {
	if !blobstore.IsImage(blobName) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status": "skipped",
			"reason": "Not an image file",
		})
		return
	}

	out, err := h.Orchestrator.Process(r.Context(), orchestrator.Input{
		Container: container,
		BlobName:  blobName,
		Metadata:  metadata,
		CMSText:   cmsText,
	})
	if err != nil {
		h.respondOrchestratorError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "processed",
		"blob":        blobName,
		"altText":     out.AltJSON.AltText,
		"source":      out.AltJSON.Source,
		"generatedAt": out.AltJSON.GeneratedAt,
		"tags":        out.Tags,
	})
}

func (h *Handler) respondOrchestratorError(w http.ResponseWriter, err error) {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		respondError(w, apiErr.Status, apiErr.Message, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, "internal error", err.Error())
}

// loginRequest is the POST /login request body.
type loginRequest struct {
	TenantID string `json:"tenant_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

// POST /login -> {status, session_token, tenant_id, user_id, expires_in}.
// The session token is an opaque, unsigned audit tag; nothing in the core
// pipeline parses or enforces it.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req loginRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body", err.Error())
		return
	}
	defer r.Body.Close()

	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			respondError(w, http.StatusBadRequest, "malformed request body", err.Error())
			return
		}
	}

	tok, err := session.Issue(h.Now(), req.TenantID, req.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue session token", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"session_token": tok.Value,
		"tenant_id":     req.TenantID,
		"user_id":       req.UserID,
		"expires_in":    tok.ExpiresIn,
	})
}
