// Package identity acquires bearer tokens for Azure resource audiences via
// the platform-provided managed-identity endpoint (falling back to the
// instance-metadata service), caching them until near expiry.
package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// minResidualLifetime is the minimum remaining lifetime a cached token must
// have to be served; tokens below this threshold are refreshed instead.
const minResidualLifetime = 5 * time.Minute

// defaultExpiresIn is used when the token response omits expires_in.
const defaultExpiresIn = 3600 * time.Second

// tokenTimeout bounds one token-endpoint request.
const tokenTimeout = 10 * time.Second

const imdsEndpoint = "http://169.254.169.254/metadata/identity/oauth2/token"

// TokenCacheEntry is a single cached bearer token for one audience.
type TokenCacheEntry struct {
	AudienceHash string
	AccessToken  string
	Expiry       time.Time
}

func (e TokenCacheEntry) residualLifetime(now time.Time) time.Duration {
	return e.Expiry.Sub(now)
}

// Provider acquires and caches bearer tokens. It is safe for concurrent use.
type Provider struct {
	httpClient *http.Client

	identityEndpoint string // IDENTITY_ENDPOINT / MSI_ENDPOINT
	identityHeader   string // IDENTITY_HEADER / MSI_SECRET
	clientID         string // AZURE_CLIENT_ID, optional

	mu    sync.Mutex
	cache map[string]TokenCacheEntry
}

// New creates a Provider. identityEndpoint/identityHeader may be empty, in
// which case GetToken falls back to the instance-metadata service.
func New(httpClient *http.Client, identityEndpoint, identityHeader, clientID string) *Provider {
	return &Provider{
		httpClient:       httpClient,
		identityEndpoint: identityEndpoint,
		identityHeader:   identityHeader,
		clientID:         clientID,
		cache:            make(map[string]TokenCacheEntry),
	}
}

// canonicalizeAudience strips a trailing "/.default" suffix and any
// trailing slashes, so "https://storage.azure.com/.default" and
// "https://storage.azure.com/" hash to the same cache key.
func canonicalizeAudience(audience string) string {
	a := strings.TrimSuffix(audience, "/.default")
	a = strings.TrimRight(a, "/")
	return a
}

func audienceHash(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// GetToken returns a bearer token valid for the given audience, using the
// cache when the residual lifetime exceeds 300 seconds.
func (p *Provider) GetToken(ctx context.Context, audience string) (string, error) {
	canonical := canonicalizeAudience(audience)
	key := audienceHash(canonical)
	now := time.Now()

	p.mu.Lock()
	if entry, ok := p.cache[key]; ok && entry.residualLifetime(now) > minResidualLifetime {
		p.mu.Unlock()
		return entry.AccessToken, nil
	}
	p.mu.Unlock()

	token, expiresIn, err := p.fetchToken(ctx, canonical)
	if err != nil {
		return "", err
	}
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}

	entry := TokenCacheEntry{
		AudienceHash: key,
		AccessToken:  token,
		Expiry:       now.Add(expiresIn),
	}

	p.mu.Lock()
	p.cache[key] = entry
	p.mu.Unlock()

	log.Debug().
		Str("audience_hash", key[:8]).
		Time("expiry", entry.Expiry).
		Msg("identity: token cached")

	return token, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

func (p *Provider) fetchToken(ctx context.Context, audience string) (string, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, tokenTimeout)
	defer cancel()

	var req *http.Request
	var err error

	if p.identityEndpoint != "" {
		q := url.Values{}
		q.Set("resource", audience)
		q.Set("api-version", "2019-08-01")
		if p.clientID != "" {
			q.Set("client_id", p.clientID)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, p.identityEndpoint+"?"+q.Encode(), nil)
		if err != nil {
			return "", 0, fmt.Errorf("identity: build request: %w", err)
		}
		req.Header.Set("X-IDENTITY-HEADER", p.identityHeader)
		req.Header.Set("Metadata", "true")
	} else {
		q := url.Values{}
		q.Set("resource", audience)
		q.Set("api-version", "2018-02-01")
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, imdsEndpoint+"?"+q.Encode(), nil)
		if err != nil {
			return "", 0, fmt.Errorf("identity: build request: %w", err)
		}
		req.Header.Set("Metadata", "true")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("identity: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("identity: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", 0, fmt.Errorf("identity: token endpoint returned %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", 0, fmt.Errorf("identity: decode response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", 0, fmt.Errorf("identity: response missing access_token")
	}

	var expiresIn time.Duration
	if secs, err := strconv.Atoi(tr.ExpiresIn); err == nil {
		expiresIn = time.Duration(secs) * time.Second
	}

	return tr.AccessToken, expiresIn, nil
}
