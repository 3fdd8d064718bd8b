// Package blobstore is a hand-rolled REST client for Azure Blob Storage,
// authenticated via bearer tokens from internal/identity. No Azure SDK is
// used; the wire protocol (x-ms-version headers, tag-set XML, copy-source
// header) is implemented directly against net/http, the way the teacher's
// internal/instagram package talks to the Instagram Graph API without an
// SDK.
package blobstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const apiVersion = "2021-08-06"

const (
	readTimeout  = 30 * time.Second
	writeTimeout = 30 * time.Second
	tagsTimeout  = 15 * time.Second
	copyTimeout  = 30 * time.Second
)

// TokenSource returns a bearer token for the storage audience.
type TokenSource interface {
	GetToken(ctx context.Context, audience string) (string, error)
}

const storageAudience = "https://storage.azure.com"

// Client is an authenticated Azure Blob Storage REST client scoped to one
// storage account.
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	accountURL string // e.g. "https://<account>.blob.core.windows.net"
}

// New creates a blobstore Client for the given storage account host.
func New(httpClient *http.Client, tokens TokenSource, account string) *Client {
	return &Client{
		httpClient: httpClient,
		tokens:     tokens,
		accountURL: fmt.Sprintf("https://%s.blob.core.windows.net", account),
	}
}

func (c *Client) blobURL(container, blob string) string {
	return fmt.Sprintf("%s/%s/%s", c.accountURL, container, blob)
}

func (c *Client) authHeader(ctx context.Context) (string, error) {
	token, err := c.tokens.GetToken(ctx, storageAudience)
	if err != nil {
		return "", fmt.Errorf("blobstore: acquire token: %w", err)
	}
	return "Bearer " + token, nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("blobstore: build request: %w", err)
	}
	auth, err := c.authHeader(ctx)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("x-ms-version", apiVersion)
	return req, nil
}

// Read returns the blob's bytes, or (nil, nil) if the blob does not exist.
func (c *Client) Read(ctx context.Context, container, blob string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, c.blobURL(container, blob), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("blobstore: read %s/%s: %w", container, blob, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("blobstore: read %s/%s: status %d", container, blob, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("blobstore: read body %s/%s: %w", container, blob, err)
	}
	return data, nil
}

// Write uploads data as a block blob with the given content type.
func (c *Client) Write(ctx context.Context, container, blob string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPut, c.blobURL(container, blob), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("x-ms-blob-type", "BlockBlob")
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("blobstore: write %s/%s: %w", container, blob, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("blobstore: write %s/%s: status %d", container, blob, resp.StatusCode)
	}
	return nil
}

type xmlTag struct {
	Key   string `xml:"Key"`
	Value string `xml:"Value"`
}

type xmlTagSet struct {
	Tag []xmlTag `xml:"Tag"`
}

type xmlTags struct {
	XMLName xml.Name  `xml:"Tags"`
	TagSet  xmlTagSet `xml:"TagSet"`
}

// SetTags applies the given key-value tags to a blob. Failures are
// non-fatal: the caller should log and continue (spec §4.8: "log and
// continue (non-fatal)").
func (c *Client) SetTags(ctx context.Context, container, blob string, tags map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, tagsTimeout)
	defer cancel()

	doc := xmlTags{}
	for k, v := range tags {
		doc.TagSet.Tag = append(doc.TagSet.Tag, xmlTag{Key: k, Value: v})
	}
	body, err := xml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("blobstore: marshal tags: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, c.blobURL(container, blob)+"?comp=tags", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/xml")
	req.ContentLength = int64(len(body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("blobstore: set tags %s/%s: %w", container, blob, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("blobstore: set tags %s/%s: status %d", container, blob, resp.StatusCode)
	}
	return nil
}

// Copy copies a blob from (srcContainer, srcBlob) to (dstContainer, dstBlob)
// within the same account.
func (c *Client) Copy(ctx context.Context, srcContainer, srcBlob, dstContainer, dstBlob string) error {
	ctx, cancel := context.WithTimeout(ctx, copyTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPut, c.blobURL(dstContainer, dstBlob), nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-ms-copy-source", c.blobURL(srcContainer, srcBlob))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("blobstore: copy %s/%s -> %s/%s: %w", srcContainer, srcBlob, dstContainer, dstBlob, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("blobstore: copy %s/%s -> %s/%s: status %d", srcContainer, srcBlob, dstContainer, dstBlob, resp.StatusCode)
	}
	return nil
}

// DataURL reads a blob and returns it as a data: URL with mime type
// detected from the blob's extension.
func (c *Client) DataURL(ctx context.Context, container, blob string) (string, error) {
	data, err := c.Read(ctx, container, blob)
	if err != nil {
		return "", err
	}
	if data == nil {
		return "", fmt.Errorf("blobstore: %s/%s not found", container, blob)
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf("data:%s;base64,%s", MimeType(blob), encoded), nil
}

// ReadYAMLMetadata reads the YAML sidecar for blobName (stem + ".yml") from
// container, returning the raw bytes, or nil if it does not exist or
// cannot be read — metadata absence is non-fatal by spec §3.
func (c *Client) ReadYAMLMetadata(ctx context.Context, container, blobName string) []byte {
	yamlBlob := Stem(blobName) + ".yml"
	data, err := c.Read(ctx, container, yamlBlob)
	if err != nil {
		log.Warn().Err(err).Str("blob", yamlBlob).Msg("blobstore: metadata read failed, proceeding with defaults")
		return nil
	}
	return data
}
