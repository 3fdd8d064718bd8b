// Package localstore implements orchestrator.Store against the local
// filesystem, rooted at one directory, for the altctl operator CLI: it
// lets a developer iterate on prompts against a real image + YAML sidecar
// pair without a running HTTP server or an object-store account.
package localstore

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/mkastner/imagealt-pipeline/internal/blobstore"
)

// Store reads and writes files under root, ignoring the container
// argument the orchestrator passes (the blob wire protocol has no local
// equivalent of a container, so every operation is rooted at the same
// directory).
type Store struct {
	root string
}

// New creates a Store rooted at dir.
func New(dir string) *Store {
	return &Store{root: dir}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.root, filepath.Base(name))
}

// ReadYAMLMetadata reads "<stem>.yml" next to blobName, returning nil on
// any error (metadata absence is non-fatal by spec §3).
func (s *Store) ReadYAMLMetadata(ctx context.Context, container, blobName string) []byte {
	yamlPath := s.path(blobstore.Stem(blobName) + ".yml")
	data, err := os.ReadFile(yamlPath)
	if err != nil {
		log.Warn().Err(err).Str("path", yamlPath).Msg("localstore: metadata read failed, proceeding with defaults")
		return nil
	}
	return data
}

// DataURL reads blobName from disk and returns it as a data: URL.
func (s *Store) DataURL(ctx context.Context, container, blob string) (string, error) {
	data, err := os.ReadFile(s.path(blob))
	if err != nil {
		return "", fmt.Errorf("localstore: read %s: %w", blob, err)
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf("data:%s;base64,%s", blobstore.MimeType(blob), encoded), nil
}

// Write writes data to blob under root; contentType is accepted for
// interface compatibility and ignored (the local filesystem has no
// content-type header to set).
func (s *Store) Write(ctx context.Context, container, blob string, data []byte, contentType string) error {
	if err := os.WriteFile(s.path(blob), data, 0o644); err != nil {
		return fmt.Errorf("localstore: write %s: %w", blob, err)
	}
	return nil
}

// SetTags logs the tags that would have been set; the local filesystem has
// no blob-tag equivalent.
func (s *Store) SetTags(ctx context.Context, container, blob string, tags map[string]string) error {
	log.Info().Str("blob", blob).Interface("tags", tags).Msg("localstore: tags (no-op, logged only)")
	return nil
}

// Copy copies srcBlob to a "public_<dstBlob>" file under root, standing in
// for the ingest -> public container copy.
func (s *Store) Copy(ctx context.Context, srcContainer, srcBlob, dstContainer, dstBlob string) error {
	data, err := os.ReadFile(s.path(srcBlob))
	if err != nil {
		return fmt.Errorf("localstore: copy read %s: %w", srcBlob, err)
	}
	dst := s.path("public_" + dstBlob)
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("localstore: copy write %s: %w", dst, err)
	}
	return nil
}
