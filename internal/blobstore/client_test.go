package blobstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeTokens struct{}

func (fakeTokens) GetToken(ctx context.Context, audience string) (string, error) {
	return "fake-token", nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := New(srv.Client(), fakeTokens{}, "ignored")
	c.accountURL = srv.URL
	return c, srv
}

func TestReadReturnsNilOn404(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	data, err := c.Read(context.Background(), "ingest", "missing.png")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if data != nil {
		t.Errorf("expected nil data on 404, got %v", data)
	}
}

func TestReadReturnsBytesOn200(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fake-token" {
			t.Errorf("missing bearer token")
		}
		if r.Header.Get("x-ms-version") != apiVersion {
			t.Errorf("missing x-ms-version header")
		}
		w.Write([]byte("pngbytes"))
	})
	defer srv.Close()

	data, err := c.Read(context.Background(), "ingest", "img_0.png")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "pngbytes" {
		t.Errorf("data = %q", data)
	}
}

func TestWriteSetsBlockBlobHeader(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-ms-blob-type") != "BlockBlob" {
			t.Errorf("missing x-ms-blob-type header")
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		w.WriteHeader(http.StatusCreated)
	})
	defer srv.Close()

	err := c.Write(context.Background(), "ingest", "img_0.alt.json", []byte(`{}`), "application/json")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestSetTagsSendsXMLBody(t *testing.T) {
	var gotBody string
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("comp") != "tags" {
			t.Errorf("missing comp=tags query param")
		}
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusNoContent)
	})
	defer srv.Close()

	err := c.SetTags(context.Background(), "ingest", "img_0.png", map[string]string{"processed": "true"})
	if err != nil {
		t.Fatalf("SetTags: %v", err)
	}
	if !strings.Contains(gotBody, "<Key>processed</Key>") || !strings.Contains(gotBody, "<Value>true</Value>") {
		t.Errorf("body missing tag: %q", gotBody)
	}
}

func TestCopySetsCopySourceHeader(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("x-ms-copy-source"), "/ingest/img_0.png") {
			t.Errorf("x-ms-copy-source = %q", r.Header.Get("x-ms-copy-source"))
		}
		w.WriteHeader(http.StatusAccepted)
	})
	defer srv.Close()

	err := c.Copy(context.Background(), "ingest", "img_0.png", "public", "img_0.png")
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
}

func TestDataURLEncodesBase64WithMimeType(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("abc"))
	})
	defer srv.Close()

	url, err := c.DataURL(context.Background(), "ingest", "img_0.png")
	if err != nil {
		t.Fatalf("DataURL: %v", err)
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("url = %q", url)
	}
}

func TestReadYAMLMetadataDerivesStemName(t *testing.T) {
	var gotPath string
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("source: public website\n"))
	})
	defer srv.Close()

	data := c.ReadYAMLMetadata(context.Background(), "ingest", "img_0.png")
	if !strings.HasSuffix(gotPath, "/ingest/img_0.yml") {
		t.Errorf("path = %q, want suffix /ingest/img_0.yml", gotPath)
	}
	if string(data) != "source: public website\n" {
		t.Errorf("data = %q", data)
	}
}
