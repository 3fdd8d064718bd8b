package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/mkastner/imagealt-pipeline/internal/describer"
	"github.com/mkastner/imagealt-pipeline/internal/metadatadoc"
)

type fakeStore struct {
	yaml       []byte
	writes     map[string][]byte
	tags       map[string]map[string]string
	copies     [][2]string
	dataURLErr error
	writeErr   error
	copyErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{writes: map[string][]byte{}, tags: map[string]map[string]string{}}
}

func (f *fakeStore) ReadYAMLMetadata(ctx context.Context, container, blobName string) []byte { return f.yaml }
func (f *fakeStore) DataURL(ctx context.Context, container, blob string) (string, error) {
	if f.dataURLErr != nil {
		return "", f.dataURLErr
	}
	return "data:image/png;base64,abc", nil
}
func (f *fakeStore) Write(ctx context.Context, container, blob string, data []byte, contentType string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes[blob] = data
	return nil
}
func (f *fakeStore) SetTags(ctx context.Context, container, blob string, tags map[string]string) error {
	f.tags[blob] = tags
	return nil
}
func (f *fakeStore) Copy(ctx context.Context, srcContainer, srcBlob, dstContainer, dstBlob string) error {
	if f.copyErr != nil {
		return f.copyErr
	}
	f.copies = append(f.copies, [2]string{srcBlob, dstBlob})
	return nil
}

type fakeDescriber struct {
	result describer.Result
	err    error
}

func (f fakeDescriber) Describe(ctx context.Context, req describer.Request) (describer.Result, error) {
	return f.result, f.err
}

type fakeTranslator struct {
	out map[string]string
	err error
}

func (f fakeTranslator) Translate(ctx context.Context, textEn string, languages []string, metadata *metadatadoc.Document) (map[string]string, error) {
	return f.out, f.err
}

func TestProcessSkipsNonImage(t *testing.T) {
	o := New(newFakeStore(), fakeDescriber{}, fakeTranslator{})
	out, err := o.Process(context.Background(), Input{Container: "ingest", BlobName: "notes.txt"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !out.Skipped {
		t.Errorf("expected skip")
	}
}

func TestProcessHappyPathSingleLanguage(t *testing.T) {
	store := newFakeStore()
	store.yaml = []byte("source: public website\nlanguages: [EN]\nmake: Epson\nmodel: EcoTank L3560\ndescription: |\n  Print: 15 ppm\n  Free support included\n")

	o := New(store, fakeDescriber{result: describer.Result{AltEn: "Epson EcoTank L3560 ink tank printer."}}, fakeTranslator{out: map[string]string{}})
	o.Now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	out, err := o.Process(context.Background(), Input{Container: "ingest", BlobName: "img_0.png"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.AltJSON.AltText["en"] != "Epson EcoTank L3560 ink tank printer." {
		t.Errorf("altText.en = %q", out.AltJSON.AltText["en"])
	}
	if out.Tags["langs"] != "en" {
		t.Errorf("tags.langs = %q", out.Tags["langs"])
	}
	if _, ok := store.writes["img_0.alt.json"]; !ok {
		t.Errorf("expected sidecar write")
	}
	if len(store.copies) != 1 || store.copies[0][1] != "img_0.png" {
		t.Errorf("expected copy to public, got %v", store.copies)
	}
}

func TestProcessMultiLanguageWithAlias(t *testing.T) {
	store := newFakeStore()
	store.yaml = []byte("languages: [EN, JP, NL]\n")

	o := New(store, fakeDescriber{result: describer.Result{AltEn: "A printer."}}, fakeTranslator{out: map[string]string{"jp": "プリンタ。", "nl": "Een printer."}})

	out, err := o.Process(context.Background(), Input{Container: "ingest", BlobName: "img_1.png"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out.AltJSON.AltText) != 3 {
		t.Fatalf("expected 3 altText keys, got %v", out.AltJSON.AltText)
	}
	if out.AltJSON.AltText["jp"] != "プリンタ。" {
		t.Errorf("jp = %q", out.AltJSON.AltText["jp"])
	}
	if out.Tags["langs"] != "en,jp,nl" {
		t.Errorf("langs = %q", out.Tags["langs"])
	}
}

func TestProcessDescriberFailureReturnsError(t *testing.T) {
	store := newFakeStore()
	o := New(store, fakeDescriber{result: describer.Result{AltEn: ""}}, fakeTranslator{})
	_, err := o.Process(context.Background(), Input{Container: "ingest", BlobName: "img_0.png"})
	if err == nil {
		t.Error("expected error when describer yields empty alt text")
	}
}
