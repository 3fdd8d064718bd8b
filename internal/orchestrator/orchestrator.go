// Package orchestrator coordinates metadata loading, description,
// translation, normalization, and persistence for one image, per the
// pipeline algorithm.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mkastner/imagealt-pipeline/internal/apierror"
	"github.com/mkastner/imagealt-pipeline/internal/blobstore"
	"github.com/mkastner/imagealt-pipeline/internal/describer"
	"github.com/mkastner/imagealt-pipeline/internal/metadatadoc"
	"github.com/mkastner/imagealt-pipeline/internal/metrics"
	"github.com/mkastner/imagealt-pipeline/internal/translator"
	"github.com/mkastner/imagealt-pipeline/internal/visionhints"
)

// AltTextResult is the persisted sidecar document for one processed image.
type AltTextResult struct {
	Asset       string            `json:"asset"`
	Image       string            `json:"image"`
	Source      string            `json:"source"`
	AltText     map[string]string `json:"altText"`
	GeneratedAt string            `json:"generatedAt"`
}

// TagSet is the set of blob tags applied to a processed image.
type TagSet map[string]string

// Store is the subset of blobstore.Client operations the orchestrator
// needs, kept as an interface so tests can supply a fake.
type Store interface {
	ReadYAMLMetadata(ctx context.Context, container, blobName string) []byte
	DataURL(ctx context.Context, container, blob string) (string, error)
	Write(ctx context.Context, container, blob string, data []byte, contentType string) error
	SetTags(ctx context.Context, container, blob string, tags map[string]string) error
	Copy(ctx context.Context, srcContainer, srcBlob, dstContainer, dstBlob string) error
}

// Orchestrator runs the pipeline for one image.
type Orchestrator struct {
	Store            Store
	Describer        describer.Describer
	Translator       translator.Translator
	PublicContainer  string
	Now              func() time.Time
	MetricsNamespace string
}

// New constructs an Orchestrator with sensible defaults for Now and
// PublicContainer.
func New(store Store, desc describer.Describer, trans translator.Translator) *Orchestrator {
	return &Orchestrator{
		Store:            store,
		Describer:        desc,
		Translator:       trans,
		PublicContainer:  "public",
		Now:              time.Now,
		MetricsNamespace: "imagealt.orchestrator",
	}
}

// Input describes one image to process.
type Input struct {
	Container string
	BlobName  string
	Metadata  *metadatadoc.Document // pre-supplied; overrides the YAML sidecar fetch
	CMSText   string                // pre-supplied description text; overrides metadata.Description
}

// Output is the orchestrator's result for one run.
type Output struct {
	Skipped    bool
	SkipReason string
	AltJSON    AltTextResult
	Tags       TagSet
}

// Process runs the eleven-step pipeline for one blob.
func (o *Orchestrator) Process(ctx context.Context, in Input) (Output, error) {
	start := time.Now()
	rec := metrics.New(o.MetricsNamespace).Dimension("Blob", in.BlobName)
	defer func() {
		rec.Metric("DurationMs", float64(time.Since(start).Milliseconds()), metrics.UnitMilliseconds).Flush()
	}()

	if !blobstore.IsImage(in.BlobName) {
		rec.Dimension("Outcome", "skipped")
		return Output{Skipped: true, SkipReason: "Not an image file"}, nil
	}

	doc, err := o.loadMetadata(ctx, in)
	if err != nil {
		log.Warn().Err(err).Str("blob", in.BlobName).Msg("orchestrator: metadata load failed, proceeding with defaults")
		doc = &metadatadoc.Document{}
	}

	languages := doc.LanguagesOrDefault()

	description := doc.Description
	if in.CMSText != "" {
		description = in.CMSText
	}
	facts := metadatadoc.ExtractProductFacts(description)

	hints := visionhints.Derive(in.BlobName, nil, doc.Angle)

	imageRef, err := o.Store.DataURL(ctx, in.Container, in.BlobName)
	if err != nil {
		rec.Dimension("Outcome", "failure")
		return Output{}, apierror.TransientRemote("orchestrator: read image bytes", err)
	}

	descResult, err := o.Describer.Describe(ctx, describer.Request{
		BlobName: in.BlobName,
		ImageRef: imageRef,
		Metadata: doc,
		Facts:    facts,
		Hints:    hints,
	})
	if err != nil {
		rec.Dimension("Outcome", "failure")
		return Output{}, apierror.PermanentRemote("orchestrator: describer call failed", err)
	}
	if descResult.AltEn == "" {
		rec.Dimension("Outcome", "failure")
		return Output{}, apierror.PermanentRemote("orchestrator: describer produced empty alt text", nil)
	}

	normalizedLangs := normalizeLanguageList(languages)
	toTranslate := excludeEnglish(normalizedLangs)

	translations, err := o.Translator.Translate(ctx, descResult.AltEn, toTranslate, doc)
	if err != nil {
		rec.Dimension("Outcome", "failure")
		return Output{}, apierror.PermanentRemote("orchestrator: translator call failed", err)
	}

	altText := map[string]string{"en": descResult.AltEn}
	for lang, text := range translations {
		altText[lang] = text
	}

	result := AltTextResult{
		Asset:       doc.Asset,
		Image:       in.BlobName,
		Source:      doc.Source,
		AltText:     altText,
		GeneratedAt: o.Now().UTC().Format(time.RFC3339),
	}

	if err := o.persist(ctx, in.Container, result); err != nil {
		rec.Dimension("Outcome", "failure")
		return Output{}, err
	}

	tags := buildTagSet(altText)
	if err := o.Store.SetTags(ctx, in.Container, in.BlobName, tags); err != nil {
		log.Warn().Err(err).Str("blob", in.BlobName).Msg("orchestrator: tag set failed (non-fatal)")
	}

	if !strings.HasSuffix(strings.ToLower(in.BlobName), ".json") {
		if err := o.Store.Copy(ctx, in.Container, in.BlobName, o.PublicContainer, in.BlobName); err != nil {
			rec.Dimension("Outcome", "failure")
			return Output{}, apierror.TransientRemote("orchestrator: copy to public failed", err)
		}
	}

	rec.Dimension("Outcome", "success")
	return Output{AltJSON: result, Tags: tags}, nil
}

func (o *Orchestrator) loadMetadata(ctx context.Context, in Input) (*metadatadoc.Document, error) {
	if in.Metadata != nil {
		return in.Metadata, nil
	}
	raw := o.Store.ReadYAMLMetadata(ctx, in.Container, in.BlobName)
	return metadatadoc.Parse(raw)
}

func (o *Orchestrator) persist(ctx context.Context, container string, result AltTextResult) error {
	sidecarBlob := blobstore.Stem(result.Image) + ".alt.json"
	data, err := json.Marshal(result)
	if err != nil {
		return apierror.Internal("orchestrator: marshal sidecar", err)
	}
	if err := o.Store.Write(ctx, container, sidecarBlob, data, "application/json"); err != nil {
		return apierror.TransientRemote(fmt.Sprintf("orchestrator: write sidecar %s", sidecarBlob), err)
	}
	return nil
}

func normalizeLanguageList(languages []string) []string {
	out := make([]string, 0, len(languages))
	for _, l := range languages {
		c := strings.ToLower(strings.TrimSpace(l))
		if len(c) > 2 {
			c = c[:2]
		}
		out = append(out, c)
	}
	return out
}

func excludeEnglish(languages []string) []string {
	out := make([]string, 0, len(languages))
	for _, l := range languages {
		if l != "en" {
			out = append(out, l)
		}
	}
	return out
}

func buildTagSet(altText map[string]string) TagSet {
	codes := make([]string, 0, len(altText))
	for k := range altText {
		codes = append(codes, k)
	}
	sort.Strings(codes)
	return TagSet{
		"processed": "true",
		"alt.v":     "1",
		"langs":     strings.Join(codes, ","),
	}
}
