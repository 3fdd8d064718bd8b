// Package metadatadoc parses the YAML sidecar document that accompanies
// each ingest image and distills its free-form description into a curated
// fact set.
package metadatadoc

import (
	"gopkg.in/yaml.v3"
)

// Document is the structured companion document for an image. It is
// intentionally restricted to a shallow mapping with at most one list
// field (Languages), per the metadata format's documented subset.
type Document struct {
	Asset       string   `yaml:"asset"`
	Source      string   `yaml:"source"`
	Languages   []string `yaml:"languages"`
	Make        string   `yaml:"make"`
	Model       string   `yaml:"model"`
	Description string   `yaml:"description"`
	Angle       string   `yaml:"angle"`
}

// DefaultLanguages is used when a metadata document specifies none and no
// operator-configured default list has been set via SetDefaultLanguages.
var DefaultLanguages = []string{"en"}

// SetDefaultLanguages overrides DefaultLanguages, e.g. from the LOCALES
// environment variable. An empty list is ignored.
func SetDefaultLanguages(langs []string) {
	if len(langs) == 0 {
		return
	}
	DefaultLanguages = langs
}

// Parse unmarshals raw YAML bytes into a Document. A nil or empty input
// yields an empty Document and no error — metadata absence is non-fatal.
func Parse(raw []byte) (*Document, error) {
	if len(raw) == 0 {
		return &Document{}, nil
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return &Document{}, err
	}
	return &doc, nil
}

// LanguagesOrDefault returns the document's language list, or
// DefaultLanguages if it declares none.
func (d *Document) LanguagesOrDefault() []string {
	if d == nil || len(d.Languages) == 0 {
		return DefaultLanguages
	}
	return d.Languages
}
