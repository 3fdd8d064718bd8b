// Package promptcompose builds the system and user instruction strings sent
// to the describer from a source-keyed prompt template, metadata facts, and
// vision hints.
package promptcompose

import (
	"fmt"
	"strings"

	"github.com/mkastner/imagealt-pipeline/internal/assets"
	"github.com/mkastner/imagealt-pipeline/internal/metadatadoc"
	"github.com/mkastner/imagealt-pipeline/internal/visionhints"
)

// SystemInstruction composes the source-keyed system prompt with the shared
// response-format instruction appended.
func SystemInstruction(source string) string {
	return assets.SystemPrompt(source) + "\n\n" + assets.ResponseFormat()
}

// UserInstruction builds the multi-section user message text describing the
// image, its product metadata, distilled facts, and vision hints.
func UserInstruction(blobName string, doc *metadatadoc.Document, facts metadatadoc.ProductFacts, hints visionhints.Hints) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Image filename: %s\n\n", blobName)

	b.WriteString("Product Metadata:\n")
	if doc != nil && doc.Make != "" {
		fmt.Fprintf(&b, "- Brand: %s\n", doc.Make)
	}
	if doc != nil && doc.Model != "" {
		fmt.Fprintf(&b, "- Model: %s\n", doc.Model)
	}
	b.WriteString("\n")

	b.WriteString("Product Facts:\n")
	if len(facts) == 0 {
		b.WriteString("- (none)\n")
	} else {
		for k, v := range facts {
			fmt.Fprintf(&b, "- %s: %s\n", k, v)
		}
	}
	b.WriteString("\n")

	b.WriteString("Visual Hints:\n")
	if hints.Angle != visionhints.AngleNone {
		fmt.Fprintf(&b, "- Angle: %s\n", hints.Angle)
	}
	if len(hints.ObservedObjects) > 0 {
		fmt.Fprintf(&b, "- Observed objects: %s\n", strings.Join(hints.ObservedObjects, ", "))
	}
	b.WriteString("\n")

	b.WriteString("Task: Write a single concise English alt-text sentence describing this product image.\n")

	return b.String()
}
