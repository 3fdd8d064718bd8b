package metadatadoc

import (
	"regexp"
	"strings"
)

// promotionalPatterns match lines that read as marketing copy rather than
// verifiable product facts; matching lines are dropped before fact
// extraction.
var promotionalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)warranty|guarantee|limited warranty`),
	regexp.MustCompile(`(?i)free|complimentary|included at no extra cost`),
	regexp.MustCompile(`(?i)best|revolutionary|innovative|cutting-edge`),
	regexp.MustCompile(`(?i)certified|patented|proprietary`),
	regexp.MustCompile(`(?i)savings|discount|reduced price`),
}

// factLine matches a "Key: value" line.
var factLine = regexp.MustCompile(`^([A-Za-z ]+):\s*(.+)$`)

const maxFactValueLen = 100

// ProductFacts maps a normalized key (lowercase, underscore-separated) to a
// short value derived line-wise from a free-form description.
type ProductFacts map[string]string

// ExtractProductFacts splits description into lines, drops promotional
// lines, and emits normalize_key(k) -> v for every remaining "Key: value"
// line whose value is under 100 characters.
func ExtractProductFacts(description string) ProductFacts {
	facts := ProductFacts{}
	for _, raw := range strings.Split(description, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if isPromotional(line) {
			continue
		}
		m := factLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value := m[2]
		if len(value) >= maxFactValueLen {
			continue
		}
		facts[normalizeKey(m[1])] = value
	}
	return facts
}

func isPromotional(line string) bool {
	for _, p := range promotionalPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// normalizeKey lowercases a fact key and replaces spaces with underscores.
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")
}
