// Package normalizer robustly extracts the alt_en field from a describer's
// free-form model output and normalizes its capitalization and terminal
// punctuation.
package normalizer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

type altPayload struct {
	AltEn string `json:"alt_en"`
}

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)```")
var narrowAltPattern = regexp.MustCompile(`\{[^{}]*"alt_en"[^{}]*\}`)
var wideObjectPattern = regexp.MustCompile(`(?s)\{.+\}`)
var headingPattern = regexp.MustCompile(`(?m)^#{1,6}\s*`)
var boldPattern = regexp.MustCompile(`\*\*(.*?)\*\*`)

const proseFallbackMinLen = 10
const proseFallbackMaxLen = 200

// Normalize extracts alt_en from raw model output using five ordered
// strategies (first non-empty result wins) and applies punctuation
// normalization.
func Normalize(raw string) string {
	alt := extract(raw)
	return normalizePunctuation(alt)
}

func extract(raw string) string {
	if alt, ok := tryStrictJSON(raw); ok {
		return alt
	}
	if alt, ok := tryFencedJSON(raw); ok {
		return alt
	}
	if alt, ok := tryNarrowRegex(raw); ok {
		return alt
	}
	if alt, ok := tryWideRegex(raw); ok {
		return alt
	}
	return proseFallback(raw)
}

func tryStrictJSON(raw string) (string, bool) {
	var p altPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &p); err != nil {
		return "", false
	}
	return nonEmpty(p.AltEn)
}

func tryFencedJSON(raw string) (string, bool) {
	m := fencedBlockPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return parseAltObject(m[1])
}

func tryNarrowRegex(raw string) (string, bool) {
	m := narrowAltPattern.FindString(raw)
	if m == "" {
		return "", false
	}
	return parseAltObject(m)
}

func tryWideRegex(raw string) (string, bool) {
	m := wideObjectPattern.FindString(raw)
	if m == "" {
		return "", false
	}
	return parseAltObject(m)
}

func parseAltObject(candidate string) (string, bool) {
	p, err := parseAltPayload(candidate)
	if err != nil {
		return "", false
	}
	return nonEmpty(p.AltEn)
}

// parseAltPayload recovers a {"alt_en": "..."} object from candidate text
// that may still carry a markdown fence or leading/trailing prose: it
// strips any fence, then narrows to the span between the first "{" and the
// last "}" before unmarshaling. Unlike a general-purpose JSON extractor,
// this only ever looks for an object — alt_en payloads are never arrays.
func parseAltPayload(candidate string) (altPayload, error) {
	candidate = stripFence(candidate)

	start := strings.Index(candidate, "{")
	if start == -1 {
		return altPayload{}, fmt.Errorf("normalizer: no alt_en object found")
	}
	end := strings.LastIndex(candidate, "}")
	if end == -1 || end < start {
		return altPayload{}, fmt.Errorf("normalizer: unterminated alt_en object")
	}

	var p altPayload
	if err := json.Unmarshal([]byte(candidate[start:end+1]), &p); err != nil {
		return altPayload{}, fmt.Errorf("normalizer: invalid alt_en object: %w", err)
	}
	return p, nil
}

// stripFence removes a ```json ... ``` or ``` ... ``` wrapper, returning
// the text unchanged if it isn't fenced.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}

	end := len(lines) - 1
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	return strings.Join(lines[1:end], "\n")
}

func nonEmpty(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	return s, true
}

// proseFallback strips markdown heading/bold markers, picks the first line
// with length > 10, and truncates to 200 characters.
func proseFallback(raw string) string {
	text := headingPattern.ReplaceAllString(raw, "")
	text = boldPattern.ReplaceAllString(text, "$1")

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > proseFallbackMinLen {
			return truncate(line, proseFallbackMaxLen)
		}
	}
	return ""
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}

// normalizePunctuation uppercases the first character (rune) and appends a
// period if the string doesn't already end in one of {. ! ?}. Empty input
// stays empty.
func normalizePunctuation(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	s = string(runes)

	last := runes[len(runes)-1]
	if last != '.' && last != '!' && last != '?' {
		s += "."
	}
	return s
}
