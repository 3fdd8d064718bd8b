// Package assets provides embedded prompt resources for the describer.
//
// System instruction files are looked up by a normalized source name and
// embedded in the binary at compile time — no filesystem dependency in
// production builds.
package assets

import (
	"embed"
	"strings"
)

//go:embed prompts/*.md
var promptFS embed.FS

// defaultSystemPromptFallback is used only if the embedded default prompt
// file is ever missing (an embed-path typo caught at review time, not a
// condition that can occur at runtime today).
const defaultSystemPromptFallback = "You are an assistant that writes concise, accurate alt text for product photographs."

// responseFormatFallback mirrors defaultSystemPromptFallback for the shared
// response-format instruction.
const responseFormatFallback = `Respond with a single JSON object of the form {"alt_en": "<description>"} and nothing else.`

// NormalizeSource lowercases a metadata source tag and replaces spaces and
// hyphens with underscores, matching the embedded file naming convention
// (e.g. "Public Website" -> "public_website").
func NormalizeSource(source string) string {
	s := strings.ToLower(strings.TrimSpace(source))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

// SystemPrompt returns the system instruction for the given metadata source
// tag, falling back to the default prompt, and finally to a hard-coded
// constant if even the embedded default is absent.
func SystemPrompt(source string) string {
	normalized := NormalizeSource(source)
	if normalized != "" {
		if data, err := promptFS.ReadFile("prompts/" + normalized + "_system_prompt.md"); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	if data, err := promptFS.ReadFile("prompts/default_system_prompt.md"); err == nil {
		return strings.TrimSpace(string(data))
	}
	return defaultSystemPromptFallback
}

// ResponseFormat returns the shared response-format instruction appended to
// every system instruction.
func ResponseFormat() string {
	if data, err := promptFS.ReadFile("prompts/response_format.md"); err == nil {
		return strings.TrimSpace(string(data))
	}
	return responseFormatFallback
}
