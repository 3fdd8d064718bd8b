package translator

import "strings"

// nonISOAliases maps non-standard two-letter codes used in metadata
// documents to the translation API's actual language codes. The output
// AltTextResult still keys the translation by the original alias (e.g.
// "jp"), not the mapped API code.
var nonISOAliases = map[string]string{
	"jp": "ja",
	"cn": "zh-Hans",
	"tw": "zh-Hant",
	"kr": "ko",
	"br": "pt",
	"cz": "cs",
	"dk": "da",
	"gr": "el",
	"se": "sv",
	"no": "nb",
}

// apiLanguageCode maps a lowercase two-letter code to the code the
// translation API expects.
func apiLanguageCode(code string) string {
	if mapped, ok := nonISOAliases[code]; ok {
		return mapped
	}
	return code
}

// normalizeLanguageCode lowercases and truncates to a two-letter prefix,
// matching the "lowercase two-letter codes" invariant on AltTextResult.
func normalizeLanguageCode(raw string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	if len(c) > 2 {
		c = c[:2]
	}
	return c
}
