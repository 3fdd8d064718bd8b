// Package config provides typed access to environment-variable configuration,
// used by every main package instead of scattered os.Getenv calls.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Env wraps environment-variable lookups with defaults and required-var
// fatal checks.
type Env struct{}

// New returns an Env reader.
func New() Env { return Env{} }

// String returns the named variable, or def if unset/empty.
func (Env) String(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// Require returns the named variable, or an error if it is unset/empty.
func (Env) Require(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("required environment variable %s is not set", name)
	}
	return v, nil
}

// FirstOf returns the first non-empty value among the named variables, in
// order, or def if none are set. Used for primary/legacy-alias pairs such
// as IDENTITY_ENDPOINT / MSI_ENDPOINT.
func (Env) FirstOf(def string, names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return def
}

// StringList splits a comma-joined environment variable into a trimmed,
// non-empty slice of values, or returns def if unset/empty.
func (e Env) StringList(name string, def []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// StrategySelection is the parsed and validated form of the DESCRIBER /
// TRANSLATOR environment variables.
type StrategySelection struct {
	Describer  string
	Translator string
}

// LoadStrategySelection parses the DESCRIBER and TRANSLATOR environment
// variables, each of the form "strategy:<name>", stripping the
// "strategy:" prefix. Empty values fall back to the given defaults.
func LoadStrategySelection(env Env, defaultDescriber, defaultTranslator string) StrategySelection {
	return StrategySelection{
		Describer:  parseStrategy(env.String("DESCRIBER", "strategy:"+defaultDescriber)),
		Translator: parseStrategy(env.String("TRANSLATOR", "strategy:"+defaultTranslator)),
	}
}

func parseStrategy(raw string) string {
	return strings.TrimPrefix(raw, "strategy:")
}
