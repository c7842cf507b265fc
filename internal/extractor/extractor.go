// Package extractor pulls values out of response bodies using JSON paths or
// regular expressions and stores them as run variables.
package extractor

import (
	"log/slog"

	"github.com/torosent/stampede/internal/variables"
)

// Extractor defines one extraction rule for a response body.
type Extractor struct {
	// JSONPath is a JSON path expression (e.g., "$.user.id", "user.id")
	JSONPath string

	// Regex is a regex pattern with optional capture group
	Regex string

	// Variable is the variable name to store the extracted value
	Variable string
}

// ExtractAll applies all extractors to body and returns the extracted values
// keyed by variable name. Failed extractions yield an empty value and a warning
// on logger, which may be nil.
func ExtractAll(body []byte, extractors []Extractor, logger *slog.Logger) map[string]string {
	result := make(map[string]string, len(extractors))
	for _, ext := range extractors {
		var value string
		switch {
		case ext.JSONPath != "":
			value = findJSONPath(body, ext.JSONPath, logger)
		case ext.Regex != "":
			value = findRegex(body, ext.Regex, logger)
		}
		result[ext.Variable] = value
	}
	return result
}

// Apply extracts values from body into store. Empty results do not overwrite
// values already present.
func Apply(body []byte, extractors []Extractor, store variables.Store, logger *slog.Logger) {
	if store == nil || len(extractors) == 0 {
		return
	}
	for key, value := range ExtractAll(body, extractors, logger) {
		if value == "" {
			if _, exists := store.Get(key); exists {
				continue
			}
		}
		store.Set(key, value)
	}
}
