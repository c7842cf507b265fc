package variables

import (
	"regexp"
)

var placeholderRegex = regexp.MustCompile(`\{\{([^}|]+)(?:\|([^}]*))?\}\}`)

// Expand replaces {{key}} and {{key|default}} placeholders with values from
// store. Placeholders without a value or default are left as-is.
func Expand(template string, store Store) string {
	if template == "" {
		return template
	}
	return placeholderRegex.ReplaceAllStringFunc(template, func(match string) string {
		parts := placeholderRegex.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if store != nil {
			if val, ok := store.Get(parts[1]); ok {
				return val
			}
		}
		// A "|" in the match means a default was given, possibly empty.
		if len(parts) > 2 && len(match) > len(parts[1])+4 {
			return parts[2]
		}
		return match
	})
}

// ExpandMap applies Expand to every value of values.
func ExpandMap(values map[string]string, store Store) map[string]string {
	if len(values) == 0 {
		return values
	}
	out := make(map[string]string, len(values))
	for key, value := range values {
		out[key] = Expand(value, store)
	}
	return out
}
