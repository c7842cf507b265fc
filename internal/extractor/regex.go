package extractor

import (
	"log/slog"
	"regexp"
)

// findRegex returns the first capture group of pattern in body, or the full
// match when the pattern has no groups. Returns "" when nothing matches.
func findRegex(body []byte, pattern string, logger *slog.Logger) string {
	regex, err := regexp.Compile(pattern)
	if err != nil {
		if logger != nil {
			logger.Warn("invalid regex pattern", "pattern", pattern, "error", err)
		}
		return ""
	}

	match := regex.FindSubmatch(body)
	if match == nil {
		if logger != nil {
			logger.Warn("regex pattern not found", "pattern", pattern)
		}
		return ""
	}

	if len(match) > 1 {
		return string(match[1])
	}
	return string(match[0])
}
