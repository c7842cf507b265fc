package metrics

import (
	"strings"
)

// errorClasses maps substrings of transport error messages to report
// labels. The first match wins.
var errorClasses = []struct {
	needle string
	label  string
}{
	{"inactivity timeout", "Inactivity timeout"},
	{"connection refused", "Connection refused"},
	{"connection reset", "Connection reset"},
	{"no such host", "DNS lookup failed"},
	{"i/o timeout", "Connect timeout"},
	{"tls", "TLS error"},
	{"certificate", "TLS error"},
	{"context deadline exceeded", "Context deadline exceeded"},
	{"context canceled", "Canceled"},
	{"unexpected eof", "Connection closed early"},
	{"eof", "Connection closed early"},
	{"parse url", "Request URL error"},
	{"invalid header", "Request build error"},
	{"build request", "Request build error"},
}

// ErrorClass returns a short human-friendly label for an exchange error
// message.
func ErrorClass(message string) string {
	cleaned := strings.ToLower(strings.TrimSpace(message))
	if cleaned == "" {
		return "Unknown error"
	}
	for _, c := range errorClasses {
		if strings.Contains(cleaned, c.needle) {
			return c.label
		}
	}
	return "Other error"
}
