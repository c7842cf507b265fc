package httpaction

import (
	"net"
	"net/url"
	"strings"
)

// NormalizeURL returns u with a lower-case scheme and host, without the
// scheme's default port and with an empty path replaced by "/".
func NormalizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	n := *u
	n.Scheme = strings.ToLower(n.Scheme)
	host := strings.ToLower(n.Host)
	if h, port, err := net.SplitHostPort(host); err == nil {
		if (n.Scheme == "http" && port == "80") || (n.Scheme == "https" && port == "443") {
			host = h
			if strings.Contains(h, ":") {
				host = "[" + h + "]"
			}
		}
	}
	n.Host = host
	if n.Path == "" && n.Opaque == "" {
		n.Path = "/"
	}
	n.Fragment = ""
	n.RawFragment = ""
	return n.String()
}
