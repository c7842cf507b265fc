package httpaction

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/torosent/stampede/internal/scenario"
)

var jarKey = scenario.NewKey[http.CookieJar]("http.cookies")

// CookieJar returns the cookie store shared by every request of the run ctx
// belongs to, creating it at the run root on first use.
func CookieJar(ctx *scenario.Context) http.CookieJar {
	return scenario.Ensure(ctx.Root(), jarKey, newJar)
}

func newJar() http.CookieJar {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		// cookiejar.New never fails with a non-nil Options.
		panic(err)
	}
	return jar
}

// SplitSetCookie splits a Set-Cookie value that folded several cookies into
// one line with commas. A comma directly following an expires attribute day
// name ("expires=Wed,") belongs to the date and is not a separator.
func SplitSetCookie(value string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(value); i++ {
		if value[i] != ',' || isExpiresDay(value[:i]) {
			continue
		}
		if part := strings.TrimSpace(value[start:i]); part != "" {
			parts = append(parts, part)
		}
		start = i + 1
	}
	if part := strings.TrimSpace(value[start:]); part != "" {
		parts = append(parts, part)
	}
	return parts
}

// isExpiresDay reports whether prefix ends with "expires=" and a three letter
// day name.
func isExpiresDay(prefix string) bool {
	const n = len("expires=") + 3
	if len(prefix) < n {
		return false
	}
	tail := prefix[len(prefix)-n:]
	if !strings.EqualFold(tail[:n-3], "expires=") {
		return false
	}
	for i := n - 3; i < n; i++ {
		if !isWordByte(tail[i]) {
			return false
		}
	}
	return true
}

func isWordByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// storeCookies applies every Set-Cookie value to jar. Pieces that do not
// parse are dropped.
func storeCookies(jar http.CookieJar, u *url.URL, values []string) {
	var cookies []*http.Cookie
	for _, value := range values {
		for _, piece := range SplitSetCookie(value) {
			c, err := http.ParseSetCookie(piece)
			if err != nil {
				continue
			}
			cookies = append(cookies, c)
		}
	}
	if len(cookies) > 0 {
		jar.SetCookies(u, cookies)
	}
}

// cookieHeader builds the Cookie header for u from jar and the per-call
// overrides. Overrides replace stored cookies of the same name.
func cookieHeader(jar http.CookieJar, u *url.URL, overrides map[string]string) string {
	var pairs []string
	if jar != nil {
		for _, c := range jar.Cookies(u) {
			if _, ok := overrides[c.Name]; ok {
				continue
			}
			pairs = append(pairs, c.Name+"="+c.Value)
		}
	}
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pairs = append(pairs, name+"="+overrides[name])
	}
	return strings.Join(pairs, "; ")
}
