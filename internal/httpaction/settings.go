package httpaction

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/Azure/go-ntlmssp"

	"github.com/torosent/stampede/internal/scenario"
)

// DefaultUserAgent is sent unless a context level or the request overrides it.
const DefaultUserAgent = "stampede"

const (
	defaultConnectTimeout    = 30 * time.Second
	defaultInactivityTimeout = 60 * time.Second
)

var (
	optionsKey    = scenario.NewKey[Options]("http.options")
	connectionKey = scenario.NewKey[Connection]("http.connection")
	statefulKey   = scenario.NewKey[bool]("http.stateful")
)

// Credentials identify a user for basic or NTLM authentication. Domain is only
// used by NTLM.
type Credentials struct {
	Username string
	Domain   string
	Password string
}

// Options is a layer of request settings. Zero fields are unset and leave the
// value of lower layers in place; map fields merge key by key.
type Options struct {
	KeepAlive *bool
	Redirects *int
	Body      string
	Query     map[string]string
	Head      map[string]string
	Cookies   map[string]string
	NTLM      *Credentials
	Basic     *Credentials
}

// Merge returns o overridden by every field set in over. Neither side is
// modified.
func (o Options) Merge(over Options) Options {
	out := o
	if over.KeepAlive != nil {
		out.KeepAlive = over.KeepAlive
	}
	if over.Redirects != nil {
		out.Redirects = over.Redirects
	}
	if over.Body != "" {
		out.Body = over.Body
	}
	if over.NTLM != nil {
		out.NTLM = over.NTLM
	}
	if over.Basic != nil {
		out.Basic = over.Basic
	}
	out.Query = mergeMap(o.Query, over.Query)
	out.Head = mergeMap(o.Head, canonicalHeaders(over.Head))
	out.Cookies = mergeMap(o.Cookies, over.Cookies)
	return out
}

func mergeMap(base, over map[string]string) map[string]string {
	if len(over) == 0 {
		return base
	}
	return scenario.Merge(base, over)
}

func canonicalHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return h
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[http.CanonicalHeaderKey(k)] = v
	}
	return out
}

// Bool returns a pointer to v, for Options.KeepAlive.
func Bool(v bool) *bool { return &v }

// Int returns a pointer to v, for Options.Redirects.
func Int(v int) *int { return &v }

func defaultOptions() Options {
	return Options{
		KeepAlive: Bool(true),
		Redirects: Int(0),
		Head:      map[string]string{"User-Agent": DefaultUserAgent},
	}
}

// Connection holds transport level settings.
type Connection struct {
	ConnectTimeout    time.Duration
	InactivityTimeout time.Duration
}

// Merge returns c with every non-zero field of over applied.
func (c Connection) Merge(over Connection) Connection {
	if over.ConnectTimeout != 0 {
		c.ConnectTimeout = over.ConnectTimeout
	}
	if over.InactivityTimeout != 0 {
		c.InactivityTimeout = over.InactivityTimeout
	}
	return c
}

// DefaultConnection returns the connection settings used when nothing else
// is configured.
func DefaultConnection() Connection {
	return Connection{
		ConnectTimeout:    defaultConnectTimeout,
		InactivityTimeout: defaultInactivityTimeout,
	}
}

// SetOptions merges opts into the options held by s.
func SetOptions(s scenario.Store, opts Options) {
	scenario.Update(s, optionsKey, func(cur Options, _ bool) Options {
		return cur.Merge(opts)
	})
}

// Headers merges h into the default headers held by s.
func Headers(s scenario.Store, h map[string]string) {
	SetOptions(s, Options{Head: h})
}

// UserAgent sets the identifying User-Agent header for s.
func UserAgent(s scenario.Store, agent string) {
	Headers(s, map[string]string{"User-Agent": agent})
}

// ConnectionOptions merges c into the connection settings held by s.
func ConnectionOptions(s scenario.Store, c Connection) {
	scenario.Update(s, connectionKey, func(cur Connection, _ bool) Connection {
		return cur.Merge(c)
	})
}

// Stateless disables the cookie store for requests below s.
func Stateless(s scenario.Store) {
	scenario.Set(s, statefulKey, false)
}

// Stateful re-enables the cookie store below s.
func Stateful(s scenario.Store) {
	scenario.Set(s, statefulKey, true)
}

var domainPrefix = regexp.MustCompile(`^\w+[\\/]`)

// Authenticate configures credentials for requests below s. A username of the
// form DOMAIN\user or DOMAIN/user selects NTLM: the credentials are stored and
// the negotiate message is sent with every request. Any other username
// selects basic authentication.
func Authenticate(s scenario.Store, username, password string) error {
	prefix := domainPrefix.FindString(username)
	if prefix == "" {
		SetOptions(s, Options{Basic: &Credentials{Username: username, Password: password}})
		return nil
	}

	creds := &Credentials{
		Username: username[len(prefix):],
		Domain:   prefix[:len(prefix)-1],
		Password: password,
	}
	negotiate, err := ntlmssp.NewNegotiateMessage(creds.Domain, "")
	if err != nil {
		return fmt.Errorf("ntlm negotiate message: %w", err)
	}
	SetOptions(s, Options{
		NTLM: creds,
		Head: map[string]string{"Authorization": "NTLM " + base64.StdEncoding.EncodeToString(negotiate)},
	})
	return nil
}

// effective resolves the settings for a request started in ctx.
func effective(ctx *scenario.Context, overlay Options) (Options, Connection) {
	opts := defaultOptions()
	for _, layer := range scenario.Layers(ctx, optionsKey) {
		opts = opts.Merge(layer)
	}
	opts = opts.Merge(overlay)

	conn := DefaultConnection()
	for _, layer := range scenario.Layers(ctx, connectionKey) {
		conn = conn.Merge(layer)
	}
	return opts, conn
}

func stateful(ctx *scenario.Context) bool {
	v, ok := scenario.Lookup(ctx, statefulKey)
	return !ok || v
}
