package httpaction

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/torosent/stampede/internal/report"
	"github.com/torosent/stampede/internal/scenario"
	"github.com/torosent/stampede/internal/variables"
)

// Response is handed to a request callback once the primary exchange
// completed.
type Response struct {
	Status int
	URL    string
	Header http.Header
	Body   []byte
}

// Callback receives the final response of a request action.
type Callback func(a scenario.Action, res *Response)

// Request is the blueprint of an HTTP call.
type Request struct {
	name     string
	method   string
	url      string
	opts     Options
	callback Callback
	hooks    []scenario.Hook
}

// NewRequest returns a blueprint issuing method against rawURL with the
// per-call overlay opts. cb may be nil.
func NewRequest(method, rawURL string, opts Options, cb Callback) *Request {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	return &Request{
		name:     method + " " + rawURL,
		method:   method,
		url:      rawURL,
		opts:     opts,
		callback: cb,
	}
}

func Get(rawURL string, opts Options, cb Callback) *Request {
	return NewRequest(http.MethodGet, rawURL, opts, cb)
}

func Post(rawURL string, opts Options, cb Callback) *Request {
	return NewRequest(http.MethodPost, rawURL, opts, cb)
}

func Put(rawURL string, opts Options, cb Callback) *Request {
	return NewRequest(http.MethodPut, rawURL, opts, cb)
}

func Delete(rawURL string, opts Options, cb Callback) *Request {
	return NewRequest(http.MethodDelete, rawURL, opts, cb)
}

func Head(rawURL string, opts Options, cb Callback) *Request {
	return NewRequest(http.MethodHead, rawURL, opts, cb)
}

// As overrides the name reported for instances of r.
func (r *Request) As(name string) *Request {
	if name != "" {
		r.name = name
	}
	return r
}

// BeforeStart registers a hook run before every instance of r starts.
func (r *Request) BeforeStart(h scenario.Hook) *Request {
	r.hooks = append(r.hooks, h)
	return r
}

func (r *Request) Name() string { return r.name }

func (r *Request) Method() string { return r.method }

func (r *Request) URL() string { return r.url }

func (r *Request) New() scenario.Action {
	return &Action{Base: scenario.NewBase(r.name, r.hooks), req: r}
}

// Action is a running Request.
type Action struct {
	scenario.Base
	req *Request

	opts        Options
	conn        Connection
	jar         http.CookieJar
	client      *http.Client
	outstanding int
}

// Options returns the settings resolved when the action started.
func (a *Action) Options() Options { return a.opts }

func (a *Action) Start() {
	ctx := a.Context()
	a.opts, a.conn = effective(ctx, a.req.opts)
	if stateful(ctx) {
		a.jar = CookieJar(ctx)
	}
	client, transport := newClient(a.opts, a.conn)
	a.client = client
	a.OnFinish(transport.CloseIdleConnections)

	a.outstanding = 1
	a.issue(&exchange{primary: true}, "")
}

// build assembles the outgoing request. authorization, when set, replaces the
// configured Authorization header.
func (a *Action) build(authorization string) (*http.Request, error) {
	vars := variables.Lookup(a.Context())

	target, err := url.Parse(variables.Expand(a.req.url, vars))
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if len(a.opts.Query) > 0 {
		q := target.Query()
		for k, v := range a.opts.Query {
			q.Set(k, variables.Expand(v, vars))
		}
		target.RawQuery = q.Encode()
	}

	var body io.Reader
	if a.opts.Body != "" {
		body = strings.NewReader(variables.Expand(a.opts.Body, vars))
	}
	req, err := http.NewRequest(a.req.method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for k, v := range a.opts.Head {
		v = variables.Expand(v, vars)
		if strings.ContainsAny(v, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", k)
		}
		req.Header.Set(k, v)
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	} else if b := a.opts.Basic; b != nil && req.Header.Get("Authorization") == "" {
		req.SetBasicAuth(b.Username, b.Password)
	}
	if cookie := cookieHeader(a.jar, req.URL, variables.ExpandMap(a.opts.Cookies, vars)); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	if a.opts.KeepAlive != nil && !*a.opts.KeepAlive {
		req.Close = true
	}
	return req, nil
}

func (a *Action) sink() report.Sink {
	if rt := a.Context().Runtime(); rt != nil {
		return rt
	}
	return report.Discard
}
