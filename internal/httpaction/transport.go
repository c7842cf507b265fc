package httpaction

import (
	"net"
	"net/http"
	"time"
)

// newClient returns a client owning a single connection. The connection is
// reused by the authentication retry of the same action and is never shared
// with other actions.
func newClient(opts Options, conn Connection) (*http.Client, *http.Transport) {
	dialer := &net.Dialer{
		Timeout:   conn.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	keepAlive := opts.KeepAlive == nil || *opts.KeepAlive
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxConnsPerHost:       1,
		MaxIdleConnsPerHost:   1,
		DisableKeepAlives:     !keepAlive,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   conn.ConnectTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	redirects := 0
	if opts.Redirects != nil {
		redirects = *opts.Redirects
	}
	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > redirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	return client, transport
}
