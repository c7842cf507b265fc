package httpaction

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/torosent/stampede/internal/report"
	"github.com/torosent/stampede/internal/tracing"
)

const chunkSize = 32 * 1024

// errInactivity is reported when the server stayed silent for longer than
// the inactivity timeout.
var errInactivity = errors.New("inactivity timeout")

// exchange is one physical request/response of an action. Every field is
// owned by the loop.
type exchange struct {
	primary bool
	retry   bool
	record  report.Record
	header  http.Header
	body    []byte
}

// issue builds the request and hands the round trip to the runtime. Build
// failures are reported like transport failures.
func (a *Action) issue(ex *exchange, authorization string) {
	ex.record = report.Record{Action: a.Name(), Method: a.req.method}
	req, err := a.build(authorization)
	if err != nil {
		ex.record.URL = a.req.url
		a.fail(ex, err)
		return
	}
	ex.record.URL = NormalizeURL(req.URL)

	rt := a.Context().Runtime()
	tracer, propagate := rt.Tracer(), rt.PropagateTrace()
	inactivity := a.conn.InactivityTimeout
	client := a.client
	rt.Spawn(func(ctx context.Context, post func(fn func())) func() {
		ctx, span := tracing.StartExchangeSpan(ctx, tracer, ex.record.Action, ex.record.Method, ex.record.URL)
		if propagate {
			tracing.InjectHTTPHeaders(ctx, req.Header)
		}
		status, err := roundTrip(ctx, client, req, inactivity, ex, a, post)
		tracing.EndSpan(span, err, attribute.Int("http.response.status_code", status))
		if err != nil {
			return func() { a.fail(ex, err) }
		}
		return func() { a.complete(ex) }
	})
}

// roundTrip performs the exchange off the loop and posts the header and
// chunk events back to it.
func roundTrip(ctx context.Context, client *http.Client, req *http.Request, inactivity time.Duration, ex *exchange, a *Action, post func(fn func())) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var idle atomic.Bool
	reset := func() {}
	if inactivity > 0 {
		timer := time.AfterFunc(inactivity, func() {
			idle.Store(true)
			cancel()
		})
		defer timer.Stop()
		reset = func() { timer.Reset(inactivity) }
	}
	failure := func(err error) error {
		if idle.Load() {
			return errInactivity
		}
		return err
	}

	start := time.Now()
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return 0, failure(err)
	}
	defer resp.Body.Close()
	reset()
	headersAt := time.Now()
	post(func() { a.onHeaders(ex, resp, headersAt.Sub(start)) })

	buf := make([]byte, chunkSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			reset()
			chunk := append([]byte(nil), buf[:n]...)
			elapsed := time.Since(start)
			post(func() { a.onChunk(ex, chunk, elapsed) })
		}
		if rerr == io.EOF {
			return resp.StatusCode, nil
		}
		if rerr != nil {
			return resp.StatusCode, failure(rerr)
		}
	}
}

// onHeaders runs once per exchange when the response headers arrived.
func (a *Action) onHeaders(ex *exchange, resp *http.Response, latency time.Duration) {
	ex.record.Latency = latency
	ex.record.Status = resp.StatusCode
	ex.record.URL = NormalizeURL(resp.Request.URL)
	ex.record.Compressed = resp.Uncompressed || resp.Header.Get("Content-Encoding") != ""
	ex.header = resp.Header

	if a.jar != nil {
		storeCookies(a.jar, resp.Request.URL, resp.Header.Values("Set-Cookie"))
	}

	token, ok := a.challengeResponse(ex, resp)
	if !ok {
		return
	}
	ex.primary = false
	a.outstanding++
	a.issue(&exchange{primary: true, retry: true}, "NTLM "+token)
}

// challengeResponse computes the NTLM authenticate token for a 401 carrying
// a challenge. Malformed challenges leave the 401 as the final answer.
func (a *Action) challengeResponse(ex *exchange, resp *http.Response) (string, bool) {
	creds := a.opts.NTLM
	if resp.StatusCode != http.StatusUnauthorized || ex.retry || creds == nil {
		return "", false
	}
	for _, value := range resp.Header.Values("WWW-Authenticate") {
		encoded, found := challengeToken(value)
		if !found {
			continue
		}
		token, err := ntlmAuthenticate(encoded, creds)
		if err != nil {
			a.Context().Logger().Debug("ntlm challenge rejected", "action", a.Name(), "err", err)
			return "", false
		}
		return base64.StdEncoding.EncodeToString(token), true
	}
	return "", false
}

func (a *Action) onChunk(ex *exchange, chunk []byte, elapsed time.Duration) {
	ex.body = append(ex.body, chunk...)
	ex.record.Chunks = append(ex.record.Chunks, report.Chunk{Length: len(chunk), Elapsed: elapsed})
}

func (a *Action) complete(ex *exchange) {
	ex.record.Success = true
	ex.record.Length = len(ex.body)
	a.settle(ex)
}

func (a *Action) fail(ex *exchange, err error) {
	ex.record.Success = false
	ex.record.Error = err.Error()
	a.Context().Logger().Debug("exchange failed", "action", a.Name(), "url", ex.record.URL, "err", err)
	a.settle(ex)
}

// settle routes the record of a finished exchange and finishes the action
// once no exchange is outstanding.
func (a *Action) settle(ex *exchange) {
	sink := a.sink()
	if ex.primary {
		sink.Report(ex.record)
		if ex.record.Success && a.req.callback != nil {
			a.req.callback(a, &Response{
				Status: ex.record.Status,
				URL:    ex.record.URL,
				Header: ex.header,
				Body:   ex.body,
			})
		}
	} else {
		sink.ReportSequence(report.SubrequestsKey, ex.record)
	}

	a.outstanding--
	if a.outstanding == 0 {
		a.Finish()
	}
}
