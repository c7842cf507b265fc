// Package httpaction implements the HTTP request leaf of a scenario tree.
//
// A [Request] is a blueprint: method, URL, a per-call [Options] overlay and an
// optional [Callback]. Every run instantiates it into an action that issues
// one logical HTTP call, which may expand into several physical exchanges
// when the server answers with an NTLM challenge.
//
// # Configuration
//
// Headers, options and connection settings are stored in the scenario context
// chain and in process blueprints:
//
//	site := scenario.NewQueue("site")
//	httpaction.Headers(site, map[string]string{"X-Env": "load"})
//	httpaction.ConnectionOptions(site, httpaction.Connection{ConnectTimeout: 5 * time.Second})
//	if err := httpaction.Authenticate(site, `CORP\bob`, "secret"); err != nil {
//		return err
//	}
//	site.Push(httpaction.Get("http://localhost:8080/", httpaction.Options{}, nil))
//
// Effective settings are resolved when an action starts, from lowest to
// highest precedence: built-in defaults, connection defaults, every context
// level from the root down, and finally the request's own overlay.
//
// # Reporting
//
// Each physical exchange produces one [report.Record]. The record of the
// exchange surfaced to the caller goes to the run's Report sink; an exchange
// answered by an authentication challenge goes to the
// [report.SubrequestsKey] sequence instead. HTTP error statuses are regular
// successful exchanges; only transport failures are reported as failures.
package httpaction
