package httpaction

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/torosent/stampede/internal/scenario"
)

func TestEffectivePrecedence(t *testing.T) {
	root := scenario.NewContext(nil)
	ConnectionOptions(root, Connection{ConnectTimeout: 5 * time.Second})
	Headers(root, map[string]string{"x-site": "root", "X-Mode": "root"})
	SetOptions(root, Options{KeepAlive: Bool(false)})

	child := root.Child()
	Headers(child, map[string]string{"X-Mode": "child"})
	ConnectionOptions(child, Connection{InactivityTimeout: time.Second})

	opts, conn := effective(child, Options{Head: map[string]string{"x-call": "1"}, Redirects: Int(2)})

	if opts.Head["X-Site"] != "root" {
		t.Errorf("expected root header kept, got %q", opts.Head["X-Site"])
	}
	if opts.Head["X-Mode"] != "child" {
		t.Errorf("expected nearer header to win, got %q", opts.Head["X-Mode"])
	}
	if opts.Head["X-Call"] != "1" {
		t.Errorf("expected overlay header, got %q", opts.Head["X-Call"])
	}
	if opts.Head["User-Agent"] != DefaultUserAgent {
		t.Errorf("expected default user agent, got %q", opts.Head["User-Agent"])
	}
	if opts.KeepAlive == nil || *opts.KeepAlive {
		t.Errorf("expected keep-alive disabled by context")
	}
	if opts.Redirects == nil || *opts.Redirects != 2 {
		t.Errorf("expected overlay redirects 2")
	}
	if conn.ConnectTimeout != 5*time.Second || conn.InactivityTimeout != time.Second {
		t.Errorf("unexpected connection settings %+v", conn)
	}

	rootOpts, _ := scenario.Own(root, optionsKey)
	if rootOpts.Head["X-Mode"] != "root" {
		t.Errorf("expected root level untouched, got %q", rootOpts.Head["X-Mode"])
	}
}

func TestEffectiveDefaults(t *testing.T) {
	opts, conn := effective(scenario.NewContext(nil), Options{})
	if opts.KeepAlive == nil || !*opts.KeepAlive {
		t.Errorf("expected keep-alive by default")
	}
	if opts.Redirects == nil || *opts.Redirects != 0 {
		t.Errorf("expected no redirects by default")
	}
	if conn != DefaultConnection() {
		t.Errorf("expected default connection, got %+v", conn)
	}
}

func TestProcessSettingsAreCopiedOnDerive(t *testing.T) {
	base := scenario.NewQueue("base")
	Headers(base, map[string]string{"X-A": "1"})
	derived := base.Derive("derived")
	Headers(derived, map[string]string{"X-A": "2"})

	baseOpts, _ := scenario.Own(base, optionsKey)
	if baseOpts.Head["X-A"] != "1" {
		t.Fatalf("expected base blueprint unchanged, got %q", baseOpts.Head["X-A"])
	}
}

func TestAuthenticateBasic(t *testing.T) {
	ctx := scenario.NewContext(nil)
	if err := Authenticate(ctx, "bob", "secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opts, _ := effective(ctx, Options{})
	if opts.Basic == nil || opts.Basic.Username != "bob" || opts.Basic.Password != "secret" {
		t.Fatalf("expected basic credentials, got %+v", opts.Basic)
	}
	if opts.NTLM != nil {
		t.Fatalf("expected no ntlm credentials")
	}
}

func TestAuthenticateNTLM(t *testing.T) {
	for _, user := range []string{`CORP\bob`, "CORP/bob"} {
		ctx := scenario.NewContext(nil)
		if err := Authenticate(ctx, user, "secret"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		opts, _ := effective(ctx, Options{})
		if opts.NTLM == nil {
			t.Fatalf("%s: expected ntlm credentials", user)
		}
		if opts.NTLM.Domain != "CORP" || opts.NTLM.Username != "bob" || opts.NTLM.Password != "secret" {
			t.Fatalf("%s: unexpected credentials %+v", user, opts.NTLM)
		}
		auth := opts.Head["Authorization"]
		encoded, ok := strings.CutPrefix(auth, "NTLM ")
		if !ok {
			t.Fatalf("%s: expected NTLM authorization header, got %q", user, auth)
		}
		msg, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil || !strings.HasPrefix(string(msg), "NTLMSSP\x00") || msg[8] != 1 {
			t.Fatalf("%s: expected negotiate message, got %q", user, msg)
		}
	}
}

func TestStateless(t *testing.T) {
	root := scenario.NewContext(nil)
	if !stateful(root) {
		t.Fatalf("expected stateful by default")
	}
	child := root.Child()
	Stateless(child)
	if stateful(child) {
		t.Fatalf("expected stateless below child")
	}
	if !stateful(root) {
		t.Fatalf("expected root unaffected")
	}
}
