package scenariofile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const checkout = `
name: checkout
type: queue
headers: {X-Env: load}
options: {keepalive: true, redirects: 0}
connection: {connect_timeout: 10s, inactivity_timeout: 30s}
user_agent: stampede-test
auth: {username: 'CORP\bob', password: secret}
stateless: false
steps:
  - request:
      method: POST
      url: http://localhost/login
      as: login
      body: "user=bob"
      extract:
        - {jsonpath: "$.token", variable: token}
        - {regex: "id=(\\d+)", variable: id}
  - group:
      name: browse
      headers: {X-Part: browse}
      steps:
        - request: {url: "http://localhost/a"}
        - request: {url: "http://localhost/b"}
  - queue:
      steps:
        - wait: 500ms
  - wait: 1s
`

func TestParseFull(t *testing.T) {
	f, err := Parse(strings.NewReader(checkout))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if f.Name != "checkout" || f.Type != TypeQueue {
		t.Fatalf("expected checkout/queue, got %q/%q", f.Name, f.Type)
	}
	if f.Headers["X-Env"] != "load" {
		t.Fatalf("expected X-Env header, got %v", f.Headers)
	}
	if f.Options == nil || f.Options.KeepAlive == nil || !*f.Options.KeepAlive {
		t.Fatalf("expected keepalive option, got %+v", f.Options)
	}
	if f.Options.Redirects == nil || *f.Options.Redirects != 0 {
		t.Fatalf("expected redirects 0, got %+v", f.Options.Redirects)
	}
	if f.Auth == nil || f.Auth.Username != `CORP\bob` {
		t.Fatalf("expected NTLM style username, got %+v", f.Auth)
	}
	if len(f.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(f.Steps))
	}
	login := f.Steps[0].Request
	if login == nil || login.As != "login" || len(login.Extract) != 2 {
		t.Fatalf("unexpected login step %+v", login)
	}
	if login.Extract[1].Regex != `id=(\d+)` {
		t.Fatalf("expected regex id=(\\d+), got %q", login.Extract[1].Regex)
	}
	if f.Steps[1].Group == nil || len(f.Steps[1].Group.Steps) != 2 {
		t.Fatalf("expected group with 2 steps, got %+v", f.Steps[1].Group)
	}
	if f.Steps[2].Queue == nil || f.Steps[2].Queue.Steps[0].Wait != "500ms" {
		t.Fatalf("expected nested queue with wait, got %+v", f.Steps[2].Queue)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "empty",
			yaml: "",
			want: "scenario file is empty",
		},
		{
			name: "unknown key",
			yaml: "name: x\nstepz: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "bad type",
			yaml: "type: swarm\n",
			want: `type: "swarm"`,
		},
		{
			name: "two kinds in one step",
			yaml: "steps:\n  - wait: 1s\n    request: {url: http://x}\n",
			want: "steps[0]: exactly one of",
		},
		{
			name: "empty step",
			yaml: "steps:\n  - {}\n",
			want: "steps[0]: exactly one of",
		},
		{
			name: "missing url",
			yaml: "steps:\n  - request: {method: GET}\n",
			want: "steps[0].request.url: is required",
		},
		{
			name: "nested path",
			yaml: "steps:\n  - wait: 1s\n  - group:\n      steps:\n        - request: {url: http://x, extract: [{variable: v}]}\n",
			want: "steps[1].group.steps[0].request.extract[0]: exactly one of jsonpath or regex",
		},
		{
			name: "bad variable",
			yaml: "steps:\n  - request: {url: http://x, extract: [{jsonpath: a, variable: '1bad'}]}\n",
			want: "extract[0].variable",
		},
		{
			name: "bad regex",
			yaml: "steps:\n  - request: {url: http://x, extract: [{regex: '(', variable: v}]}\n",
			want: "extract[0].regex",
		},
		{
			name: "bad wait",
			yaml: "steps:\n  - queue:\n      steps:\n        - wait: soon\n",
			want: "steps[0].queue.steps[0].wait",
		},
		{
			name: "bad connection",
			yaml: "connection: {connect_timeout: fast}\n",
			want: "connection.connect_timeout",
		},
		{
			name: "negative connect timeout",
			yaml: "connection: {connect_timeout: -1s}\n",
			want: "connection.connect_timeout: must be >= 0",
		},
		{
			name: "negative nested inactivity timeout",
			yaml: "steps:\n  - group:\n      connection: {inactivity_timeout: -5s}\n      steps:\n        - wait: 1s\n",
			want: "steps[0].group.connection.inactivity_timeout: must be >= 0",
		},
		{
			name: "negative redirects",
			yaml: "steps:\n  - request: {url: http://x, redirects: -1}\n",
			want: "steps[0].request.redirects",
		},
		{
			name: "auth without username",
			yaml: "auth: {password: x}\n",
			want: "auth.username",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.yaml))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow.yaml")
	if err := os.WriteFile(path, []byte("name: flow\nsteps:\n  - wait: 10ms\n"), 0o600); err != nil {
		t.Fatalf("failed to write scenario: %v", err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.Name != "flow" || len(f.Steps) != 1 {
		t.Fatalf("unexpected file %+v", f)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration(" 250ms ")
	if err != nil || d != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s (%v)", d, err)
	}
	d, err = parseDuration("")
	if err != nil || d != 0 {
		t.Fatalf("expected 0 for empty, got %s (%v)", d, err)
	}
}
