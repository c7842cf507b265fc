// Package scenariofile reads YAML scenario files and turns them into
// blueprint trees for the runner.
package scenariofile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the root of a scenario file. The root is itself a process.
type File struct {
	Process `yaml:",inline"`
	Type    string `yaml:"type"`
}

// Process holds the keys shared by the root and nested group/queue steps.
type Process struct {
	Name       string            `yaml:"name"`
	Headers    map[string]string `yaml:"headers"`
	Options    *Options          `yaml:"options"`
	Connection *Connection       `yaml:"connection"`
	UserAgent  string            `yaml:"user_agent"`
	Auth       *Auth             `yaml:"auth"`
	Stateless  *bool             `yaml:"stateless"`
	Steps      []Step            `yaml:"steps"`
}

// Options are HTTP defaults inherited by every request below a process.
type Options struct {
	KeepAlive *bool             `yaml:"keepalive"`
	Redirects *int              `yaml:"redirects"`
	Body      string            `yaml:"body"`
	Query     map[string]string `yaml:"query"`
	Cookies   map[string]string `yaml:"cookies"`
}

type Connection struct {
	ConnectTimeout    string `yaml:"connect_timeout"`
	InactivityTimeout string `yaml:"inactivity_timeout"`
}

// Auth credentials. A username of the form DOMAIN\user selects NTLM,
// anything else Basic.
type Auth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Step is exactly one of a request, a nested group or queue, or a wait.
type Step struct {
	Request *Request `yaml:"request"`
	Group   *Process `yaml:"group"`
	Queue   *Process `yaml:"queue"`
	Wait    string   `yaml:"wait"`
}

type Request struct {
	Method    string            `yaml:"method"`
	URL       string            `yaml:"url"`
	As        string            `yaml:"as"`
	Body      string            `yaml:"body"`
	Headers   map[string]string `yaml:"headers"`
	Cookies   map[string]string `yaml:"cookies"`
	Query     map[string]string `yaml:"query"`
	KeepAlive *bool             `yaml:"keepalive"`
	Redirects *int              `yaml:"redirects"`
	Extract   []Extract         `yaml:"extract"`
}

// Extract stores a value from the response body under Variable.
type Extract struct {
	JSONPath string `yaml:"jsonpath"`
	Regex    string `yaml:"regex"`
	Variable string `yaml:"variable"`
}

const (
	TypeQueue = "queue"
	TypeGroup = "group"
)

var variableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// Load reads and validates the scenario file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes and validates a scenario from r. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	var f File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("scenario file is empty")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &f, nil
}

// Validate checks the whole tree. Errors name the offending step path.
func (f *File) Validate() error {
	switch strings.ToLower(f.Type) {
	case "", TypeQueue, TypeGroup:
	default:
		return fmt.Errorf("type: %q is not supported (use queue or group)", f.Type)
	}
	return f.Process.validate("")
}

func (p *Process) validate(path string) error {
	if p.Connection != nil {
		fields := []struct{ name, value string }{
			{"connect_timeout", p.Connection.ConnectTimeout},
			{"inactivity_timeout", p.Connection.InactivityTimeout},
		}
		for _, field := range fields {
			d, err := parseDuration(field.value)
			if err != nil {
				return fmt.Errorf("%sconnection.%s: %w", path, field.name, err)
			}
			if d < 0 {
				return fmt.Errorf("%sconnection.%s: must be >= 0", path, field.name)
			}
		}
	}
	if p.Options != nil && p.Options.Redirects != nil && *p.Options.Redirects < 0 {
		return fmt.Errorf("%soptions.redirects: must be >= 0", path)
	}
	if p.Auth != nil && strings.TrimSpace(p.Auth.Username) == "" {
		return fmt.Errorf("%sauth.username: is required", path)
	}
	for i := range p.Steps {
		if err := p.Steps[i].validate(fmt.Sprintf("%ssteps[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Step) validate(path string) error {
	set := 0
	if s.Request != nil {
		set++
	}
	if s.Group != nil {
		set++
	}
	if s.Queue != nil {
		set++
	}
	if s.Wait != "" {
		set++
	}
	if set != 1 {
		return fmt.Errorf("%s: exactly one of request, group, queue or wait is required", path)
	}

	switch {
	case s.Request != nil:
		return s.Request.validate(path + ".request")
	case s.Group != nil:
		return s.Group.validate(path + ".group.")
	case s.Queue != nil:
		return s.Queue.validate(path + ".queue.")
	default:
		d, err := parseDuration(s.Wait)
		if err != nil {
			return fmt.Errorf("%s.wait: %w", path, err)
		}
		if d < 0 {
			return fmt.Errorf("%s.wait: must be >= 0", path)
		}
	}
	return nil
}

func (r *Request) validate(path string) error {
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("%s.url: is required", path)
	}
	if strings.ContainsAny(r.Method, " \t\r\n") {
		return fmt.Errorf("%s.method: %q is not a valid method", path, r.Method)
	}
	if r.Redirects != nil && *r.Redirects < 0 {
		return fmt.Errorf("%s.redirects: must be >= 0", path)
	}
	for i, ext := range r.Extract {
		extPath := fmt.Sprintf("%s.extract[%d]", path, i)
		hasJSON := strings.TrimSpace(ext.JSONPath) != ""
		hasRegex := strings.TrimSpace(ext.Regex) != ""
		if hasJSON == hasRegex {
			return fmt.Errorf("%s: exactly one of jsonpath or regex is required", extPath)
		}
		if hasRegex {
			if _, err := regexp.Compile(ext.Regex); err != nil {
				return fmt.Errorf("%s.regex: %w", extPath, err)
			}
		}
		if !variableName.MatchString(ext.Variable) {
			return fmt.Errorf("%s.variable: %q is not a valid variable name", extPath, ext.Variable)
		}
	}
	return nil
}

// parseDuration accepts Go duration strings. Empty means unset.
func parseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return time.ParseDuration(value)
}
