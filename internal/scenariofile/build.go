package scenariofile

import (
	"fmt"
	"strings"

	"github.com/torosent/stampede/internal/extractor"
	"github.com/torosent/stampede/internal/httpaction"
	"github.com/torosent/stampede/internal/scenario"
	"github.com/torosent/stampede/internal/variables"
)

// Blueprint builds the root process of f.
func (f *File) Blueprint() (*scenario.Process, error) {
	var root *scenario.Process
	if strings.EqualFold(f.Type, TypeGroup) {
		root = scenario.NewGroup(f.Name)
	} else {
		root = scenario.NewQueue(f.Name)
	}
	if err := f.Process.populate(root, ""); err != nil {
		return nil, err
	}
	return root, nil
}

// populate applies p's settings to proc and pushes its steps.
func (p *Process) populate(proc *scenario.Process, path string) error {
	if len(p.Headers) > 0 {
		httpaction.Headers(proc, p.Headers)
	}
	if p.Options != nil {
		httpaction.SetOptions(proc, httpaction.Options{
			KeepAlive: p.Options.KeepAlive,
			Redirects: p.Options.Redirects,
			Body:      p.Options.Body,
			Query:     p.Options.Query,
			Cookies:   p.Options.Cookies,
		})
	}
	if p.Connection != nil {
		connect, _ := parseDuration(p.Connection.ConnectTimeout)
		inactivity, _ := parseDuration(p.Connection.InactivityTimeout)
		httpaction.ConnectionOptions(proc, httpaction.Connection{
			ConnectTimeout:    connect,
			InactivityTimeout: inactivity,
		})
	}
	if p.UserAgent != "" {
		httpaction.UserAgent(proc, p.UserAgent)
	}
	if p.Auth != nil {
		if err := httpaction.Authenticate(proc, p.Auth.Username, p.Auth.Password); err != nil {
			return fmt.Errorf("%sauth: %w", path, err)
		}
	}
	if p.Stateless != nil {
		if *p.Stateless {
			httpaction.Stateless(proc)
		} else {
			httpaction.Stateful(proc)
		}
	}

	for i := range p.Steps {
		bp, err := p.Steps[i].blueprint(fmt.Sprintf("%ssteps[%d]", path, i))
		if err != nil {
			return err
		}
		proc.Push(bp)
	}
	return nil
}

func (s *Step) blueprint(path string) (scenario.Blueprint, error) {
	switch {
	case s.Request != nil:
		return s.Request.blueprint(), nil
	case s.Group != nil:
		proc := scenario.NewGroup(s.Group.Name)
		if err := s.Group.populate(proc, path+".group."); err != nil {
			return nil, err
		}
		return proc, nil
	case s.Queue != nil:
		proc := scenario.NewQueue(s.Queue.Name)
		if err := s.Queue.populate(proc, path+".queue."); err != nil {
			return nil, err
		}
		return proc, nil
	case s.Wait != "":
		d, err := parseDuration(s.Wait)
		if err != nil {
			return nil, fmt.Errorf("%s.wait: %w", path, err)
		}
		return scenario.Wait(d), nil
	default:
		return nil, fmt.Errorf("%s: empty step", path)
	}
}

func (r *Request) blueprint() *httpaction.Request {
	opts := httpaction.Options{
		KeepAlive: r.KeepAlive,
		Redirects: r.Redirects,
		Body:      r.Body,
		Query:     r.Query,
		Head:      r.Headers,
		Cookies:   r.Cookies,
	}

	var cb httpaction.Callback
	if len(r.Extract) > 0 {
		rules := make([]extractor.Extractor, len(r.Extract))
		for i, ext := range r.Extract {
			rules[i] = extractor.Extractor{JSONPath: ext.JSONPath, Regex: ext.Regex, Variable: ext.Variable}
		}
		cb = func(a scenario.Action, res *httpaction.Response) {
			ctx := a.Context()
			extractor.Apply(res.Body, rules, variables.ForRun(ctx), ctx.Logger())
		}
	}

	req := httpaction.NewRequest(r.Method, r.URL, opts, cb)
	if r.As != "" {
		req.As(r.As)
	}
	return req
}
