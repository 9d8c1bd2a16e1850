package cases

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/hitcheck/packages/assertions"
	"github.com/abdul-hamid-achik/hitcheck/packages/core/env"
	hchttp "github.com/abdul-hamid-achik/hitcheck/packages/http"
	"gopkg.in/yaml.v3"
)

// Extensions lists the file suffixes recognised as case files.
var Extensions = []string{".case.yaml", ".case.yml"}

type File struct {
	Path  string  `yaml:"-"`
	Cases []*Case `yaml:"cases"`
}

type Case struct {
	Name    string  `yaml:"name"`
	Request Request `yaml:"request"`
	Expect  Expect  `yaml:"expect"`
}

type Request struct {
	Method  string            `yaml:"method,omitempty"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Body    string            `yaml:"body,omitempty"`
}

type Expect struct {
	Status int `yaml:"status"`
	Body   any `yaml:"body"`

	bodySet bool
}

// UnmarshalYAML keeps track of whether "body" was written at all, so an
// omitted body is reported instead of being treated as an expected null.
func (e *Expect) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Status int       `yaml:"status"`
		Body   yaml.Node `yaml:"body"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	e.Status = raw.Status
	e.Body = nil
	e.bodySet = raw.Body.Kind != 0
	if e.bodySet {
		if err := raw.Body.Decode(&e.Body); err != nil {
			return fmt.Errorf("line %d: decoding expected body: %w", raw.Body.Line, err)
		}
	}
	return nil
}

// SetBody replaces the expected body.
func (e *Expect) SetBody(v any) {
	e.Body = v
	e.bodySet = true
}

// HasBody reports whether an expected body is configured.
func (e *Expect) HasBody() bool {
	return e.bodySet
}

// Expectation converts the case into what a ResponseAssertion checks.
func (c *Case) Expectation() assertions.Expectation {
	return assertions.Expectation{
		Name:   c.Name,
		Status: c.Expect.Status,
		Body:   c.Expect.Body,
	}
}

// BuildRequest expands ${VAR} references and returns the HTTP request to send,
// along with the names of any references that could not be resolved.
func (c *Case) BuildRequest(resolver *env.Resolver) (*hchttp.Request, []string) {
	method := strings.ToUpper(c.Request.Method)
	if method == "" {
		method = http.MethodGet
	}

	url, missing := resolver.Resolve(c.Request.URL)
	body, bodyMissing := resolver.Resolve(c.Request.Body)
	missing = append(missing, bodyMissing...)

	req := hchttp.NewRequest(method, url).SetBody(body)
	for k, v := range c.Request.Headers {
		resolved, headerMissing := resolver.Resolve(v)
		missing = append(missing, headerMissing...)
		req.SetHeader(k, resolved)
	}
	return req, missing
}

// ParseError reports a case file that could not be read or is invalid.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Load reads and validates a case file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return Parse(path, data)
}

// Parse decodes and validates case file content read from path.
func Parse(path string, data []byte) (*File, error) {
	file := &File{Path: path}
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if err := file.Validate(); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return file, nil
}

// Validate checks every case and that case names are unique in the file.
func (f *File) Validate() error {
	if len(f.Cases) == 0 {
		return fmt.Errorf("no cases defined")
	}

	seen := make(map[string]bool, len(f.Cases))
	for i, c := range f.Cases {
		if c == nil {
			return fmt.Errorf("case %d is empty", i+1)
		}
		if err := c.Validate(); err != nil {
			if c.Name != "" {
				return fmt.Errorf("case %q: %w", c.Name, err)
			}
			return fmt.Errorf("case %d: %w", i+1, err)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate case name %q", c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

func (c *Case) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(c.Request.URL) == "" {
		return fmt.Errorf("request.url is required")
	}
	if c.Expect.Status < 100 || c.Expect.Status > 599 {
		return fmt.Errorf("expect.status must be between 100 and 599, got %d", c.Expect.Status)
	}
	if !c.Expect.HasBody() {
		return fmt.Errorf("expect.body is required")
	}
	if _, err := assertions.Normalize(c.Expect.Body); err != nil {
		return fmt.Errorf("expect.body is not JSON-compatible: %w", err)
	}
	return nil
}

// Find returns the case with the given name, or nil.
func (f *File) Find(name string) *Case {
	for _, c := range f.Cases {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Save writes the file back to f.Path. Comments in the original are not kept.
func (f *File) Save() error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encoding %s: %w", f.Path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding %s: %w", f.Path, err)
	}
	return os.WriteFile(f.Path, buf.Bytes(), 0644)
}

// IsCaseFile reports whether path has a case file extension.
func IsCaseFile(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, ext := range Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Collect expands files and directories into the case files they contain.
func Collect(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && IsCaseFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else if IsCaseFile(arg) {
			files = append(files, arg)
		}
	}

	return files, nil
}
