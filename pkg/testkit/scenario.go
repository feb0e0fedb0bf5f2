// Package testkit drives REST API tests from JSON scenario files.
//
// A scenario describes one request and what the API must answer:
//
//	{
//	  "name": "create order",
//	  "requestMethod": "POST",
//	  "requestUrl": "/orders",
//	  "headers": {"Authorization": "Bearer {{token}}"},
//	  "requestBody": {"products": [{"productId": "{{lampId}}", "quantity": 2}], "shippingAddress": "1 Main St"},
//	  "expectedCode": 201,
//	  "responseBody": {"order": {"totalPrice": 40}},
//	  "matchMode": "subset",
//	  "capture": {"orderId": "order._id"}
//	}
//
// Bodies may be inline or live in files next to the scenario
// (requestFileName, responseFileName). {{name}} placeholders in the URL,
// headers and request body are filled from Vars, and capture copies values
// out of a response so later scenarios in the same sequence can use them.
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Match modes for the response body.
const (
	MatchExact  = "exact"
	MatchSubset = "subset"
)

// Scenario is a single REST API test case.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	RequestMethod   string            `json:"requestMethod"`
	RequestURL      string            `json:"requestUrl"`
	RequestFileName string            `json:"requestFileName"`
	RequestBody     json.RawMessage   `json:"requestBody"`
	Headers         map[string]string `json:"headers"`

	ExpectedCode       int             `json:"expectedCode"`
	ExpectedStatusCode int             `json:"expectedStatusCode"` // alias
	ResponseFileName   string          `json:"responseFileName"`
	ResponseBody       json.RawMessage `json:"responseBody"`
	MatchMode          string          `json:"matchMode"`

	// Capture maps a variable name to a dotted path in the response body,
	// e.g. "order._id" or "items.0.name".
	Capture map[string]string `json:"capture"`

	dir string
}

// LoadScenario reads and validates a scenario from a JSON file.
func LoadScenario(path string) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", abs, err)
	}

	s.dir = filepath.Dir(abs)
	return &s, nil
}

// LoadScenarioArray reads an ordered list of scenarios from one file.
func LoadScenarioArray(path string) ([]*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve scenario array path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read scenario array %q: %w", abs, err)
	}

	var scenarios []*Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("testkit: parse scenario array %q: %w", abs, err)
	}

	dir := filepath.Dir(abs)
	for i, s := range scenarios {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("testkit: invalid scenario %d in %q: %w", i, abs, err)
		}
		s.dir = dir
	}
	return scenarios, nil
}

// LoadAllFromDir loads every *.json file in dir as a Scenario.
// Files that fail to parse are collected as errors.
func LoadAllFromDir(dir string) ([]*Scenario, []error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(entries) == 0 {
		return nil, []error{fmt.Errorf("testkit: no scenario files found in %q", dir)}
	}

	var (
		scenarios []*Scenario
		errs      []error
	)
	for _, path := range entries {
		s, err := LoadScenario(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, errs
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.RequestURL == "" {
		return fmt.Errorf("requestUrl is required")
	}
	if s.ExpectedCode == 0 {
		s.ExpectedCode = s.ExpectedStatusCode
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.RequestMethod == "" {
		s.RequestMethod = "GET"
	}
	s.RequestMethod = strings.ToUpper(s.RequestMethod)

	switch s.MatchMode {
	case "":
		s.MatchMode = MatchExact
	case MatchExact, MatchSubset:
	default:
		return fmt.Errorf("matchMode %q is not one of exact, subset", s.MatchMode)
	}
	if len(s.RequestBody) > 0 && s.RequestFileName != "" {
		return fmt.Errorf("requestBody and requestFileName are mutually exclusive")
	}
	if len(s.ResponseBody) > 0 && s.ResponseFileName != "" {
		return fmt.Errorf("responseBody and responseFileName are mutually exclusive")
	}
	return nil
}

// RequestBodyPath returns the request body file resolved against the
// scenario's directory, or "" when none is set.
func (s *Scenario) RequestBodyPath() string {
	return s.resolve(s.RequestFileName)
}

// ResponseBodyPath returns the expected response file resolved against the
// scenario's directory, or "" when none is set.
func (s *Scenario) ResponseBodyPath() string {
	return s.resolve(s.ResponseFileName)
}

func (s *Scenario) resolve(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// requestBytes returns the raw request body, or nil when there is none.
func (s *Scenario) requestBytes() ([]byte, error) {
	if len(s.RequestBody) > 0 {
		return s.RequestBody, nil
	}
	if p := s.RequestBodyPath(); p != "" {
		return os.ReadFile(p)
	}
	return nil, nil
}

// expectedBytes returns the expected response body, or nil when the body
// is not asserted.
func (s *Scenario) expectedBytes() ([]byte, error) {
	if len(s.ResponseBody) > 0 {
		return s.ResponseBody, nil
	}
	if p := s.ResponseBodyPath(); p != "" {
		return os.ReadFile(p)
	}
	return nil, nil
}
