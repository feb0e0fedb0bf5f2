package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

// Vars holds placeholder values shared across the scenarios of a sequence.
type Vars map[string]string

// Expand replaces every {{name}} in s with its value.
func (v Vars) Expand(s string) string {
	if len(v) == 0 || !strings.Contains(s, "{{") {
		return s
	}
	pairs := make([]string, 0, len(v)*2)
	for k, val := range v {
		pairs = append(pairs, "{{"+k+"}}", val)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// Run executes a single scenario file against handler as a subtest.
func Run(t *testing.T, handler http.Handler, scenarioPath string) {
	t.Helper()

	s, err := LoadScenario(scenarioPath)
	if err != nil {
		t.Fatalf("testkit: load scenario %q: %v", scenarioPath, err)
	}

	t.Run(s.Name, func(t *testing.T) {
		Exec(t, handler, s, nil)
	})
}

// RunDir runs every *.json scenario file in dir as an independent subtest.
func RunDir(t *testing.T, handler http.Handler, dir string) {
	t.Helper()

	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(entries) == 0 {
		t.Fatalf("testkit: no scenario files found in %q", dir)
	}

	for _, path := range entries {
		s, err := LoadScenario(path)
		if err != nil {
			t.Errorf("testkit: load %q: %v", path, err)
			continue
		}

		t.Run(s.Name, func(t *testing.T) {
			Exec(t, handler, s, nil)
		})
	}
}

// RunSequence runs the scenarios of an array file in order. Values captured
// by one scenario are visible to every scenario after it. The final Vars
// are returned so the caller can make further assertions.
func RunSequence(t *testing.T, handler http.Handler, path string, vars Vars) Vars {
	t.Helper()

	scenarios, err := LoadScenarioArray(path)
	if err != nil {
		t.Fatalf("testkit: %v", err)
	}
	if vars == nil {
		vars = Vars{}
	}

	for _, s := range scenarios {
		ok := t.Run(s.Name, func(t *testing.T) {
			Exec(t, handler, s, vars)
		})
		if !ok {
			// Later steps depend on this one.
			t.FailNow()
		}
	}
	return vars
}

// Exec fires s against handler, asserts the outcome and stores captured
// values in vars. It returns the recorded response.
func Exec(t *testing.T, handler http.Handler, s *Scenario, vars Vars) *httptest.ResponseRecorder {
	t.Helper()

	body, err := s.requestBytes()
	if err != nil {
		t.Fatalf("[%s] read request body: %v", s.Name, err)
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = strings.NewReader(vars.Expand(string(body)))
	}

	req := httptest.NewRequest(s.RequestMethod, vars.Expand(s.RequestURL), reqBody)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range s.Headers {
		req.Header.Set(k, vars.Expand(v))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	AssertStatusCode(t, s, rec.Code)

	expected, err := s.expectedBytes()
	if err != nil {
		t.Errorf("[%s] read expected body: %v", s.Name, err)
	} else if expected != nil {
		expected = []byte(vars.Expand(string(expected)))
		if s.MatchMode == MatchSubset {
			AssertJSONSubset(t, s, expected, rec.Body.Bytes())
		} else {
			AssertJSONBody(t, s, expected, rec.Body.Bytes())
		}
	}

	for name, path := range s.Capture {
		v, err := Lookup(rec.Body.Bytes(), path)
		if err != nil {
			t.Errorf("[%s] capture %s: %v", s.Name, name, err)
			continue
		}
		if vars != nil {
			vars[name] = v
		}
	}

	return rec
}

// DumpScenario writes a short summary of s to w.
func DumpScenario(w io.Writer, s *Scenario) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Scenario: %s\n", s.Name)
	fmt.Fprintf(&buf, "  %s %s -> %d (%s)\n", s.RequestMethod, s.RequestURL, s.ExpectedCode, s.MatchMode)
	if s.RequestFileName != "" {
		fmt.Fprintf(&buf, "  requestFile:  %s\n", s.RequestFileName)
	}
	if s.ResponseFileName != "" {
		fmt.Fprintf(&buf, "  responseFile: %s\n", s.ResponseFileName)
	}
	for name, path := range s.Capture {
		fmt.Fprintf(&buf, "  capture: %s <- %s\n", name, path)
	}
	_, _ = w.Write(buf.Bytes())
}
