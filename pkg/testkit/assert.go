package testkit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode checks the response code with testify.
func AssertStatusCode(t *testing.T, scenario *Scenario, got int) {
	t.Helper()
	assert.Equal(t, scenario.ExpectedCode, got,
		"[%s] HTTP status code mismatch", scenario.Name)
}

// AssertJSONBody deep-compares the actual response against expected after
// decoding both, so key order and whitespace never matter.
func AssertJSONBody(t *testing.T, scenario *Scenario, expected, actual []byte) {
	t.Helper()
	if len(expected) == 0 {
		return
	}

	expVal, actVal, ok := decodePair(t, scenario, expected, actual)
	if !ok {
		return
	}

	assert.Equal(t, expVal, actVal,
		"[%s] response body mismatch", scenario.Name)
}

// AssertJSONSubset checks that every key present in expected appears in
// actual with an equal value. Extra keys in actual objects are ignored;
// arrays must have the same length.
func AssertJSONSubset(t *testing.T, scenario *Scenario, expected, actual []byte) {
	t.Helper()
	if len(expected) == 0 {
		return
	}

	expVal, actVal, ok := decodePair(t, scenario, expected, actual)
	if !ok {
		return
	}

	if diffs := DiffJSON("", expVal, actVal); len(diffs) > 0 {
		assert.Fail(t, fmt.Sprintf("[%s] response body mismatch", scenario.Name),
			"%s\nbody: %s", strings.Join(diffs, "\n"), string(actual))
	}
}

func decodePair(t *testing.T, scenario *Scenario, expected, actual []byte) (interface{}, interface{}, bool) {
	t.Helper()

	var expVal, actVal interface{}
	require.NoError(t,
		json.Unmarshal(expected, &expVal),
		"[%s] expected response is not valid JSON", scenario.Name,
	)

	if !assert.NoError(t,
		json.Unmarshal(actual, &actVal),
		"[%s] actual response is not valid JSON\nbody: %s", scenario.Name, string(actual),
	) {
		return nil, nil, false
	}
	return expVal, actVal, true
}

// DiffJSON lists the differences between two decoded JSON values. Only keys
// present in expected objects are compared.
func DiffJSON(path string, expected, actual interface{}) []string {
	var diffs []string
	switch exp := expected.(type) {
	case map[string]interface{}:
		act, ok := actual.(map[string]interface{})
		if !ok {
			return append(diffs, fmt.Sprintf("  %s: expected object, got %T", keyPath(path), actual))
		}
		for k, ev := range exp {
			p := keyPath(path) + "." + k
			av, exists := act[k]
			if !exists {
				diffs = append(diffs, fmt.Sprintf("  %s: missing in actual", p))
				continue
			}
			diffs = append(diffs, DiffJSON(p, ev, av)...)
		}
	case []interface{}:
		act, ok := actual.([]interface{})
		if !ok {
			return append(diffs, fmt.Sprintf("  %s: expected array, got %T", keyPath(path), actual))
		}
		if len(exp) != len(act) {
			diffs = append(diffs, fmt.Sprintf("  %s: array length expected=%d actual=%d", keyPath(path), len(exp), len(act)))
		}
		for i := 0; i < len(exp) && i < len(act); i++ {
			diffs = append(diffs, DiffJSON(fmt.Sprintf("%s[%d]", keyPath(path), i), exp[i], act[i])...)
		}
	case nil:
		if actual != nil {
			diffs = append(diffs, fmt.Sprintf("  %s:\n    - null\n    + %v", keyPath(path), actual))
		}
	default:
		if actual == nil || fmt.Sprintf("%v", expected) != fmt.Sprintf("%v", actual) {
			diffs = append(diffs, fmt.Sprintf("  %s:\n    - %v\n    + %v", keyPath(path), expected, actual))
		}
	}
	return diffs
}

// Lookup returns the value at a dotted path in a JSON document as a string.
// Numeric segments index into arrays.
func Lookup(body []byte, path string) (string, error) {
	var cur interface{}
	if err := json.Unmarshal(body, &cur); err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}

	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[seg]
			if !ok {
				return "", fmt.Errorf("%s: key %q not found", path, seg)
			}
			cur = v
		case []interface{}:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return "", fmt.Errorf("%s: bad index %q", path, seg)
			}
			cur = node[i]
		default:
			return "", fmt.Errorf("%s: cannot descend into %T at %q", path, cur, seg)
		}
	}

	switch v := cur.(type) {
	case string:
		return v, nil
	case nil:
		return "", fmt.Errorf("%s: value is null", path)
	case map[string]interface{}, []interface{}:
		b, _ := json.Marshal(v)
		return string(b), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func keyPath(path string) string {
	if path == "" {
		return "root"
	}
	return strings.TrimPrefix(path, ".")
}
