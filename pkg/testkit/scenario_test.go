package testkit_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/testkit"
)

var testHandler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/health":
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	case "/echo":
		var body interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]interface{}{"echo": body, "method": r.Method}) //nolint:errcheck
	case "/login":
		w.Write([]byte(`{"token":"t-1","user":{"id":"u-7"}}`)) //nolint:errcheck
	case "/users/u-7":
		if r.Header.Get("Authorization") != "Bearer t-1" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"kind":"unauthorized","message":"Authentication required"}`)) //nolint:errcheck
			return
		}
		w.Write([]byte(`{"id":"u-7","name":"Ada"}`)) //nolint:errcheck
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"kind":"not_found","message":"Route not found"}`)) //nolint:errcheck
	}
})

func TestRunDir(t *testing.T) {
	testkit.RunDir(t, testHandler, "testdata")
}

func TestLoadScenarioDefaults(t *testing.T) {
	s, err := testkit.LoadScenario("testdata/echo.json")
	require.NoError(t, err)

	assert.Equal(t, "POST", s.RequestMethod)
	assert.Equal(t, 200, s.ExpectedCode)
	assert.Equal(t, testkit.MatchSubset, s.MatchMode)

	h, err := testkit.LoadScenario("testdata/health.json")
	require.NoError(t, err)
	assert.Equal(t, testkit.MatchExact, h.MatchMode)
	assert.Equal(t, filepath.Join(filepath.Dir(mustAbs(t, "testdata/health.json")), "bodies", "health_res.json"), h.ResponseBodyPath())
	assert.Empty(t, h.RequestBodyPath())
}

func TestLoadScenarioRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"no_name.json":  `{"requestUrl":"/x","expectedCode":200}`,
		"no_url.json":   `{"name":"x","expectedCode":200}`,
		"no_code.json":  `{"name":"x","requestUrl":"/x"}`,
		"bad_mode.json": `{"name":"x","requestUrl":"/x","expectedCode":200,"matchMode":"fuzzy"}`,
		"both.json":     `{"name":"x","requestUrl":"/x","expectedCode":200,"requestBody":{},"requestFileName":"r.json"}`,
	}
	for file, content := range cases {
		path := filepath.Join(dir, file)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		_, err := testkit.LoadScenario(path)
		assert.Error(t, err, file)
	}
}

func TestRunSequenceCapturesValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow.json")
	flow := `[
	  {"name":"login","requestMethod":"POST","requestUrl":"/login","expectedCode":200,
	   "capture":{"token":"token","userId":"user.id"}},
	  {"name":"profile","requestUrl":"/users/{{userId}}","expectedCode":200,
	   "headers":{"Authorization":"Bearer {{token}}"},
	   "responseBody":{"id":"{{userId}}","name":"Ada"}},
	  {"name":"echo placeholder","requestMethod":"PUT","requestUrl":"/echo","expectedCode":200,
	   "requestBody":{"owner":"{{userId}}"},
	   "responseBody":{"echo":{"owner":"u-7"}},"matchMode":"subset"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(flow), 0o600))

	vars := testkit.RunSequence(t, testHandler, path, nil)

	assert.Equal(t, "t-1", vars["token"])
	assert.Equal(t, "u-7", vars["userId"])
}

func TestExecWithoutToken(t *testing.T) {
	s := &testkit.Scenario{
		Name:          "missing token",
		RequestMethod: http.MethodGet,
		RequestURL:    "/users/u-7",
		ExpectedCode:  http.StatusUnauthorized,
		ResponseBody:  json.RawMessage(`{"kind":"unauthorized"}`),
		MatchMode:     testkit.MatchSubset,
	}

	rec := testkit.Exec(t, testHandler, s, nil)
	assert.Contains(t, rec.Body.String(), "Authentication required")
}

func TestDiffJSON(t *testing.T) {
	var exp, act interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"a":1,"b":{"c":[1,2]},"d":null}`), &exp))
	require.NoError(t, json.Unmarshal([]byte(`{"a":1,"b":{"c":[1,3]},"d":"x","e":true}`), &act))

	diffs := testkit.DiffJSON("", exp, act)
	require.Len(t, diffs, 2)
	joined := diffs[0] + diffs[1]
	assert.Contains(t, joined, "b.c[1]")
	assert.Contains(t, joined, "d")
}

func TestLookup(t *testing.T) {
	body := []byte(`{"order":{"_id":"abc","items":[{"quantity":2}],"total":20.5}}`)

	v, err := testkit.Lookup(body, "order._id")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	v, err = testkit.Lookup(body, "order.items.0.quantity")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	v, err = testkit.Lookup(body, "order.total")
	require.NoError(t, err)
	assert.Equal(t, "20.5", v)

	_, err = testkit.Lookup(body, "order.missing")
	assert.Error(t, err)
	_, err = testkit.Lookup(body, "order.items.9")
	assert.Error(t, err)
}

func TestVarsExpand(t *testing.T) {
	v := testkit.Vars{"id": "42", "token": "abc"}
	assert.Equal(t, "/orders/42?t=abc", v.Expand("/orders/{{id}}?t={{token}}"))
	assert.Equal(t, "/orders/{{other}}", v.Expand("/orders/{{other}}"))

	var empty testkit.Vars
	assert.Equal(t, "/x/{{id}}", empty.Expand("/x/{{id}}"))
}

func TestDumpScenario(t *testing.T) {
	s, err := testkit.LoadScenario("testdata/health.json")
	require.NoError(t, err)

	var buf bytes.Buffer
	testkit.DumpScenario(&buf, s)
	assert.Contains(t, buf.String(), "GET /health -> 200 (exact)")
}

func mustAbs(t *testing.T, p string) string {
	t.Helper()
	abs, err := filepath.Abs(p)
	require.NoError(t, err)
	return abs
}
