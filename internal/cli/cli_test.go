package cli_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adamwoolhether/relay/client"
	"github.com/adamwoolhether/relay/internal/cli"
	"github.com/adamwoolhether/relay/internal/config"
	"github.com/google/go-cmp/cmp"
)

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := cli.NewRootCmd(cfg)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)

	err := cmd.ExecuteContext(t.Context())

	return out.String(), err
}

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"not found"}`)
			return
		}

		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
			"query":  r.URL.RawQuery,
			"header": r.Header.Get("X-Test"),
			"agent":  r.Header.Get("User-Agent"),
			"body":   string(body),
		})
	}))
	t.Cleanup(ts.Close)

	return ts
}

func decode(t *testing.T, out string) map[string]any {
	t.Helper()

	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding output %q: %v", out, err)
	}

	return got
}

func TestRequest(t *testing.T) {
	ts := echoServer(t)

	testCases := []struct {
		name string
		args []string
		exp  map[string]any
	}{
		{
			name: "get",
			args: []string{"get", "/users", "-q", "page=2", "-H", "X-Test: yes"},
			exp:  map[string]any{"method": "GET", "path": "/users", "query": "page=2", "header": "yes", "agent": "relay-test", "body": ""},
		},
		{
			name: "post json",
			args: []string{"request", "-X", "post", "/users", "--json", "-d", `{"name":"alice"}`},
			exp:  map[string]any{"method": "POST", "path": "/users", "query": "", "header": "", "agent": "relay-test", "body": `{"name":"alice"}`},
		},
		{
			name: "raw body",
			args: []string{"request", "-X", "PUT", "/raw", "-d", "plain"},
			exp:  map[string]any{"method": "PUT", "path": "/raw", "query": "", "header": "", "agent": "relay-test", "body": "plain"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{BaseURL: ts.URL, UserAgent: "relay-test"}

			out, err := run(t, cfg, tc.args...)
			if err != nil {
				t.Fatalf("exp nil err, got %v", err)
			}

			if diff := cmp.Diff(tc.exp, decode(t, out)); diff != "" {
				t.Errorf("response mismatch (-exp +got):\n%s", diff)
			}
		})
	}
}

func TestRequest_Include(t *testing.T) {
	ts := echoServer(t)

	out, err := run(t, &config.Config{}, "get", "-i", ts.URL+"/x")
	if err != nil {
		t.Fatalf("exp nil err, got %v", err)
	}

	if !strings.HasPrefix(out, "200 OK\n") {
		t.Errorf("exp status line first, got %q", out)
	}
	if !strings.Contains(out, "Content-Type: application/json") {
		t.Errorf("exp response headers, got %q", out)
	}
}

func TestRequest_ErrorStatus(t *testing.T) {
	ts := echoServer(t)

	out, err := run(t, &config.Config{}, "--adapter", "http", "get", ts.URL+"/missing")

	e, ok := errors.AsType[*client.Error](err)
	if !ok {
		t.Fatalf("exp *client.Error, got %v", err)
	}
	if e.Status() != http.StatusNotFound {
		t.Errorf("exp 404, got %d", e.Status())
	}
	if diff := cmp.Diff(map[string]any{"error": "not found"}, decode(t, out)); diff != "" {
		t.Errorf("exp the error body printed (-exp +got):\n%s", diff)
	}

	out, _ = run(t, &config.Config{}, "get", "--fail", ts.URL+"/missing")
	if out != "" {
		t.Errorf("exp no output with --fail, got %q", out)
	}
}

func TestRequest_InvalidFlags(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "header", args: []string{"get", "http://example.com", "-H", "no-colon"}},
		{name: "query", args: []string{"get", "http://example.com", "-q", "novalue"}},
		{name: "json", args: []string{"request", "http://example.com", "--json", "-d", "{"}},
		{name: "args", args: []string{"get"}},
		{name: "adapter", args: []string{"--adapter", "carrier-pigeon", "get", "http://example.com"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := run(t, &config.Config{}, tc.args...); err == nil {
				t.Error("exp error")
			}
		})
	}
}

func TestDownload(t *testing.T) {
	content := []byte("downloaded by the cli")
	h := sha256.Sum256(content)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "sub", "file.txt")

	out, err := run(t, &config.Config{}, "download", "-p", "--sha256", hex.EncodeToString(h[:]), ts.URL, dest)
	if err != nil {
		t.Fatalf("exp nil err, got %v", err)
	}
	if strings.TrimSpace(out) != dest {
		t.Errorf("exp destination printed, got %q", out)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(content, got) {
		t.Errorf("exp %q, got %q", content, got)
	}
}
