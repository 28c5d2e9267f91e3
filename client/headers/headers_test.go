package headers

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFlatten(t *testing.T) {
	h := map[string]any{
		"common":   map[string]any{"Accept": "application/json", "X-Common": "1"},
		"post":     map[string]any{"Content-Type": "application/x-www-form-urlencoded"},
		"get":      map[string]any{"X-Get": "1"},
		"X-Common": "override",
	}

	got := Flatten(h, http.MethodPost)

	exp := map[string]any{
		"Accept":       "application/json",
		"X-Common":     "override",
		"Content-Type": "application/x-www-form-urlencoded",
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("flatten mismatch (-exp +got):\n%s", diff)
	}

	if _, ok := h["common"]; !ok {
		t.Errorf("input must not be modified")
	}
}

func TestFlatten_Nil(t *testing.T) {
	got := Flatten(nil, http.MethodGet)
	if got == nil || len(got) != 0 {
		t.Errorf("exp empty map, got %v", got)
	}
}

func TestNormalize(t *testing.T) {
	h := map[string]any{"content-type": "text/plain", "accept": "x"}
	Normalize(h, "Content-Type")

	exp := map[string]any{"Content-Type": "text/plain", "accept": "x"}
	if diff := cmp.Diff(exp, h); diff != "" {
		t.Errorf("normalize mismatch (-exp +got):\n%s", diff)
	}
}

func TestGetDelete(t *testing.T) {
	h := map[string]any{"x-token": "abc", "X-Count": 3}

	if v, ok := Get(h, "X-Token"); !ok || v != "abc" {
		t.Errorf("exp abc, got %q %v", v, ok)
	}
	if v, ok := Get(h, "x-count"); !ok || v != "3" {
		t.Errorf("exp 3, got %q %v", v, ok)
	}

	Delete(h, "X-TOKEN")
	if _, ok := Get(h, "x-token"); ok {
		t.Errorf("exp x-token removed")
	}
}

func TestToHTTP(t *testing.T) {
	h := map[string]any{
		"Accept":   "application/json",
		"X-Multi":  []string{"a", "b"},
		"X-Num":    42,
		"X-Nil":    nil,
		"leftover": map[string]any{"x": "y"},
	}

	got := ToHTTP(h)

	exp := http.Header{
		"Accept":  {"application/json"},
		"X-Multi": {"a", "b"},
		"X-Num":   {"42"},
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("header mismatch (-exp +got):\n%s", diff)
	}
}

func TestParse(t *testing.T) {
	raw := "Date: Wed, 27 Aug 2014 08:58:49 GMT\r\n" +
		"Content-Type: application/json\r\n" +
		"Content-Type: text/html\r\n" +
		"Connection: keep-alive\r\n" +
		"Transfer-Encoding: chunked\r\n" +
		"Set-Cookie: a=1\r\n" +
		"Set-Cookie: b=2\r\n" +
		"X-Dup: one\r\n" +
		"X-Dup: two\r\n" +
		"\r\n"

	got := Parse(raw)

	exp := http.Header{
		"Date":              {"Wed, 27 Aug 2014 08:58:49 GMT"},
		"Content-Type":      {"application/json"},
		"Connection":        {"keep-alive"},
		"Transfer-Encoding": {"chunked"},
		"Set-Cookie":        {"a=1", "b=2"},
		"X-Dup":             {"one, two"},
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("parse mismatch (-exp +got):\n%s", diff)
	}
}
