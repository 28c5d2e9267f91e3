// Package headers shapes request header maps before they reach a transport
// and parses raw response header blocks.
package headers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/adamwoolhether/relay/client/internal/deep"
)

// Blocks are the method-scoped keys a header map may carry next to plain
// header values.
var Blocks = []string{"delete", "get", "head", "options", "post", "put", "patch", "common"}

// Flatten merges the "common" block, then the block named by method, then
// the top-level values, and drops every method-scoped block from the result.
// h is not modified.
func Flatten(h map[string]any, method string) map[string]any {
	if h == nil {
		return map[string]any{}
	}

	common, _ := deep.AsMap(h["common"])
	scoped, _ := deep.AsMap(h[strings.ToLower(method)])

	out := deep.Merge(common, scoped, h)
	for _, b := range Blocks {
		delete(out, b)
	}

	return out
}

// Normalize renames any key that matches name case-insensitively to name.
func Normalize(h map[string]any, name string) {
	for k, v := range h {
		if k != name && strings.EqualFold(k, name) {
			h[name] = v
			delete(h, k)
		}
	}
}

// Get looks name up case-insensitively and returns its value as a string.
func Get(h map[string]any, name string) (string, bool) {
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return value(v)
		}
	}

	return "", false
}

// Delete removes every key matching name case-insensitively.
func Delete(h map[string]any, name string) {
	for k := range h {
		if strings.EqualFold(k, name) {
			delete(h, k)
		}
	}
}

// ToHTTP converts a flattened header map into an http.Header. Nil values and
// leftover nested blocks are skipped.
func ToHTTP(h map[string]any) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		switch val := v.(type) {
		case nil:
		case []string:
			for _, s := range val {
				out.Add(k, s)
			}
		default:
			if _, ok := deep.AsMap(v); ok {
				continue
			}
			if s, ok := value(v); ok {
				out.Set(k, s)
			}
		}
	}

	return out
}

func value(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case []string:
		return strings.Join(val, ", "), true
	}

	return fmt.Sprint(v), true
}

// ignoreDuplicateOf lists headers whose repeated occurrences are dropped.
var ignoreDuplicateOf = map[string]bool{
	"age":                 true,
	"authorization":       true,
	"content-length":      true,
	"content-type":        true,
	"etag":                true,
	"expires":             true,
	"from":                true,
	"host":                true,
	"if-modified-since":   true,
	"if-unmodified-since": true,
	"last-modified":       true,
	"location":            true,
	"max-forwards":        true,
	"proxy-authorization": true,
	"referer":             true,
	"retry-after":         true,
	"user-agent":          true,
}

// Parse reads a raw "Name: value" block, one header per line. Set-Cookie
// values accumulate, singleton headers keep their first value and all others
// are joined with ", ".
func Parse(raw string) http.Header {
	out := make(http.Header)

	for line := range strings.SplitSeq(raw, "\n") {
		key, val, _ := strings.Cut(line, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		val = strings.TrimSpace(val)

		existing := out.Get(key)
		_, seen := out[http.CanonicalHeaderKey(key)]

		switch {
		case seen && ignoreDuplicateOf[key]:
		case key == "set-cookie":
			out.Add(key, val)
		case seen:
			out.Set(key, existing+", "+val)
		default:
			out.Set(key, val)
		}
	}

	return out
}
