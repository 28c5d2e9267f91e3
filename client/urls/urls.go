// Package urls builds request targets from a base URL, a request path and
// query parameters.
package urls

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"time"
)

var absolute = regexp.MustCompile(`(?i)^([a-z][a-z\d+\-.]*:)?//`)

// IsAbsolute reports whether u carries a scheme or is protocol-relative.
func IsAbsolute(u string) bool {
	return absolute.MatchString(u)
}

// Combine joins base and rel with exactly one slash between them.
// An empty rel yields base unchanged.
func Combine(base, rel string) string {
	if rel == "" {
		return base
	}

	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(rel, "/")
}

// FullPath prefixes requested with base unless requested is already absolute.
func FullPath(base, requested string) string {
	if base != "" && !IsAbsolute(requested) {
		return Combine(base, requested)
	}

	return requested
}

// Build appends the serialized params to rawURL. A non-nil serializer
// replaces the default encoding. Any fragment is dropped once params are
// appended.
func Build(rawURL string, params map[string]any, serializer func(map[string]any) string) string {
	if len(params) == 0 {
		return rawURL
	}

	var query string
	if serializer != nil {
		query = serializer(params)
	} else {
		query = Serialize(params)
	}

	if query == "" {
		return rawURL
	}

	if i := strings.IndexByte(rawURL, '#'); i != -1 {
		rawURL = rawURL[:i]
	}

	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}

	return rawURL + sep + query
}

// Serialize encodes params as a query string. Keys are emitted in sorted
// order. Nil values are skipped, slice values repeat the key with a "[]"
// suffix, times are written in ISO-8601 UTC and nested mappings as JSON.
func Serialize(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var parts []string
	for _, key := range keys {
		val := params[key]
		if isNil(val) {
			continue
		}

		values := []any{val}
		if list, ok := asList(val); ok {
			values = list
			key += "[]"
		}

		for _, v := range values {
			if isNil(v) {
				continue
			}
			parts = append(parts, encode(key)+"="+encode(stringify(v)))
		}
	}

	return strings.Join(parts, "&")
}

var unescape = strings.NewReplacer(
	"%40", "@",
	"%3A", ":",
	"%24", "$",
	"%2C", ",",
	"%5B", "[",
	"%5D", "]",
)

func encode(s string) string {
	return unescape.Replace(url.QueryEscape(s))
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case time.Time:
		return val.UTC().Format("2006-01-02T15:04:05.000Z")
	case fmt.Stringer:
		return val.String()
	}

	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Map, reflect.Struct:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}

	return fmt.Sprint(v)
}

func asList(v any) ([]any, bool) {
	if _, ok := v.([]byte); ok {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}

	return out, true
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}

	return false
}
