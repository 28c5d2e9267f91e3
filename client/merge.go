package client

import (
	"net/http"
	"reflect"
	"time"

	"github.com/adamwoolhether/relay/client/internal/deep"
)

type strategy int

const (
	// strategyDefault takes the override when it is set, else the base.
	strategyDefault strategy = iota
	// strategyOverride only ever takes the override.
	strategyOverride
	// strategyDeep merges mappings recursively onto a copy of the base.
	strategyDeep
)

var strategies = map[string]strategy{
	"url":     strategyOverride,
	"params":  strategyOverride,
	"data":    strategyOverride,
	"headers": strategyDeep,
	"auth":    strategyDeep,
}

// field binds a config key to accessors so every key can be merged through
// the same strategy lookup.
type field struct {
	key string
	get func(*Config) any
	set func(*Config, any)
}

var fields = []field{
	{"method", func(c *Config) any { return c.Method }, func(c *Config, v any) { c.Method, _ = v.(string) }},
	{"url", func(c *Config) any { return c.URL }, func(c *Config, v any) { c.URL, _ = v.(string) }},
	{"baseURL", func(c *Config) any { return c.BaseURL }, func(c *Config, v any) { c.BaseURL, _ = v.(string) }},
	{"params", func(c *Config) any { return c.Params }, func(c *Config, v any) { c.Params, _ = v.(map[string]any) }},
	{"paramsSerializer", func(c *Config) any { return c.ParamsSerializer }, func(c *Config, v any) { c.ParamsSerializer, _ = v.(func(map[string]any) string) }},
	{"headers", func(c *Config) any { return map[string]any(c.Headers) }, func(c *Config, v any) {
		if m, ok := v.(map[string]any); ok {
			c.Headers = Headers(m)
		}
	}},
	{"data", func(c *Config) any { return c.Data }, func(c *Config, v any) { c.Data = v }},
	{"timeout", func(c *Config) any { return c.Timeout }, func(c *Config, v any) { c.Timeout, _ = v.(time.Duration) }},
	{"adapter", func(c *Config) any { return c.Adapter }, func(c *Config, v any) { c.Adapter, _ = v.([]AdapterRef) }},
	{"transformRequest", func(c *Config) any { return c.TransformRequest }, func(c *Config, v any) { c.TransformRequest, _ = v.([]Transformer) }},
	{"transformResponse", func(c *Config) any { return c.TransformResponse }, func(c *Config, v any) { c.TransformResponse, _ = v.([]Transformer) }},
	{"cancelToken", func(c *Config) any { return c.CancelToken }, func(c *Config, v any) { c.CancelToken, _ = v.(*Token) }},
	{"auth", func(c *Config) any { return authToMap(c.Auth) }, func(c *Config, v any) { c.Auth = authFromMap(v) }},
	{"validateStatus", func(c *Config) any { return c.ValidateStatus }, func(c *Config, v any) { c.ValidateStatus, _ = v.(func(int) bool) }},
	{"responseType", func(c *Config) any { return c.ResponseType }, func(c *Config, v any) { c.ResponseType, _ = v.(ResponseType) }},
	{"maxRedirects", func(c *Config) any { return c.MaxRedirects }, func(c *Config, v any) { c.MaxRedirects, _ = v.(int) }},
	{"maxContentLength", func(c *Config) any { return c.MaxContentLength }, func(c *Config, v any) { c.MaxContentLength, _ = v.(int64) }},
	{"transport", func(c *Config) any { return c.Transport }, func(c *Config, v any) { c.Transport, _ = v.(http.RoundTripper) }},
	{"jar", func(c *Config) any { return c.Jar }, func(c *Config, v any) { c.Jar, _ = v.(http.CookieJar) }},
	{"onUploadProgress", func(c *Config) any { return c.OnUploadProgress }, func(c *Config, v any) { c.OnUploadProgress, _ = v.(func(ProgressEvent)) }},
	{"onDownloadProgress", func(c *Config) any { return c.OnDownloadProgress }, func(c *Config, v any) { c.OnDownloadProgress, _ = v.(func(ProgressEvent)) }},
}

// Merge combines base with override into a new Config, key by key. url,
// params and data are never inherited from base. headers and auth are merged
// recursively. Every other key takes the override when set, else the base.
// Neither argument is modified.
func Merge(base, override *Config) *Config {
	if base == nil {
		base = &Config{}
	}
	if override == nil {
		override = &Config{}
	}

	out := &Config{}
	for _, f := range fields {
		b, o := f.get(base), f.get(override)

		var v any
		switch strategies[f.key] {
		case strategyOverride:
			if defined(o) {
				v = o
			}
		case strategyDeep:
			v = mergeDeep(b, o)
		default:
			v = b
			if defined(o) {
				v = o
			}
		}

		if defined(v) {
			f.set(out, v)
		}
	}

	out.Extra = mergeExtra(base.Extra, override.Extra)

	return out
}

func mergeDeep(base, override any) any {
	if m, ok := deep.AsMap(override); ok {
		b, _ := deep.AsMap(base)
		return deep.Merge(b, m)
	}
	if defined(override) {
		return override
	}
	if m, ok := deep.AsMap(base); ok {
		return deep.Clone(m)
	}

	return base
}

func mergeExtra(base, override map[string]any) map[string]any {
	if base == nil && override == nil {
		return nil
	}

	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if defined(v) {
			out[k] = v
		}
	}
	for k, v := range out {
		if m, ok := deep.AsMap(v); ok {
			out[k] = deep.Clone(m)
		}
	}

	return out
}

// defined reports whether v carries a non-zero value.
func defined(v any) bool {
	if v == nil {
		return false
	}

	return !reflect.ValueOf(v).IsZero()
}

func authToMap(a *BasicAuth) any {
	if a == nil {
		return nil
	}

	m := make(map[string]any, 2)
	if a.Username != "" {
		m["username"] = a.Username
	}
	if a.Password != "" {
		m["password"] = a.Password
	}

	return m
}

func authFromMap(v any) *BasicAuth {
	switch a := v.(type) {
	case *BasicAuth:
		return a
	case map[string]any:
		out := &BasicAuth{}
		out.Username, _ = a["username"].(string)
		out.Password, _ = a["password"].(string)
		return out
	}

	return nil
}
