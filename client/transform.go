package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/url"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/adamwoolhether/relay/client/headers"
	"github.com/adamwoolhether/relay/client/internal/deep"
	"github.com/adamwoolhether/relay/client/urls"
)

// transformData threads data through fns in order. The first error stops the
// pipeline and is returned as is.
func transformData(fns []Transformer, data any, h Headers, status int) (any, error) {
	for _, fn := range fns {
		if fn == nil {
			continue
		}

		var err error
		if data, err = fn(data, h, status); err != nil {
			return nil, err
		}
	}

	return data, nil
}

// DefaultTransformRequest serializes plain mappings. The Content-Type header
// decides the encoding: multipart and urlencoded bodies are honored, anything
// else is sent as JSON with a JSON Content-Type set when none is present.
// Strings, byte slices and readers pass through untouched.
func DefaultTransformRequest(data any, h Headers, _ int) (any, error) {
	headers.Normalize(h, "Content-Type")

	switch v := data.(type) {
	case nil, string, []byte, io.Reader:
		return data, nil
	case url.Values:
		if ct, _ := headers.Get(map[string]any(h), "Content-Type"); strings.HasPrefix(ct, ContentTypeMultipart) {
			body, ct, err := encodeMultipart(v)
			if err != nil {
				return nil, err
			}
			h["Content-Type"] = ct
			return body, nil
		}
		setIfAbsent(h, "Content-Type", ContentTypeForm)
		return v.Encode(), nil
	}

	if !isPlainMapping(data) {
		return data, nil
	}

	contentType, _ := headers.Get(map[string]any(h), "Content-Type")
	switch {
	case strings.HasPrefix(contentType, ContentTypeMultipart):
		body, ct, err := encodeMultipart(data)
		if err != nil {
			return nil, err
		}
		h["Content-Type"] = ct
		return body, nil

	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		m, err := toMap(data)
		if err != nil {
			return nil, err
		}
		return urls.Serialize(m), nil
	}

	setIfAbsent(h, "Content-Type", ContentTypeJSON)

	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding request data: %w", err)
	}

	return string(b), nil
}

// DefaultTransformResponse decodes string payloads as JSON and returns the
// string unchanged when it is not valid JSON.
func DefaultTransformResponse(data any, _ Headers, _ int) (any, error) {
	s, ok := data.(string)
	if !ok || s == "" {
		return data, nil
	}

	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s, nil
	}

	return v, nil
}

func setIfAbsent(h Headers, name, value string) {
	if h == nil {
		return
	}
	if _, ok := headers.Get(map[string]any(h), name); !ok {
		h[name] = value
	}
}

// isPlainMapping reports whether v is a string-keyed map or a struct other
// than a time.
func isPlainMapping(v any) bool {
	if _, ok := v.(time.Time); ok {
		return false
	}

	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Map:
		return rv.Type().Key().Kind() == reflect.String
	case reflect.Struct:
		return true
	}

	return false
}

func toMap(data any) (map[string]any, error) {
	if m, ok := deep.AsMap(data); ok {
		return m, nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding request data: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decoding request data: %w", err)
	}

	return m, nil
}

func encodeMultipart(data any) (*bytes.Buffer, string, error) {
	var m map[string]any
	if vals, ok := data.(url.Values); ok {
		m = make(map[string]any, len(vals))
		for k, v := range vals {
			m[k] = v
		}
	} else {
		var err error
		if m, err = toMap(data); err != nil {
			return nil, "", err
		}
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	for _, key := range slices.Sorted(maps.Keys(m)) {
		switch v := m[key].(type) {
		case nil:
			continue
		case []string:
			for _, s := range v {
				if err := w.WriteField(key, s); err != nil {
					return nil, "", fmt.Errorf("writing form field %q: %w", key, err)
				}
			}
		case []byte:
			fw, err := w.CreateFormFile(key, key)
			if err != nil {
				return nil, "", fmt.Errorf("creating form file %q: %w", key, err)
			}
			if _, err := fw.Write(v); err != nil {
				return nil, "", fmt.Errorf("writing form file %q: %w", key, err)
			}
		case io.Reader:
			fw, err := w.CreateFormFile(key, key)
			if err != nil {
				return nil, "", fmt.Errorf("creating form file %q: %w", key, err)
			}
			if _, err := io.Copy(fw, v); err != nil {
				return nil, "", fmt.Errorf("writing form file %q: %w", key, err)
			}
		case string:
			if err := w.WriteField(key, v); err != nil {
				return nil, "", fmt.Errorf("writing form field %q: %w", key, err)
			}
		default:
			s := fmt.Sprint(v)
			if isPlainMapping(v) {
				b, err := json.Marshal(v)
				if err != nil {
					return nil, "", fmt.Errorf("encoding form field %q: %w", key, err)
				}
				s = string(b)
			}
			if err := w.WriteField(key, s); err != nil {
				return nil, "", fmt.Errorf("writing form field %q: %w", key, err)
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}

	return &body, w.FormDataContentType(), nil
}
