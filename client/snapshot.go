package client

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

const snapshotDepth = 10

var marshalerType = reflect.TypeFor[json.Marshaler]()

// Snapshot converts v into plain maps, slices and scalars suitable for JSON
// encoding. Values that reference one of their ancestors, functions, channels
// and anything nested deeper than ten levels are dropped. Values that
// implement json.Marshaler are kept as is.
func Snapshot(v any) any {
	out, _ := snapshot(reflect.ValueOf(v), 0, nil)
	return out
}

func snapshot(v reflect.Value, depth int, seen []uintptr) (any, bool) {
	if !v.IsValid() {
		return nil, false
	}

	if v.Type().Implements(marshalerType) && v.CanInterface() {
		if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil() {
			return nil, false
		}
		return v.Interface(), true
	}

	switch v.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil, false

	case reflect.Interface:
		if v.IsNil() {
			return nil, false
		}
		return snapshot(v.Elem(), depth, seen)

	case reflect.Pointer:
		if v.IsNil() {
			return nil, false
		}
		p := v.Pointer()
		for _, s := range seen {
			if s == p {
				return nil, false
			}
		}
		return snapshot(v.Elem(), depth, append(seen, p))

	case reflect.Map:
		if v.IsNil() || depth >= snapshotDepth {
			return nil, false
		}
		p := v.Pointer()
		for _, s := range seen {
			if s == p {
				return nil, false
			}
		}
		seen = append(seen, p)

		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			if val, ok := snapshot(iter.Value(), depth+1, seen); ok {
				out[fmt.Sprint(iter.Key().Interface())] = val
			}
		}
		return out, true

	case reflect.Slice:
		if v.IsNil() {
			return nil, false
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Bytes(), true
		}
		fallthrough

	case reflect.Array:
		if depth >= snapshotDepth {
			return nil, false
		}
		out := make([]any, 0, v.Len())
		for i := range v.Len() {
			val, _ := snapshot(v.Index(i), depth+1, seen)
			out = append(out, val)
		}
		return out, true

	case reflect.Struct:
		if depth >= snapshotDepth {
			return nil, false
		}
		out := make(map[string]any)
		t := v.Type()
		for i := range t.NumField() {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}

			name, opts, _ := strings.Cut(sf.Tag.Get("json"), ",")
			if name == "-" {
				continue
			}
			if name == "" {
				name = sf.Name
			}

			fv := v.Field(i)
			if strings.Contains(opts, "omitempty") && fv.IsZero() {
				continue
			}
			if val, ok := snapshot(fv, depth+1, seen); ok {
				out[name] = val
			}
		}
		return out, true
	}

	if !v.CanInterface() {
		return nil, false
	}

	return v.Interface(), true
}
