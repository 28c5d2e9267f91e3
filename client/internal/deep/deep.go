// Package deep merges and copies nested string-keyed maps.
package deep

import "reflect"

// AsMap reports whether v is a string-keyed map and returns it as a
// map[string]any. Maps of other element types are copied into a new map.
// Nil maps are not considered mappings.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return m, m != nil
	case map[string]string:
		if m == nil {
			return nil, false
		}
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
		return nil, false
	}

	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}

	return out, true
}

// Merge folds maps left to right into a new map. Nested mappings are merged
// recursively, anything else (slices included) is replaced by the later value.
// None of the inputs are modified.
func Merge(maps ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, m := range maps {
		for k, v := range m {
			assign(out, k, v)
		}
	}

	return out
}

// Clone returns a deep copy of the nested mappings in m.
func Clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	return Merge(m)
}

func assign(out map[string]any, key string, val any) {
	src, ok := AsMap(val)
	if !ok {
		out[key] = val
		return
	}

	if dst, ok := AsMap(out[key]); ok {
		out[key] = Merge(dst, src)
		return
	}

	out[key] = Merge(src)
}
