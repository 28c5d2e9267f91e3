package deep

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMerge(t *testing.T) {
	testCases := []struct {
		name string
		in   []map[string]any
		exp  map[string]any
	}{
		{
			name: "empty",
			exp:  map[string]any{},
		},
		{
			name: "later wins at equal depth",
			in: []map[string]any{
				{"a": 1, "b": 2},
				{"b": 3},
			},
			exp: map[string]any{"a": 1, "b": 3},
		},
		{
			name: "nested maps merge",
			in: []map[string]any{
				{"common": map[string]any{"Accept": "json", "X-A": "1"}},
				{"common": map[string]string{"X-A": "2"}},
			},
			exp: map[string]any{"common": map[string]any{"Accept": "json", "X-A": "2"}},
		},
		{
			name: "slices replace",
			in: []map[string]any{
				{"list": []int{1, 2, 3}},
				{"list": []int{4}},
			},
			exp: map[string]any{"list": []int{4}},
		},
		{
			name: "scalar replaces mapping",
			in: []map[string]any{
				{"k": map[string]any{"x": 1}},
				{"k": "flat"},
			},
			exp: map[string]any{"k": "flat"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Merge(tc.in...)
			if diff := cmp.Diff(tc.exp, got); diff != "" {
				t.Errorf("merge mismatch (-exp +got):\n%s", diff)
			}
		})
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	base := map[string]any{"common": map[string]any{"Accept": "json"}}
	over := map[string]any{"common": map[string]any{"X-Extra": "1"}}

	out := Merge(base, over)
	out["common"].(map[string]any)["Accept"] = "changed"

	exp := map[string]any{"common": map[string]any{"Accept": "json"}}
	if diff := cmp.Diff(exp, base); diff != "" {
		t.Errorf("base was mutated (-exp +got):\n%s", diff)
	}
	if _, ok := over["common"].(map[string]any)["Accept"]; ok {
		t.Errorf("override was mutated: %v", over)
	}
}

func TestAsMap(t *testing.T) {
	type named map[string]any

	if _, ok := AsMap(nil); ok {
		t.Errorf("nil should not be a mapping")
	}
	if _, ok := AsMap(map[string]any(nil)); ok {
		t.Errorf("nil map should not be a mapping")
	}
	if _, ok := AsMap([]string{"a"}); ok {
		t.Errorf("slice should not be a mapping")
	}
	if _, ok := AsMap(map[int]string{1: "a"}); ok {
		t.Errorf("int keyed map should not be a mapping")
	}

	m, ok := AsMap(named{"a": 1})
	if !ok {
		t.Fatalf("named map type should be a mapping")
	}
	if m["a"] != 1 {
		t.Errorf("exp a=1, got %v", m["a"])
	}
}
