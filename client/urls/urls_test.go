package urls

import (
	"testing"
	"time"
)

func TestIsAbsolute(t *testing.T) {
	testCases := []struct {
		url string
		exp bool
	}{
		{"http://example.com", true},
		{"HTTPS://example.com/a", true},
		{"custom-scheme-v1.0://example.com/", true},
		{"//example.com/", true},
		{"/users", false},
		{"users", false},
		{"123://example.com", false},
		{"!valid://example.com", false},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			if got := IsAbsolute(tc.url); got != tc.exp {
				t.Errorf("IsAbsolute(%q): exp %v, got %v", tc.url, tc.exp, got)
			}
		})
	}
}

func TestCombine(t *testing.T) {
	testCases := []struct {
		base, rel, exp string
	}{
		{"https://api.example.com", "users", "https://api.example.com/users"},
		{"https://api.example.com/", "/users", "https://api.example.com/users"},
		{"https://api.example.com///", "//users", "https://api.example.com/users"},
		{"https://api.example.com", "", "https://api.example.com"},
	}

	for _, tc := range testCases {
		if got := Combine(tc.base, tc.rel); got != tc.exp {
			t.Errorf("Combine(%q, %q): exp %q, got %q", tc.base, tc.rel, tc.exp, got)
		}
	}
}

func TestFullPath(t *testing.T) {
	if got := FullPath("https://api.example.com", "/users"); got != "https://api.example.com/users" {
		t.Errorf("relative url: got %q", got)
	}
	if got := FullPath("https://api.example.com", "https://other.example.com/x"); got != "https://other.example.com/x" {
		t.Errorf("absolute url must not be combined: got %q", got)
	}
	if got := FullPath("", "/users"); got != "/users" {
		t.Errorf("empty base: got %q", got)
	}
}

type point struct {
	X int `json:"x"`
}

func TestBuild(t *testing.T) {
	date := time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)

	testCases := []struct {
		name   string
		url    string
		params map[string]any
		exp    string
	}{
		{
			name: "no params",
			url:  "/foo",
			exp:  "/foo",
		},
		{
			name:   "simple",
			url:    "/foo",
			params: map[string]any{"a": 1, "b": "two"},
			exp:    "/foo?a=1&b=two",
		},
		{
			name:   "nil skipped",
			url:    "/foo",
			params: map[string]any{"a": nil, "b": "x"},
			exp:    "/foo?b=x",
		},
		{
			name:   "all nil leaves url untouched",
			url:    "/foo#frag",
			params: map[string]any{"a": nil},
			exp:    "/foo#frag",
		},
		{
			name:   "array values",
			url:    "/foo",
			params: map[string]any{"ids": []int{1, 2}},
			exp:    "/foo?ids[]=1&ids[]=2",
		},
		{
			name:   "date",
			url:    "/foo",
			params: map[string]any{"at": date},
			exp:    "/foo?at=2024-03-05T10:30:00.000Z",
		},
		{
			name:   "nested mapping",
			url:    "/foo",
			params: map[string]any{"p": point{X: 1}},
			exp:    "/foo?p=%7B%22x%22:1%7D",
		},
		{
			name:   "special characters",
			url:    "/foo",
			params: map[string]any{"q": "@:$, []"},
			exp:    "/foo?q=@:$,+[]",
		},
		{
			name:   "existing query",
			url:    "/foo?x=1",
			params: map[string]any{"y": 2},
			exp:    "/foo?x=1&y=2",
		},
		{
			name:   "hash dropped",
			url:    "/foo#section",
			params: map[string]any{"y": 2},
			exp:    "/foo?y=2",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Build(tc.url, tc.params, nil); got != tc.exp {
				t.Errorf("exp %q, got %q", tc.exp, got)
			}
		})
	}
}

func TestBuild_CustomSerializer(t *testing.T) {
	serializer := func(map[string]any) string { return "custom=1" }

	got := Build("/foo", map[string]any{"ignored": true}, serializer)
	if got != "/foo?custom=1" {
		t.Errorf("exp custom serializer output, got %q", got)
	}
}
