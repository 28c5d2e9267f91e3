package client

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
)

func TestSettle(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		expErr  bool
		expCode Code
	}{
		{name: "ok", status: http.StatusOK},
		{name: "last 2xx", status: 299},
		{name: "redirect", status: http.StatusFound, expErr: true},
		{name: "first client error", status: http.StatusBadRequest, expErr: true, expCode: ErrCodeBadRequest},
		{name: "last client error", status: 499, expErr: true, expCode: ErrCodeBadRequest},
		{name: "first server error", status: http.StatusInternalServerError, expErr: true, expCode: ErrCodeBadResponse},
		{name: "last server error", status: 599, expErr: true, expCode: ErrCodeBadResponse},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := &Response{Status: tc.status, Config: &Config{ValidateStatus: DefaultValidateStatus}}

			got, err := settle(resp)
			if !tc.expErr {
				if err != nil {
					t.Fatalf("exp nil err, got %v", err)
				}
				if got != resp {
					t.Errorf("exp the same response back")
				}
				return
			}

			e, ok := errors.AsType[*Error](err)
			if !ok {
				t.Fatalf("exp *Error, got %T: %v", err, err)
			}
			if e.Code != tc.expCode {
				t.Errorf("exp code %q, got %q", tc.expCode, e.Code)
			}
			if e.Response != resp {
				t.Errorf("exp response attached to the error")
			}
			if e.Status() != tc.status {
				t.Errorf("exp status %d, got %d", tc.status, e.Status())
			}
		})
	}
}

func TestSettle_NoValidator(t *testing.T) {
	resp := &Response{Status: http.StatusInternalServerError, Config: &Config{}}
	if _, err := settle(resp); err != nil {
		t.Errorf("exp every status to resolve without a validator, got %v", err)
	}
}

func TestResolveAdapter(t *testing.T) {
	custom := AdapterFunc(func(context.Context, *Config) (*Response, error) {
		return &Response{Status: http.StatusNoContent}, nil
	})

	testCases := []struct {
		name   string
		refs   []AdapterRef
		exp    AdapterFunc
		expErr error
		expMsg string
	}{
		{name: "http by name", refs: []AdapterRef{Named("http")}, exp: httpAdapter},
		{name: "case insensitive", refs: []AdapterRef{Named("FETCH")}, exp: fetchAdapter},
		{name: "first available wins", refs: []AdapterRef{Named("xhr"), Named("fetch"), Named("http")}, exp: fetchAdapter},
		{name: "custom", refs: []AdapterRef{Custom(custom)}, exp: custom},
		{name: "default list", refs: nil, exp: fetchAdapter},
		{name: "unsupported", refs: []AdapterRef{Named("xhr")}, expErr: ErrAdapterNotSupported, expMsg: "adapter xhr: adapter is not supported by the environment"},
		{name: "not callable", refs: []AdapterRef{{}}, expErr: ErrAdapterNotCallable},
		{
			name:   "unknown",
			refs:   []AdapterRef{Named("carrier-pigeon")},
			expErr: ErrUnknownAdapter,
			expMsg: "unknown adapter 'carrier-pigeon' is specified\nWe know these adapters inside the environment: http, xhr, fetch",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fn, err := resolveAdapter(tc.refs)
			if tc.expErr != nil {
				if !errors.Is(err, tc.expErr) {
					t.Fatalf("exp %v, got %v", tc.expErr, err)
				}
				if tc.expMsg != "" && err.Error() != tc.expMsg {
					t.Errorf("exp message %q, got %q", tc.expMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("exp nil err, got %v", err)
			}
			if reflect.ValueOf(fn).Pointer() != reflect.ValueOf(tc.exp).Pointer() {
				t.Errorf("resolved the wrong adapter")
			}
		})
	}
}

func TestCheckRedirect(t *testing.T) {
	via := func(n int) []*http.Request { return make([]*http.Request, n) }

	if err := checkRedirect(-1)(nil, via(1)); !errors.Is(err, http.ErrUseLastResponse) {
		t.Errorf("negative limit: exp ErrUseLastResponse, got %v", err)
	}
	if err := checkRedirect(0)(nil, via(defaultMaxRedirects)); err != nil {
		t.Errorf("zero limit: exp default cap, got %v", err)
	}
	if err := checkRedirect(0)(nil, via(defaultMaxRedirects+1)); !errors.Is(err, ErrTooManyRedirects) {
		t.Errorf("zero limit: exp ErrTooManyRedirects past the cap, got %v", err)
	}
	if err := checkRedirect(2)(nil, via(2)); err != nil {
		t.Errorf("limit 2: exp second redirect to be followed, got %v", err)
	}
	if err := checkRedirect(2)(nil, via(3)); !errors.Is(err, ErrTooManyRedirects) {
		t.Errorf("limit 2: exp ErrTooManyRedirects, got %v", err)
	}
}

func TestTarget(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     *Config
		exp     string
		expCode Code
	}{
		{name: "absolute", cfg: &Config{URL: "http://example.com/a"}, exp: "http://example.com/a"},
		{name: "base url", cfg: &Config{BaseURL: "https://example.com/api/", URL: "/users"}, exp: "https://example.com/api/users"},
		{name: "params", cfg: &Config{URL: "http://example.com/a#frag", Params: map[string]any{"q": "x y"}}, exp: "http://example.com/a?q=x+y"},
		{name: "unsupported protocol", cfg: &Config{URL: "ftp://example.com/file"}, expCode: ErrCodeNotSupported},
		{name: "no host", cfg: &Config{URL: "http:///nohost"}, expCode: ErrCodeInvalidURL},
		{name: "relative without base", cfg: &Config{URL: "/users"}, expCode: ErrCodeNotSupported},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := target(tc.cfg)
			if tc.expCode != "" {
				e, ok := errors.AsType[*Error](err)
				if !ok {
					t.Fatalf("exp *Error, got %v", err)
				}
				if e.Code != tc.expCode {
					t.Errorf("exp code %q, got %q", tc.expCode, e.Code)
				}
				return
			}
			if err != nil {
				t.Fatalf("exp nil err, got %v", err)
			}
			if u.String() != tc.exp {
				t.Errorf("exp %q, got %q", tc.exp, u.String())
			}
		})
	}
}
