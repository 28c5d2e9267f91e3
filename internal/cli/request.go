package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/adamwoolhether/relay/client"
	"github.com/adamwoolhether/relay/internal/config"
	"github.com/spf13/cobra"
)

type requestFlags struct {
	method   string
	headers  []string
	params   []string
	data     string
	json     bool
	form     []string
	include  bool
	failFast bool
}

func newRequestCmd(cfg *config.Config, g *globals) *cobra.Command {
	var f requestFlags

	cmd := &cobra.Command{
		Use:   "request URL",
		Short: "Send a request and print the response body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, cfg, g, &f, args[0])
		},
	}

	bindRequestFlags(cmd, &f)
	cmd.Flags().StringVarP(&f.method, "method", "X", http.MethodGet, "Request method")
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "Request body")
	cmd.Flags().BoolVar(&f.json, "json", false, "Parse --data as JSON and send it as a JSON document")
	cmd.Flags().StringArrayVarP(&f.form, "form", "F", nil, "Multipart form field as key=value, repeatable")

	return cmd
}

func newGetCmd(cfg *config.Config, g *globals) *cobra.Command {
	f := requestFlags{method: http.MethodGet}

	cmd := &cobra.Command{
		Use:   "get URL",
		Short: "Shorthand for request -X GET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, cfg, g, &f, args[0])
		},
	}

	bindRequestFlags(cmd, &f)

	return cmd
}

func bindRequestFlags(cmd *cobra.Command, f *requestFlags) {
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, `Request header as "Name: value", repeatable`)
	cmd.Flags().StringArrayVarP(&f.params, "query", "q", nil, "Query parameter as key=value, repeatable")
	cmd.Flags().BoolVarP(&f.include, "include", "i", false, "Print the status line and response headers")
	cmd.Flags().BoolVar(&f.failFast, "fail", false, "Exit non-zero on error statuses without printing the body")
}

func runRequest(cmd *cobra.Command, cfg *config.Config, g *globals, f *requestFlags, target string) error {
	c, err := newClient(cmd, cfg, g)
	if err != nil {
		return err
	}

	reqCfg, err := f.config(target)
	if err != nil {
		return err
	}

	resp, err := c.Request(cmd.Context(), reqCfg)
	if err != nil {
		e, ok := errors.AsType[*client.Error](err)
		if !ok || e.Response == nil || f.failFast {
			return err
		}
		// Error statuses still print what the server sent back.
		if werr := writeResponse(cmd.OutOrStdout(), e.Response, f.include); werr != nil {
			return werr
		}
		return err
	}

	return writeResponse(cmd.OutOrStdout(), resp, f.include)
}

// config turns the flags into a request config.
func (f *requestFlags) config(target string) (*client.Config, error) {
	cfg := &client.Config{
		Method:  strings.ToUpper(f.method),
		URL:     target,
		Headers: client.Headers{},
	}

	for _, h := range f.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, want \"Name: value\"", h)
		}
		cfg.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	if len(f.params) > 0 {
		cfg.Params = make(map[string]any, len(f.params))
		for _, p := range f.params {
			key, value, ok := strings.Cut(p, "=")
			if !ok || key == "" {
				return nil, fmt.Errorf("invalid query parameter %q, want key=value", p)
			}
			cfg.Params[key] = value
		}
	}

	switch {
	case len(f.form) > 0:
		form := make(map[string]any, len(f.form))
		for _, field := range f.form {
			key, value, ok := strings.Cut(field, "=")
			if !ok || key == "" {
				return nil, fmt.Errorf("invalid form field %q, want key=value", field)
			}
			form[key] = value
		}
		cfg.Headers["Content-Type"] = client.ContentTypeMultipart
		cfg.Data = form

	case f.json:
		var v any
		if err := json.Unmarshal([]byte(f.data), &v); err != nil {
			return nil, fmt.Errorf("parsing --data as JSON: %w", err)
		}
		cfg.Headers["Content-Type"] = client.ContentTypeJSON
		cfg.Data = v

	case f.data != "":
		cfg.Data = f.data
	}

	return cfg, nil
}

func writeResponse(w io.Writer, resp *client.Response, include bool) error {
	if include {
		fmt.Fprintf(w, "%d %s\n", resp.Status, resp.StatusText)

		names := make([]string, 0, len(resp.Headers))
		for name := range resp.Headers {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			for _, v := range resp.Headers[name] {
				fmt.Fprintf(w, "%s: %s\n", name, v)
			}
		}
		fmt.Fprintln(w)
	}

	return writeData(w, resp.Data)
}

func writeData(w io.Writer, data any) error {
	switch v := data.(type) {
	case nil:
		return nil
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	case []byte:
		_, err := w.Write(v)
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}

	return nil
}
