//go:build js && wasm

package client

import (
	"bytes"
	"context"
	"io"
	"strings"
	"syscall/js"

	"github.com/adamwoolhether/relay/client/headers"
)

var xhrAdapter = xhrIfAvailable()

func xhrIfAvailable() AdapterFunc {
	if js.Global().Get("XMLHttpRequest").Truthy() {
		return sendXHR
	}

	return nil
}

// sendXHR runs the request through the browser's XMLHttpRequest. The
// goroutine parks on a channel until one of the load, error or abort events
// fires.
func sendXHR(ctx context.Context, cfg *Config) (*Response, error) {
	req, err := newRequest(ctx, cfg)
	if err != nil {
		return nil, err
	}

	xhr := js.Global().Get("XMLHttpRequest").New()
	xhr.Call("open", req.Method, req.URL.String(), true)

	switch cfg.ResponseType {
	case ResponseTypeBytes, ResponseTypeStream:
		xhr.Set("responseType", "arraybuffer")
	}

	for k, vs := range req.Header {
		xhr.Call("setRequestHeader", k, strings.Join(vs, ", "))
	}

	var body js.Value = js.Null()
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, newError("Network Error", "", cfg, xhr, nil).wrap(err)
		}
		arr := js.Global().Get("Uint8Array").New(len(b))
		js.CopyBytesToJS(arr, b)
		body = arr
	}

	events := make(chan string, 1)
	var funcs []js.Func
	listen := func(target js.Value, event string, fn func(js.Value)) {
		f := js.FuncOf(func(_ js.Value, args []js.Value) any {
			var ev js.Value
			if len(args) > 0 {
				ev = args[0]
			}
			fn(ev)
			return nil
		})
		funcs = append(funcs, f)
		target.Call("addEventListener", event, f)
	}
	defer func() {
		for _, f := range funcs {
			f.Release()
		}
	}()

	for _, event := range []string{"load", "error", "abort"} {
		listen(xhr, event, func(js.Value) {
			select {
			case events <- event:
			default:
			}
		})
	}

	if fn := cfg.OnDownloadProgress; fn != nil {
		listen(xhr, "progress", func(ev js.Value) { fn(progressEvent(cfg, ev)) })
	}
	if fn := cfg.OnUploadProgress; fn != nil {
		listen(xhr.Get("upload"), "progress", func(ev js.Value) { fn(progressEvent(cfg, ev)) })
	}

	f := beginFlight(ctx, cfg, xhr)
	defer f.end()
	if err := f.ctx.Err(); err != nil {
		return nil, f.fail(cfg, xhr, err)
	}
	stop := context.AfterFunc(f.ctx, func() { xhr.Call("abort") })
	f.onEnd(func() { stop() })

	xhr.Call("send", body)

	var event string
	select {
	case event = <-events:
	case <-f.ctx.Done():
		return nil, f.fail(cfg, xhr, context.Cause(f.ctx))
	}

	switch event {
	case "abort":
		return nil, f.fail(cfg, xhr, context.Canceled)
	case "error":
		return nil, newError("Network Error", "", cfg, xhr, nil)
	}

	status := xhr.Get("status").Int()
	if status == 0 {
		return nil, newError("Network Error", "", cfg, xhr, nil)
	}

	resp := &Response{
		Status:     status,
		StatusText: xhr.Get("statusText").String(),
		Headers:    headers.Parse(xhr.Call("getAllResponseHeaders").String()),
		Config:     cfg,
		Request:    xhr,
	}

	switch cfg.ResponseType {
	case ResponseTypeBytes, ResponseTypeStream:
		src := js.Global().Get("Uint8Array").New(xhr.Get("response"))
		b := make([]byte, src.Get("length").Int())
		js.CopyBytesToGo(b, src)
		if cfg.ResponseType == ResponseTypeStream {
			resp.Data = io.NopCloser(bytes.NewReader(b))
		} else {
			resp.Data = b
		}
	default:
		resp.Data = xhr.Get("responseText").String()
	}

	return settle(resp)
}

func progressEvent(cfg *Config, ev js.Value) ProgressEvent {
	loaded := int64(ev.Get("loaded").Float())
	total := int64(-1)
	if ev.Get("lengthComputable").Bool() {
		total = int64(ev.Get("total").Float())
	}

	var pct float64
	if total > 0 {
		pct = float64(loaded) / float64(total) * 100
	}

	return ProgressEvent{Loaded: loaded, Total: total, Progress: pct, Config: cfg}
}
