package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
)

// Code classifies an [Error].
type Code string

const (
	ErrCodeBadOptionValue   Code = "ERR_BAD_OPTION_VALUE"
	ErrCodeBadOption        Code = "ERR_BAD_OPTION"
	ErrCodeAborted          Code = "ECONNABORTED"
	ErrCodeTimeout          Code = "ETIMEDOUT"
	ErrCodeNetwork          Code = "ERR_NETWORK"
	ErrCodeTooManyRedirects Code = "ERR_FR_TOO_MANY_REDIRECTS"
	ErrCodeDeprecated       Code = "ERR_DEPRECATED"
	ErrCodeBadResponse      Code = "ERR_BAD_RESPONSE"
	ErrCodeBadRequest       Code = "ERR_BAD_REQUEST"
	ErrCodeCanceled         Code = "ERR_CANCELED"
	ErrCodeNotSupported     Code = "ERR_NOT_SUPPORT"
	ErrCodeInvalidURL       Code = "ERR_INVALID_URL"
)

var (
	// ErrAdapterNotSupported is returned when a known adapter cannot run in
	// the current environment.
	ErrAdapterNotSupported = errors.New("adapter is not supported by the environment")
	// ErrUnknownAdapter is returned when no adapter is registered under a name.
	ErrUnknownAdapter = errors.New("unknown adapter")
	// ErrAdapterNotCallable is returned for an [AdapterRef] that carries
	// neither a name nor a function.
	ErrAdapterNotCallable = errors.New("adapter is not a function")
	// ErrTooManyRedirects is the cause wrapped by errors coded
	// ERR_FR_TOO_MANY_REDIRECTS.
	ErrTooManyRedirects = errors.New("maximum number of redirects exceeded")
)

// Error is returned for every failed request once it has reached the
// dispatcher. Canceled requests return an Error that [IsCancel] reports.
type Error struct {
	Message  string
	Code     Code
	Config   *Config
	Request  any
	Response *Response
	Err      error

	canceled bool
	funcName string
	fileName string
}

func newError(msg string, code Code, cfg *Config, request any, resp *Response) *Error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Message:  msg,
		Code:     code,
		Config:   cfg,
		Request:  request,
		Response: resp,
		funcName: runtime.FuncForPC(pc).Name(),
		fileName: fmt.Sprintf("%s:%d", filename, line),
	}
}

func newCancelError(msg string, cfg *Config, request any) *Error {
	if msg == "" {
		msg = "canceled"
	}

	e := newError(msg, ErrCodeCanceled, cfg, request, nil)
	e.canceled = true

	return e
}

func (e *Error) wrap(err error) *Error {
	e.Err = err
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying transport or context error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the response status attached to the error, or zero.
func (e *Error) Status() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.Status
}

// Source returns the function and file:line where the error was created.
func (e *Error) Source() (funcName, fileName string) {
	return e.funcName, e.fileName
}

// Name distinguishes cancellations from other failures in serialized form.
func (e *Error) Name() string {
	if e.canceled {
		return "CanceledError"
	}

	return "RelayError"
}

// MarshalJSON renders the error with a snapshot of its config, safe against
// cycles.
func (e *Error) MarshalJSON() ([]byte, error) {
	var code, status any
	if e.Code != "" {
		code = e.Code
	}
	if s := e.Status(); s != 0 {
		status = s
	}

	return json.Marshal(struct {
		Message string `json:"message"`
		Name    string `json:"name"`
		Stack   string `json:"stack"`
		Code    any    `json:"code"`
		Status  any    `json:"status"`
		Config  any    `json:"config"`
	}{
		Message: e.Message,
		Name:    e.Name(),
		Stack:   e.funcName + "\n\t" + e.fileName,
		Code:    code,
		Status:  status,
		Config:  Snapshot(e.Config),
	})
}

// IsCancel reports whether err is a cancellation.
func IsCancel(err error) bool {
	e, ok := errors.AsType[*Error](err)
	return ok && e.canceled
}

// IsError reports whether err is an [Error].
func IsError(err error) bool {
	_, ok := errors.AsType[*Error](err)
	return ok
}
