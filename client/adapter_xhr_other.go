//go:build !(js && wasm)

package client

// xhrAdapter needs a browser XMLHttpRequest and is unavailable here.
var xhrAdapter AdapterFunc
