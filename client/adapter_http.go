package client

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
)

var dialer = &net.Dialer{KeepAlive: -1}

// httpAdapter writes the request straight onto a fresh TCP connection, TLS
// for https, and reads a single response off it. Closing the connection
// aborts the exchange. Redirects are returned as they are.
func httpAdapter(ctx context.Context, cfg *Config) (*Response, error) {
	req, err := newRequest(ctx, cfg)
	if err != nil {
		return nil, err
	}
	req.Close = true

	if cfg.Jar != nil {
		for _, c := range cfg.Jar.Cookies(req.URL) {
			req.AddCookie(c)
		}
	}

	f := beginFlight(ctx, cfg, req)
	if err := f.ctx.Err(); err != nil {
		defer f.end()
		return nil, f.fail(cfg, req, err)
	}

	conn, err := dial(f.ctx, req)
	if err != nil {
		defer f.end()
		return nil, f.fail(cfg, req, err)
	}

	stop := context.AfterFunc(f.ctx, func() { conn.Close() })
	f.onEnd(func() {
		stop()
		conn.Close()
	})

	if err := req.Write(conn); err != nil {
		defer f.end()
		return nil, f.fail(cfg, req, err)
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		defer f.end()
		return nil, f.fail(cfg, req, err)
	}

	if cfg.Jar != nil {
		if cookies := resp.Cookies(); len(cookies) > 0 {
			cfg.Jar.SetCookies(req.URL, cookies)
		}
	}

	out, err := readResponse(f, cfg, req, resp)
	if err != nil {
		return nil, err
	}

	settled, err := settle(out)
	if err != nil {
		out.Close()
		return nil, err
	}

	return settled, nil
}

func dial(ctx context.Context, req *http.Request) (net.Conn, error) {
	host := req.URL.Hostname()
	port := req.URL.Port()
	if port == "" {
		port = "80"
		if req.URL.Scheme == "https" {
			port = "443"
		}
	}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", req.URL.Host, err)
	}

	if req.URL.Scheme != "https" {
		return conn, nil
	}

	tlsConn := tls.Client(conn, &tls.Config{ServerName: host})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w", req.URL.Host, err)
	}

	return tlsConn, nil
}
