package proxy

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/justenwalker/realmfetch/logging"
)

// maxErrorBody bounds how much of a failed CONNECT response is kept
const maxErrorBody = 64 << 10

// AuthRequiredError is returned when the proxy answers CONNECT with 407 Proxy Authentication Required
type AuthRequiredError struct {
	Proxy      *url.URL
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf("proxy %s: %s", e.Proxy.Host, e.Status)
}

// Response rebuilds the proxy's answer as a response to req
func (e *AuthRequiredError) Response(req *http.Request) *http.Response {
	return refusal(req, e.StatusCode, e.Status, e.Header, e.Body)
}

// ConnectError is returned when the proxy refuses CONNECT with a status other than 407
type ConnectError struct {
	Proxy      *url.URL
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("proxy %s returned error '%s': %s", e.Proxy.Host, e.Status, strings.TrimSpace(string(e.Body)))
}

// Response rebuilds the proxy's answer as a response to req
func (e *ConnectError) Response(req *http.Request) *http.Response {
	return refusal(req, e.StatusCode, e.Status, e.Header, e.Body)
}

func refusal(req *http.Request, code int, status string, h http.Header, body []byte) *http.Response {
	return &http.Response{
		Status:        status,
		StatusCode:    code,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

// Dialer opens tunnels through an HTTP proxy with CONNECT
type Dialer struct {
	Logger logging.Logger
	// Proxy is the proxy to tunnel through
	Proxy *url.URL
	// Authorization is sent as the Proxy-Authorization header when set
	Authorization string
	// Dial dials the proxy; net.Dialer is used when nil
	Dial func(ctx context.Context, network, addr string) (net.Conn, error)
	// TLSConfig is used to reach https proxies
	TLSConfig *tls.Config
}

// HostPort returns the host of u with the default port of its scheme added when missing
func HostPort(u *url.URL) string {
	if u.Port() != "" {
		return u.Host
	}
	switch u.Scheme {
	case "https":
		return net.JoinHostPort(u.Hostname(), "443")
	default:
		return net.JoinHostPort(u.Hostname(), "80")
	}
}

func (d *Dialer) logf(format string, v ...interface{}) {
	if d.Logger == nil {
		return
	}
	d.Logger.Log(fmt.Sprintf(format, v...))
}

func (d *Dialer) dial(ctx context.Context, network, addr string) (net.Conn, error) {
	if d.Dial != nil {
		return d.Dial(ctx, network, addr)
	}
	var nd net.Dialer
	return nd.DialContext(ctx, network, addr)
}

// DialContext connects to the proxy and asks it for a tunnel to addr
func (d *Dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	c, err := d.dial(ctx, network, HostPort(d.Proxy))
	if err != nil {
		return nil, err
	}
	if d.Proxy.Scheme == "https" {
		if c, err = d.handshake(ctx, c); err != nil {
			return nil, err
		}
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = c.SetDeadline(dl)
		defer c.SetDeadline(time.Time{})
	}
	conn, err := d.connect(c, addr)
	if err != nil {
		c.Close()
		return nil, err
	}
	return conn, nil
}

func (d *Dialer) handshake(ctx context.Context, c net.Conn) (net.Conn, error) {
	cfg := &tls.Config{}
	if d.TLSConfig != nil {
		cfg = d.TLSConfig.Clone()
	}
	cfg.ServerName = d.Proxy.Hostname()
	tc := tls.Client(c, cfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return tc, nil
}

func (d *Dialer) connect(c net.Conn, addr string) (net.Conn, error) {
	connectReq := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: addr},
		Host:   addr,
		Header: make(http.Header),
	}
	if d.Authorization != "" {
		connectReq.Header.Set("Proxy-Authorization", d.Authorization)
	}
	d.logf("CONNECT %s via %s", addr, d.Proxy.Host)
	if err := connectReq.Write(c); err != nil {
		return nil, err
	}
	br := bufio.NewReader(c)
	resp, err := http.ReadResponse(br, connectReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		d.logf("CONNECT %s: %s", addr, resp.Status)
		if br.Buffered() > 0 {
			return &bufferedConn{Conn: c, r: br}, nil
		}
		return c, nil
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, err
	}
	d.logf("CONNECT %s: %s", addr, resp.Status)
	if resp.StatusCode == http.StatusProxyAuthRequired {
		return nil, &AuthRequiredError{
			Proxy:      d.Proxy,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Header:     resp.Header,
			Body:       body,
		}
	}
	return nil, &ConnectError{
		Proxy:      d.Proxy,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
	}
}

// bufferedConn replays bytes read past the CONNECT response
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *bufferedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}
