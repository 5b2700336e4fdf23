package proxy_test

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/justenwalker/realmfetch/auth"
	"github.com/justenwalker/realmfetch/proxy"
	"github.com/justenwalker/realmfetch/proxy/proxytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLogger struct {
	t *testing.T
}

func (l testLogger) Log(msg string) {
	l.t.Log(msg)
}

var proxyUser = auth.Credentials{Username: "carol", Password: "proxy-secret"}

func TestDialerTunnel(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "through the tunnel")
	}))
	defer target.Close()
	prx := proxytest.New(proxytest.Credentials(proxyUser))
	defer prx.Close()

	tu, _ := url.Parse(target.URL)
	d := &proxy.Dialer{
		Logger:        testLogger{t},
		Proxy:         prx.URL,
		Authorization: auth.BasicHeader(proxyUser),
	}
	conn, err := d.DialContext(context.Background(), "tcp", tu.Host)
	require.NoError(t, err)
	defer conn.Close()

	req, _ := http.NewRequest(http.MethodGet, target.URL+"/", nil)
	require.NoError(t, req.Write(conn))
	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "through the tunnel", string(body))
	assert.Equal(t, []string{"CONNECT " + tu.Host}, prx.Requests())
}

func TestDialerAuthRequired(t *testing.T) {
	prx := proxytest.New(proxytest.Realm("corp"), proxytest.Credentials(proxyUser))
	defer prx.Close()

	d := &proxy.Dialer{Proxy: prx.URL}
	_, err := d.DialContext(context.Background(), "tcp", "example.com:443")
	var are *proxy.AuthRequiredError
	require.True(t, errors.As(err, &are), "got %v", err)
	assert.Equal(t, http.StatusProxyAuthRequired, are.StatusCode)
	assert.Equal(t, prx.URL, are.Proxy)
	realm, err := auth.BasicRealm(are.Header, auth.ProxyAuthenticate)
	require.NoError(t, err)
	assert.Equal(t, "corp", realm)
	assert.Equal(t, "proxy authentication required", string(are.Body))
	assert.Equal(t, 1, prx.Challenges())
}

func TestDialerRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "tunnels to this port are not allowed", http.StatusForbidden)
	}))
	defer srv.Close()
	pu, _ := url.Parse(srv.URL)

	d := &proxy.Dialer{Proxy: pu}
	_, err := d.DialContext(context.Background(), "tcp", "example.com:25")
	var ce *proxy.ConnectError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, http.StatusForbidden, ce.StatusCode)
	assert.Equal(t, "403 Forbidden", ce.Status)
	assert.Equal(t, "tunnels to this port are not allowed\n", string(ce.Body))
	assert.Contains(t, ce.Error(), "'403 Forbidden': tunnels to this port are not allowed")

	req, _ := http.NewRequest(http.MethodGet, "https://example.com:25/", nil)
	resp := ce.Response(req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "tunnels to this port are not allowed\n", string(body))
}

func TestHostPort(t *testing.T) {
	for in, want := range map[string]string{
		"http://proxy.example":       "proxy.example:80",
		"https://proxy.example":      "proxy.example:443",
		"http://proxy.example:3128":  "proxy.example:3128",
		"http://[2001:db8::1]":       "[2001:db8::1]:80",
		"https://[2001:db8::1]:8443": "[2001:db8::1]:8443",
	} {
		u, err := url.Parse(in)
		require.NoError(t, err)
		assert.Equal(t, want, proxy.HostPort(u), in)
	}
}
