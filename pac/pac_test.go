package pac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/justenwalker/realmfetch/proxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const script = `function FindProxyForURL(url, host) {
	if (host == "intranet.example") {
		return "DIRECT";
	}
	return "PROXY proxy.example:3128; DIRECT";
}`

func TestParsePACResult(t *testing.T) {
	proxies, err := parsePACResult("PROXY a.example:8080; HTTPS b.example:443; SOCKS c.example:1080; DIRECT")
	require.NoError(t, err)
	require.Len(t, proxies, 3)
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)

	u, err := proxies[0].Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "http://a.example:8080/", u.String())

	u, err = proxies[1].Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "https://b.example:443/", u.String())

	assert.Equal(t, proxy.Direct, proxies[2])
}

func TestParsePACResultMissingHost(t *testing.T) {
	_, err := parsePACResult("PROXY")
	assert.Error(t, err)
}

func TestUnloadedIsDirect(t *testing.T) {
	p := New("file:///nonexistent.pac")
	u, err := p.Proxy(httptest.NewRequest(http.MethodGet, "http://example.com/", nil))
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestRefreshFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.pac")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o600))

	p := New(path)
	updated, err := p.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = p.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, updated, "unchanged file must not reload")

	u, err := p.Proxy(httptest.NewRequest(http.MethodGet, "http://www.example.com/index.html", nil))
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "proxy.example:3128", u.Host)

	u, err = p.Proxy(httptest.NewRequest(http.MethodGet, "http://intranet.example/", nil))
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestRefreshHTTP(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(script))
	}))
	defer srv.Close()

	p := New(srv.URL + "/proxy.pac")
	updated, err := p.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = p.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, updated)
	assert.Equal(t, 2, requests)
}

func TestRefreshHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	_, err := New(srv.URL).Refresh(context.Background())
	assert.Error(t, err)
}

func TestRefreshUnsupportedScheme(t *testing.T) {
	_, err := New("ftp://example.com/proxy.pac").Refresh(context.Background())
	assert.Error(t, err)
}
