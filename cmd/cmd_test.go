package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/justenwalker/realmfetch/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestResolveCommand(t *testing.T) {
	out := &bytes.Buffer{}
	RootCmd.SetOut(out)
	RootCmd.SetArgs([]string{"resolve", "--env-file", "", "--proxy", "http://proxy.example:3128", "http://www.example.com/"})
	require.NoError(t, RootCmd.Execute())
	assert.Equal(t, "http://proxy.example:3128\n", out.String())
}

func TestGetCommand(t *testing.T) {
	auth.DefaultCache.Reset()
	defer auth.DefaultCache.Reset()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "content of %s;", r.URL.Path)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out.txt")
	RootCmd.SetArgs([]string{"get", "--env-file", "", "--proxy", "", "--no-proxy", "127.0.0.1", "--no-prompt", "-o", dest, srv.URL + "/a", srv.URL + "/b"})
	require.NoError(t, RootCmd.Execute())
	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "content of /a;content of /b;", string(b))
}

func TestGetCommandKeyByHost(t *testing.T) {
	keyring.MockInit()
	auth.DefaultCache.Reset()
	defer auth.DefaultCache.Reset()
	defer RootCmd.PersistentFlags().Set("key-by-host", "false")
	defer RootCmd.PersistentFlags().Set("service", "realmfetch")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "alice" || pass != "wonderland" {
			w.Header().Set(auth.WWWAuthenticate, `Basic realm="S"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, "secret")
	}))
	defer srv.Close()
	require.NoError(t, auth.StoreKeyring("realmfetch-test", "S", auth.Credentials{Username: "alice", Password: "wonderland"}))

	dest := filepath.Join(t.TempDir(), "out.txt")
	RootCmd.SetArgs([]string{"get", "--env-file", "", "--proxy", "", "--no-proxy", "127.0.0.1", "--no-prompt",
		"--service", "realmfetch-test", "--key-by-host", "-o", dest, srv.URL})
	require.NoError(t, RootCmd.Execute())
	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(b))
	assert.True(t, settings.KeyByHost)
	assert.Equal(t, 0, auth.DefaultCache.Len(), "per-host cache is used instead of the shared one")
}
