// Package proxytest provides an authenticating forward proxy for tests,
// in the spirit of net/http/httptest.
package proxytest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/justenwalker/realmfetch/auth"
	"github.com/justenwalker/realmfetch/logging"
	"gopkg.in/elazarl/goproxy.v1"
)

// Server is a forward proxy that demands Basic proxy authentication.
// Authorized requests are forwarded by goproxy, including CONNECT tunnels.
type Server struct {
	// URL of the proxy, e.g. http://127.0.0.1:1234
	URL *url.URL

	realm     string
	creds     *auth.Credentials
	logger    logging.Logger
	logWriter *logging.LogWriter
	server    *goproxy.ProxyHttpServer
	ts        *httptest.Server

	challenges int64
	mu         sync.Mutex
	seen       []string
}

// New starts a proxy with the given options configured.
// The caller should call Close when finished.
func New(opts ...Option) *Server {
	srv := &Server{
		realm:  "proxy",
		server: goproxy.NewProxyHttpServer(),
	}
	srv.server.Tr = &http.Transport{}
	for _, opt := range opts {
		opt(srv)
	}
	srv.server.OnRequest().DoFunc(srv.onRequest)
	srv.server.OnResponse().DoFunc(srv.onResponse)
	srv.ts = httptest.NewServer(srv)
	srv.URL, _ = url.Parse(srv.ts.URL)
	return srv
}

// Challenges returns the number of 407 responses sent
func (s *Server) Challenges() int {
	return int(atomic.LoadInt64(&s.challenges))
}

// Requests returns the method and target of every authorized request, in order
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if !s.authorized(req) {
		s.logf("challenge: %s %s", req.Method, req.Host)
		atomic.AddInt64(&s.challenges, 1)
		w.Header().Set(auth.ProxyAuthenticate, fmt.Sprintf("Basic realm=%q", s.realm))
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusProxyAuthRequired)
		fmt.Fprint(w, "proxy authentication required")
		return
	}
	s.mu.Lock()
	s.seen = append(s.seen, req.Method+" "+req.Host)
	s.mu.Unlock()
	s.server.ServeHTTP(w, req)
}

// Close shuts the proxy down and flushes logs
func (s *Server) Close() error {
	s.ts.Close()
	if s.logWriter != nil {
		return s.logWriter.Flush()
	}
	return nil
}

func (s *Server) authorized(req *http.Request) bool {
	if s.creds == nil {
		return true
	}
	got, ok := auth.DecodeBasic(req.Header.Get(auth.ProxyAuthorization))
	return ok && got == *s.creds
}

func (s *Server) logf(msg string, v ...interface{}) {
	if s.logger != nil {
		s.logger.Log(fmt.Sprintf(msg, v...))
	}
}

func (s *Server) onRequest(req *http.Request, ctx *goproxy.ProxyCtx) (*http.Request, *http.Response) {
	s.logf("onRequest: %s", req.URL)
	return req, nil
}

func (s *Server) onResponse(resp *http.Response, ctx *goproxy.ProxyCtx) *http.Response {
	if resp != nil {
		s.logf("onResponse: %s", resp.Status)
	}
	if ctx.Error != nil {
		s.logf("onResponse: ERROR:%#v", ctx.Error)
	}
	return resp
}
