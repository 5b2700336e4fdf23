package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/justenwalker/realmfetch/auth"
	"github.com/justenwalker/realmfetch/proxy"
)

type challengeSource int

const (
	fromServer challengeSource = iota
	fromProxy
)

// session is the credential context of one Fetch call.
// It owns a transport of its own, so credentials and pooled connections
// never leak into another call.
type session struct {
	f         *Fetcher
	transport *http.Transport
	client    *http.Client

	mu          sync.Mutex
	serverCreds *auth.Credentials
	proxyCreds  *auth.Credentials
	lastProxy   *url.URL
}

func (f *Fetcher) newSession() *session {
	s := &session{f: f}
	s.transport = &http.Transport{
		Proxy:                 s.proxyForRequest,
		DialContext:           f.dialContext,
		DialTLSContext:        s.dialTLS,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	s.client = &http.Client{Transport: s.transport}
	return s
}

// close releases pooled connections
func (s *session) close() {
	s.transport.CloseIdleConnections()
}

func (s *session) setCredentials(src challengeSource, creds auth.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if src == fromProxy {
		s.proxyCreds = &creds
	} else {
		s.serverCreds = &creds
	}
}

func (s *session) credentials(src challengeSource) *auth.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	if src == fromProxy {
		return s.proxyCreds
	}
	return s.serverCreds
}

func (s *session) proxyHost() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastProxy == nil {
		return ""
	}
	return s.lastProxy.Host
}

func (s *session) resolve(req *http.Request) (*url.URL, error) {
	if s.f.resolver == nil {
		return nil, nil
	}
	u, err := s.f.resolver.Proxy(req)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.lastProxy = u
	s.mu.Unlock()
	if u != nil {
		s.f.logf("proxy for %s: %s", req.URL.Host, u.Host)
	}
	return u, nil
}

// proxyForRequest routes plain http requests; https targets are tunnelled by dialTLS
func (s *session) proxyForRequest(req *http.Request) (*url.URL, error) {
	if req.URL.Scheme != "http" {
		return nil, nil
	}
	u, err := s.resolve(req)
	if err != nil || u == nil {
		return nil, err
	}
	if creds := s.credentials(fromProxy); creds != nil {
		withUser := *u
		withUser.User = url.UserPassword(creds.Username, creds.Password)
		return &withUser, nil
	}
	return u, nil
}

func (s *session) dialTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	pu, err := proxy.ForAddr(proxy.ResolverFunc(s.resolve), "https", addr)
	if err != nil {
		return nil, err
	}
	var conn net.Conn
	if pu == nil {
		conn, err = s.f.dialContext(ctx, network, addr)
	} else {
		d := &proxy.Dialer{
			Logger:    s.f.logger,
			Proxy:     pu,
			Dial:      s.f.dialContext,
			TLSConfig: s.f.tlsConfig,
		}
		if creds := s.credentials(fromProxy); creds != nil {
			d.Authorization = auth.BasicHeader(*creds)
		}
		conn, err = d.DialContext(ctx, network, addr)
	}
	if err != nil {
		return nil, err
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		conn.Close()
		return nil, err
	}
	cfg := &tls.Config{}
	if s.f.tlsConfig != nil {
		cfg = s.f.tlsConfig.Clone()
	}
	if cfg.ServerName == "" {
		cfg.ServerName = host
	}
	tc := tls.Client(conn, cfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tc, nil
}

// roundTrip issues one GET. A refused CONNECT tunnel comes back as the proxy's
// response, the same way a plain http proxy delivers it.
func (s *session) roundTrip(ctx context.Context, target *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	if s.f.userAgent != "" {
		req.Header.Set("User-Agent", s.f.userAgent)
	}
	if creds := s.credentials(fromServer); creds != nil {
		auth.SetBasicAuth(req, auth.Authorization, *creds)
	}
	resp, err := s.client.Do(req)
	if err == nil {
		return resp, nil
	}
	var are *proxy.AuthRequiredError
	if errors.As(err, &are) {
		return are.Response(req), nil
	}
	var ce *proxy.ConnectError
	if errors.As(err, &ce) {
		return ce.Response(req), nil
	}
	return nil, err
}
