// Package fetch retrieves URLs, answering HTTP Basic challenges from the
// target server or an intervening proxy.
//
// Credentials confirmed by a successful response are cached per realm, so
// later fetches challenged under the same realm do not prompt again.
package fetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/justenwalker/realmfetch/auth"
	"github.com/justenwalker/realmfetch/logging"
	"github.com/justenwalker/realmfetch/proxy"
)

const defaultMaxAttempts = 10

// Fetcher issues GET requests and negotiates Basic authentication challenges.
// A Fetcher is safe for concurrent use; every Fetch call keeps its own attempt state.
type Fetcher struct {
	resolver    proxy.Resolver
	prompt      auth.Prompt
	cache       *auth.RealmCache
	logger      logging.Logger
	tlsConfig   *tls.Config
	dial        func(ctx context.Context, network, addr string) (net.Conn, error)
	maxAttempts int
	userAgent   string
}

// Response is the final response of a fetch.
// Body holds the whole payload in memory; it stays readable after the connection is gone.
type Response struct {
	StatusCode    int
	Status        string
	Header        http.Header
	ContentLength int64
	Body          io.ReadCloser
}

// attemptState is the negotiation state of one Fetch call
type attemptState struct {
	realm    *auth.Realm
	creds    *auth.Credentials
	attempts int
}

// New creates a Fetcher with the given options configured
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		resolver:    proxy.Environment(),
		cache:       auth.DefaultCache,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) logf(format string, v ...interface{}) {
	if f.logger == nil {
		return
	}
	f.logger.Log(fmt.Sprintf(format, v...))
}

func (f *Fetcher) dialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if f.dial != nil {
		return f.dial(ctx, network, addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, network, addr)
}

// Open fetches rawURL and returns the body of a 2xx response.
// Any other final status is reported as a *StatusError.
func (f *Fetcher) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	resp, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status, Body: body}
	}
	return resp.Body, nil
}

// Fetch issues GET requests for rawURL until it receives a response that is not
// an authentication challenge, or the challenge cannot be answered.
//
// A 401 is answered with credentials for the server's realm, a 407 with
// credentials for the proxy's realm. Credentials come from the realm cache, or
// from the prompt when the realm is not cached. A prompt answer with an empty
// username ends the negotiation and the challenge itself is returned.
//
// The body of the final response is read completely before Fetch returns.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	target, err := parseTarget(rawURL)
	if err != nil {
		return nil, err
	}
	s := f.newSession()
	defer s.close()

	var st attemptState
	for {
		st.attempts++
		resp, err := s.roundTrip(ctx, target)
		if err != nil {
			return nil, &TransportError{URL: rawURL, Err: err}
		}
		f.logf("GET %s: %s", rawURL, resp.Status)

		var src challengeSource
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			src = fromServer
		case http.StatusProxyAuthRequired:
			src = fromProxy
		default:
			if resp.StatusCode/100 == 2 && st.realm != nil && st.creds != nil {
				f.cache.Put(*st.realm, *st.creds)
				f.logf("cached credentials for realm '%s'", st.realm.Name)
			}
			return capture(rawURL, resp)
		}

		realm, err := f.challenge(resp, src, target, s)
		if err != nil {
			discard(resp)
			return nil, &ProtocolError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
		}
		if st.attempts >= f.maxAttempts {
			f.logf("giving up on realm '%s' after %d attempts", realm.Name, st.attempts)
			return capture(rawURL, resp)
		}

		// credentials which got past an earlier realm are kept before moving on
		rejected := false
		if st.realm != nil {
			if f.cache.Same(*st.realm, realm) {
				rejected = s.credentials(src) != nil
			} else {
				f.cache.Put(*st.realm, *st.creds)
				f.logf("cached credentials for realm '%s'", st.realm.Name)
			}
		}
		st.realm = &realm

		creds, err := f.credentials(ctx, realm, rejected)
		if err != nil {
			discard(resp)
			if errors.Is(err, auth.ErrCanceled) {
				return nil, &AuthCanceledError{URL: rawURL, Realm: realm}
			}
			return nil, err
		}
		st.creds = &creds
		if creds.Empty() {
			f.logf("no user for realm '%s'; continuing unauthenticated", realm.Name)
			return capture(rawURL, resp)
		}
		s.setCredentials(src, creds)
		discard(resp)
	}
}

// challenge extracts the realm of a 401 or 407 response
func (f *Fetcher) challenge(resp *http.Response, src challengeSource, target *url.URL, s *session) (auth.Realm, error) {
	header, host := auth.WWWAuthenticate, target.Host
	if src == fromProxy {
		header = auth.ProxyAuthenticate
		if h := s.proxyHost(); h != "" {
			host = h
		}
	}
	name, err := auth.BasicRealm(resp.Header, header)
	if err != nil {
		return auth.Realm{}, err
	}
	return auth.Realm{Name: name, Host: host}, nil
}

// credentials returns cached credentials for the realm, falling back to the prompt.
// Credentials the realm just rejected are not taken from the cache again.
func (f *Fetcher) credentials(ctx context.Context, realm auth.Realm, rejected bool) (auth.Credentials, error) {
	if !rejected {
		if creds, ok := f.cache.Get(realm); ok {
			f.logf("using cached credentials for realm '%s'", realm.Name)
			return creds, nil
		}
	}
	if f.prompt == nil {
		return auth.Credentials{}, nil
	}
	f.logf("prompting for realm '%s' on %s", realm.Name, realm.Host)
	creds, err := f.prompt.Prompt(ctx, realm.Name, realm.Host)
	if errors.Is(err, auth.ErrNoCredentials) {
		return auth.Credentials{}, nil
	}
	return creds, err
}

func parseTarget(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("url '%s': unsupported scheme '%s'", rawURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("url '%s' has no host", rawURL)
	}
	return u, nil
}

// discard drains the body so the connection can be reused for the next attempt
func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// capture reads the whole body into memory and releases the connection
func capture(rawURL string, resp *http.Response) (*Response, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	return &Response{
		StatusCode:    resp.StatusCode,
		Status:        resp.Status,
		Header:        resp.Header,
		ContentLength: int64(len(body)),
		Body:          io.NopCloser(bytes.NewReader(body)),
	}, nil
}
