package proxy

import (
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"
)

// Resolver returns the proxy URL for a request, or nil if the request should not be proxied
type Resolver interface {
	Proxy(req *http.Request) (*url.URL, error)
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func(req *http.Request) (*url.URL, error)

// Proxy calls f
func (f ResolverFunc) Proxy(req *http.Request) (*url.URL, error) {
	return f(req)
}

type directResolver int

// Direct is an anti-proxy; it always returns a direct connection
const Direct = directResolver(0)

func (directResolver) Proxy(req *http.Request) (*url.URL, error) {
	return nil, nil
}

type staticResolver struct {
	URL *url.URL
}

func (s staticResolver) Proxy(req *http.Request) (*url.URL, error) {
	return s.URL, nil
}

// Static routes every request through u
func Static(u *url.URL) Resolver {
	if u == nil {
		return Direct
	}
	return staticResolver{URL: u}
}

// Environment resolves proxies from HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
// The environment is read once, when Environment is called.
func Environment() Resolver {
	fn := httpproxy.FromEnvironment().ProxyFunc()
	return ResolverFunc(func(req *http.Request) (*url.URL, error) {
		return fn(req.URL)
	})
}

// ForAddr resolves the proxy for a connection to addr (host:port) using scheme
func ForAddr(r Resolver, scheme, addr string) (*url.URL, error) {
	if r == nil {
		return nil, nil
	}
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s://%s/", scheme, addr), nil)
	if err != nil {
		return nil, fmt.Errorf("host '%s' parse error : %v", addr, err)
	}
	return r.Proxy(req)
}
