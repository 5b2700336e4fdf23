package fetch

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/justenwalker/realmfetch/auth"
	"github.com/justenwalker/realmfetch/logging"
	"github.com/justenwalker/realmfetch/proxy"
)

// Option configures a Fetcher
type Option func(f *Fetcher)

// Resolver sets the proxy resolver consulted for every attempt.
// The default resolves proxies from the environment.
func Resolver(r proxy.Resolver) Option {
	return func(f *Fetcher) {
		f.resolver = r
	}
}

// Prompt sets the source of credentials for realms missing from the cache.
// Without a prompt, challenges are returned to the caller unanswered.
func Prompt(p auth.Prompt) Option {
	return func(f *Fetcher) {
		f.prompt = p
	}
}

// Cache sets the realm cache; the default is auth.DefaultCache
func Cache(c *auth.RealmCache) Option {
	return func(f *Fetcher) {
		f.cache = c
	}
}

// Log sets the logger for debug purposes
func Log(logger logging.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// TLSConfig sets the TLS configuration for https targets
func TLSConfig(cfg *tls.Config) Option {
	return func(f *Fetcher) {
		f.tlsConfig = cfg
	}
}

// DialContext sets the function used to open TCP connections to servers and proxies
func DialContext(dial func(ctx context.Context, network, addr string) (net.Conn, error)) Option {
	return func(f *Fetcher) {
		f.dial = dial
	}
}

// MaxAttempts bounds the number of requests a single Fetch may issue
func MaxAttempts(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// UserAgent sets the User-Agent header of every request
func UserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}
