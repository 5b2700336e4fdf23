package config

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/justenwalker/realmfetch/proxy"
)

// DynamicConfig is a proxy.Resolver whose settings can change at runtime.
// Each fetch attempt consults it again, so changes apply to the next request.
type DynamicConfig struct {
	mu sync.Mutex
	pc atomic.Value
}

// New creates a DynamicConfig routing through resolver
func New(resolver proxy.Resolver) *DynamicConfig {
	cfg := &DynamicConfig{}
	cfg.pc.Store(&proxyConfig{
		Resolver: resolver,
		Bypass:   make(map[string]struct{}),
	})
	return cfg
}

// SetBypass sets the list of hosts which should never be proxied
func (c *DynamicConfig) SetBypass(hosts []string) {
	c.update(func(pc *proxyConfig) {
		bm := make(map[string]struct{}, len(hosts))
		for _, h := range hosts {
			if h = strings.TrimSpace(strings.ToLower(h)); h != "" {
				bm[h] = struct{}{}
			}
		}
		pc.Bypass = bm
	})
}

// SetProxyEnabled sets whether the proxy is enabled or all connections should be direct
func (c *DynamicConfig) SetProxyEnabled(enabled bool) {
	c.update(func(pc *proxyConfig) {
		pc.Disabled = !enabled
	})
}

// SetResolver replaces the underlying resolver
func (c *DynamicConfig) SetResolver(resolver proxy.Resolver) {
	c.update(func(pc *proxyConfig) {
		pc.Resolver = resolver
	})
}

// Proxy resolves the proxy for the request using the current settings
func (c *DynamicConfig) Proxy(req *http.Request) (*url.URL, error) {
	if pc := c.proxyConfig(); pc != nil {
		return pc.Proxy(req)
	}
	return nil, nil
}

func (c *DynamicConfig) update(fn func(pc *proxyConfig)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pc := c.cloneProxyConfig()
	fn(pc)
	c.pc.Store(pc)
}

func (c *DynamicConfig) cloneProxyConfig() *proxyConfig {
	pc := c.proxyConfig()
	if pc == nil {
		return &proxyConfig{}
	}
	clone := *pc
	return &clone
}

func (c *DynamicConfig) proxyConfig() *proxyConfig {
	v := c.pc.Load()
	if v == nil {
		return nil
	}
	return v.(*proxyConfig)
}

type proxyConfig struct {
	Resolver proxy.Resolver
	Disabled bool
	Bypass   map[string]struct{}
}

func (p *proxyConfig) Proxy(req *http.Request) (*url.URL, error) {
	if p == nil || p.Resolver == nil || p.Disabled {
		return nil, nil
	}
	host := strings.TrimSpace(strings.ToLower(req.URL.Host))
	if _, ok := p.Bypass[host]; ok {
		return nil, nil
	}
	host = strings.TrimSpace(strings.ToLower(req.URL.Hostname()))
	if _, ok := p.Bypass[host]; ok {
		return nil, nil
	}
	return p.Resolver.Proxy(req)
}
