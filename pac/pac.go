// Package pac resolves proxies with a proxy auto-config (PAC) script.
package pac

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jackwakefield/gopac"
	"github.com/justenwalker/realmfetch/proxy"
)

const lastModifiedFormat = http.TimeFormat

// the PAC itself is never fetched through a proxy
var noProxyClient = &http.Client{
	Transport: &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	},
	Timeout: time.Minute,
}

// PAC is a proxy.Resolver backed by a PAC script.
// Until the script has been loaded with Refresh every request is direct.
type PAC struct {
	URL          string
	parsed       *gopac.Parser
	etag         string
	lastModified time.Time
	mu           sync.Mutex
}

// New creates a PAC for the script at location, which is a file path or a file, http or https URL
func New(location string) *PAC {
	return &PAC{URL: location}
}

// ProxyForRequest uses the PAC to discover zero or more proxies that match the request
func (r *PAC) ProxyForRequest(u, host string) ([]proxy.Resolver, error) {
	// gopac.Parser.FindProxy is not concurrency safe
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.parsed == nil {
		return nil, nil
	}
	result, err := r.parsed.FindProxy(u, host)
	if err != nil {
		return nil, err
	}
	return parsePACResult(result)
}

// Proxy returns the first proxy the script selects for the request
func (r *PAC) Proxy(req *http.Request) (*url.URL, error) {
	proxies, err := r.ProxyForRequest(req.URL.String(), req.URL.Hostname())
	if err != nil {
		return nil, err
	}
	if len(proxies) == 0 {
		return nil, nil
	}
	return proxies[0].Proxy(req)
}

// Refresh fetches the PAC file
// The boolean returned indicates if an update occurred
func (r *PAC) Refresh(ctx context.Context) (bool, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return false, err
	}
	switch u.Scheme {
	case "", "file":
		path := u.Path
		if u.Scheme == "" {
			path = r.URL
		}
		return r.refreshFile(filepath.FromSlash(path))
	case "http", "https":
		return r.refreshHTTP(ctx, u)
	}
	return false, fmt.Errorf("unsupported PAC location '%s'", r.URL)
}

func (r *PAC) refreshFile(path string) (bool, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	modified := stat.ModTime()
	r.mu.Lock()
	defer r.mu.Unlock()
	if !modified.After(r.lastModified) {
		return false, nil
	}
	script, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	parser := &gopac.Parser{}
	if err := parser.ParseBytes(script); err != nil {
		return false, err
	}
	r.parsed = parser
	r.lastModified = modified
	return true, nil
}

func (r *PAC) refreshHTTP(ctx context.Context, u *url.URL) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	if r.etag != "" {
		req.Header.Set("If-None-Match", r.etag)
	} else if !r.lastModified.IsZero() {
		req.Header.Set("If-Modified-Since", r.lastModified.UTC().Format(lastModifiedFormat))
	}
	r.mu.Unlock()
	resp, err := noProxyClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	script, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	switch resp.StatusCode {
	case http.StatusNotModified:
		return false, nil
	case http.StatusOK:
		r.mu.Lock()
		defer r.mu.Unlock()
		parser := &gopac.Parser{}
		if err := parser.ParseBytes(script); err != nil {
			return false, err
		}
		r.parsed = parser
		r.etag = resp.Header.Get("ETag")
		if lm := resp.Header.Get("Last-Modified"); lm != "" {
			if date, err := time.Parse(lastModifiedFormat, lm); err == nil {
				r.lastModified = date
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("GET '%v': %s\n%s", u, resp.Status, string(script))
	}
}

// parsePACResult turns a FindProxyForURL result such as "PROXY a:8080; DIRECT" into resolvers.
// SOCKS entries are skipped.
func parsePACResult(result string) ([]proxy.Resolver, error) {
	var proxies []proxy.Resolver
	for _, p := range strings.Split(result, ";") {
		fields := strings.Fields(p)
		if len(fields) == 0 {
			continue
		}
		switch strings.ToUpper(fields[0]) {
		case "DIRECT":
			proxies = append(proxies, proxy.Direct)
		case "PROXY", "HTTP", "HTTPS":
			if len(fields) < 2 {
				return nil, fmt.Errorf("PAC entry '%s' has no host", strings.TrimSpace(p))
			}
			scheme := "http"
			if strings.EqualFold(fields[0], "HTTPS") {
				scheme = "https"
			}
			purl, err := url.Parse(fmt.Sprintf("%s://%s/", scheme, fields[1]))
			if err != nil {
				return nil, err
			}
			proxies = append(proxies, proxy.Static(purl))
		}
	}
	return proxies, nil
}
