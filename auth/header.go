package auth

import (
	"fmt"
	"net/http"
	"net/textproto"
	"strings"
)

const (
	// WWWAuthenticate is the challenge header of an origin server
	WWWAuthenticate = "WWW-Authenticate"
	// ProxyAuthenticate is the challenge header of a proxy
	ProxyAuthenticate = "Proxy-Authenticate"
)

// Challenge is a single authentication challenge: a scheme and its parameters
type Challenge struct {
	Scheme string
	Params map[string]string
}

// IsBasic reports whether the challenge uses the Basic scheme
func (c Challenge) IsBasic() bool {
	return strings.EqualFold(c.Scheme, "Basic")
}

// Realm returns the realm parameter of the challenge
func (c Challenge) Realm() (string, bool) {
	r, ok := c.Params["realm"]
	return r, ok
}

// ChallengeError reports a challenge response that could not be used to authenticate
type ChallengeError struct {
	Header string
	Value  string
	Reason string
}

func (e *ChallengeError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Header, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Header, e.Value, e.Reason)
}

// BasicRealm extracts the realm of the Basic challenge found in the named header
func BasicRealm(h http.Header, name string) (string, error) {
	vs := h[textproto.CanonicalMIMEHeaderKey(name)]
	if len(vs) == 0 {
		return "", &ChallengeError{Header: name, Reason: "challenge header missing"}
	}
	challenges, err := ParseChallenges(vs)
	if err != nil {
		return "", &ChallengeError{Header: name, Value: strings.Join(vs, ", "), Reason: err.Error()}
	}
	for _, c := range challenges {
		if !c.IsBasic() {
			continue
		}
		realm, ok := c.Realm()
		if !ok {
			return "", &ChallengeError{Header: name, Value: strings.Join(vs, ", "), Reason: "basic challenge has no realm"}
		}
		return realm, nil
	}
	return "", &ChallengeError{Header: name, Value: strings.Join(vs, ", "), Reason: "no basic challenge offered"}
}

// ParseChallenges parses the values of a WWW-Authenticate or Proxy-Authenticate header.
// A single value may hold several comma separated challenges.
func ParseChallenges(values []string) ([]Challenge, error) {
	var out []Challenge
	for _, v := range values {
		cs, err := parseChallengeList(v)
		if err != nil {
			return nil, err
		}
		out = append(out, cs...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no challenge found")
	}
	return out, nil
}

func parseChallengeList(s string) ([]Challenge, error) {
	var out []Challenge
	p := &headerParser{s: s}
	for {
		p.skipSpaceAndCommas()
		if p.done() {
			return out, nil
		}
		scheme := p.token()
		if scheme == "" {
			return nil, fmt.Errorf("expected auth scheme at offset %d", p.i)
		}
		c := Challenge{Scheme: scheme, Params: make(map[string]string)}
		p.skipSpace()
		// token68 (e.g. "Negotiate abc=="), kept under an empty key
		if t, ok := p.token68(); ok {
			c.Params[""] = t
			out = append(out, c)
			continue
		}
		for {
			p.skipSpace()
			save := p.i
			key := p.token()
			p.skipSpace()
			if key == "" || !p.consume('=') {
				// next challenge starts here
				p.i = save
				break
			}
			p.skipSpace()
			val, err := p.value()
			if err != nil {
				return nil, err
			}
			c.Params[strings.ToLower(key)] = val
			p.skipSpace()
			if !p.consume(',') {
				break
			}
		}
		out = append(out, c)
	}
}

type headerParser struct {
	s string
	i int
}

func (p *headerParser) done() bool {
	return p.i >= len(p.s)
}

func (p *headerParser) skipSpace() {
	for p.i < len(p.s) && (p.s[p.i] == ' ' || p.s[p.i] == '\t') {
		p.i++
	}
}

func (p *headerParser) skipSpaceAndCommas() {
	for p.i < len(p.s) && (p.s[p.i] == ' ' || p.s[p.i] == '\t' || p.s[p.i] == ',') {
		p.i++
	}
}

func (p *headerParser) consume(b byte) bool {
	if p.i < len(p.s) && p.s[p.i] == b {
		p.i++
		return true
	}
	return false
}

func (p *headerParser) token() string {
	start := p.i
	for p.i < len(p.s) && isTokenChar(p.s[p.i]) {
		p.i++
	}
	return p.s[start:p.i]
}

// token68 consumes a token68 value only when nothing but a comma or the end follows it
func (p *headerParser) token68() (string, bool) {
	start := p.i
	for p.i < len(p.s) && isToken68Char(p.s[p.i]) {
		p.i++
	}
	if p.i == start {
		return "", false
	}
	for p.i < len(p.s) && p.s[p.i] == '=' {
		p.i++
	}
	end := p.i
	p.skipSpace()
	if p.done() || p.s[p.i] == ',' {
		return p.s[start:end], true
	}
	p.i = start
	return "", false
}

func (p *headerParser) value() (string, error) {
	if !p.consume('"') {
		return p.token(), nil
	}
	sb := &strings.Builder{}
	for p.i < len(p.s) {
		c := p.s[p.i]
		p.i++
		switch c {
		case '\\':
			if p.i < len(p.s) {
				sb.WriteByte(p.s[p.i])
				p.i++
			}
		case '"':
			return sb.String(), nil
		default:
			sb.WriteByte(c)
		}
	}
	return "", fmt.Errorf("unterminated quoted string")
}

func isTokenChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0
}

func isToken68Char(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("-._~+/", c) >= 0
}
