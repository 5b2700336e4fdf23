package auth

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"strings"
)

const (
	// Authorization is the request header carrying origin server credentials
	Authorization = "Authorization"
	// ProxyAuthorization is the request header carrying proxy credentials
	ProxyAuthorization = "Proxy-Authorization"
)

// BasicHeader encodes the credentials as a Basic authorization header value
func BasicHeader(creds Credentials) string {
	sb := &strings.Builder{}
	sb.WriteString("Basic ")
	n := len(creds.Username) + len(creds.Password) + 1
	userpass := bytes.NewBuffer(make([]byte, 0, n))
	userpass.WriteString(creds.Username)
	userpass.WriteByte(':')
	userpass.WriteString(creds.Password)
	sb.WriteString(base64.StdEncoding.EncodeToString(userpass.Bytes()))
	return sb.String()
}

// DecodeBasic decodes a Basic authorization header value
func DecodeBasic(v string) (Credentials, bool) {
	const prefix = "Basic "
	if len(v) < len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
		return Credentials{}, false
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(v[len(prefix):]))
	if err != nil {
		return Credentials{}, false
	}
	user, pass, ok := strings.Cut(string(b), ":")
	if !ok {
		return Credentials{}, false
	}
	return Credentials{Username: user, Password: pass}, true
}

// SetBasicAuth sets the named authorization header on the request
func SetBasicAuth(req *http.Request, header string, creds Credentials) {
	req.Header.Set(header, BasicHeader(creds))
}
