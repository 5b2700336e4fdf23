package fetch

import (
	"fmt"

	"github.com/justenwalker/realmfetch/auth"
)

// ErrAuthCanceled matches, with errors.Is, every failure caused by the user declining to log in
var ErrAuthCanceled = auth.ErrCanceled

// AuthCanceledError is returned when the credential prompt was canceled.
// The operation was aborted by the user and should not be retried.
type AuthCanceledError struct {
	URL   string
	Realm auth.Realm
}

func (e *AuthCanceledError) Error() string {
	return fmt.Sprintf("fetch %s: login to realm '%s' on %s: %v", e.URL, e.Realm.Name, e.Realm.Host, ErrAuthCanceled)
}

// Unwrap returns ErrAuthCanceled
func (e *AuthCanceledError) Unwrap() error {
	return ErrAuthCanceled
}

// TransportError wraps a network, TLS or DNS failure of the underlying transport.
// It is not retried.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a 401 or 407 response whose challenge could not be used
type ProtocolError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("fetch %s: unusable challenge in %d response: %v", e.URL, e.StatusCode, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// StatusError is returned by Open for a final response that is not 2xx
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Status)
}
