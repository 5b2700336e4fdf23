package proxytest

import (
	"log"

	"github.com/justenwalker/realmfetch/auth"
	"github.com/justenwalker/realmfetch/logging"
)

// Option configures the test proxy
type Option func(srv *Server)

// Realm sets the realm announced in Proxy-Authenticate
func Realm(realm string) Option {
	return func(s *Server) {
		s.realm = realm
	}
}

// Credentials requires every request to carry these proxy credentials.
// Without this option the proxy does not authenticate.
func Credentials(creds auth.Credentials) Option {
	return func(s *Server) {
		s.creds = &creds
	}
}

// Log sets the logger on the server for debug purposes
func Log(logger logging.Logger) Option {
	return func(s *Server) {
		s.logger = logger
		s.server.Verbose = (logger != nil)
		if logger != nil {
			s.logWriter = logging.NewLogWriter(s.logger)
			s.server.Logger = log.New(s.logWriter, "goproxy: ", 0)
		}
	}
}
