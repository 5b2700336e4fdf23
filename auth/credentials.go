package auth

import "context"

// Credentials is a username and password used for HTTP Basic authentication
type Credentials struct {
	Username string
	Password string
}

// Empty reports whether the credentials carry no username.
// An empty username means the request should proceed unauthenticated.
func (c Credentials) Empty() bool {
	return c.Username == ""
}

// Prompt returns the credentials themselves for every realm
func (c Credentials) Prompt(ctx context.Context, realm, host string) (Credentials, error) {
	return c, nil
}

// Realm identifies an authentication domain declared by a server or proxy challenge.
// Host is the server or proxy which issued the challenge.
type Realm struct {
	Name string
	Host string
}

func (r Realm) String() string {
	if r.Host == "" {
		return r.Name
	}
	return r.Name + "@" + r.Host
}
