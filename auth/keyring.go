package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringPrompt answers from the operating system keyring.
// Secrets are stored under Service with the realm name as the user.
type KeyringPrompt struct {
	Service string
}

// Prompt looks up the realm in the keyring
func (k KeyringPrompt) Prompt(ctx context.Context, realm, host string) (Credentials, error) {
	secret, err := keyring.Get(k.Service, realm)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Credentials{}, ErrNoCredentials
		}
		return Credentials{}, err
	}
	user, pass, ok := strings.Cut(secret, ":")
	if !ok {
		return Credentials{}, fmt.Errorf("keyring entry for realm '%s' is malformed", realm)
	}
	return Credentials{Username: user, Password: pass}, nil
}

// StoreKeyring saves credentials for the realm in the keyring
func StoreKeyring(service, realm string, creds Credentials) error {
	if service == "" {
		return fmt.Errorf("service name missing")
	}
	if realm == "" {
		return fmt.Errorf("realm missing")
	}
	if strings.ContainsRune(creds.Username, ':') {
		return fmt.Errorf("user name must not contain ':'")
	}
	return keyring.Set(service, realm, creds.Username+":"+creds.Password)
}

// DeleteKeyring removes the realm from the keyring
func DeleteKeyring(service, realm string) error {
	return keyring.Delete(service, realm)
}
