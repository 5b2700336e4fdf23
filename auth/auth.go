package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/justenwalker/realmfetch/logging"
)

// ErrCanceled is returned by a Prompt when the user declined to provide credentials
var ErrCanceled = errors.New("authentication canceled by user")

// ErrNoCredentials is returned by a Prompt which has nothing to offer for the realm.
// Chain moves on to the next prompt when it sees this error.
var ErrNoCredentials = errors.New("no credentials for realm")

// Prompt supplies credentials for a realm announced by host.
// Implementations may block, e.g. on user input.
type Prompt interface {
	Prompt(ctx context.Context, realm, host string) (Credentials, error)
}

// PromptFunc adapts a function to the Prompt interface
type PromptFunc func(ctx context.Context, realm, host string) (Credentials, error)

// Prompt calls f
func (f PromptFunc) Prompt(ctx context.Context, realm, host string) (Credentials, error) {
	return f(ctx, realm, host)
}

// Chain asks each prompt in order until one of them answers
type Chain struct {
	Logger  logging.Logger
	Prompts []Prompt
}

// NewChain creates a Chain of the prompts
func NewChain(prompts ...Prompt) *Chain {
	return &Chain{Prompts: prompts}
}

func (c *Chain) logf(format string, v ...interface{}) {
	if c.Logger == nil {
		return
	}
	c.Logger.Log(fmt.Sprintf(format, v...))
}

// Prompt returns the first answer which is not ErrNoCredentials
func (c *Chain) Prompt(ctx context.Context, realm, host string) (Credentials, error) {
	for i, p := range c.Prompts {
		creds, err := p.Prompt(ctx, realm, host)
		if errors.Is(err, ErrNoCredentials) {
			c.logf("prompt %d: no credentials for realm %q", i, realm)
			continue
		}
		return creds, err
	}
	return Credentials{}, ErrNoCredentials
}
