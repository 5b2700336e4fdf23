package auth

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/howeyc/gopass"
)

// TerminalPrompt asks the user for credentials on a terminal.
// The password is read without echo. Entering an empty username skips authentication.
type TerminalPrompt struct {
	In  gopass.FdReader
	Out io.Writer
	mu  sync.Mutex
}

// NewTerminalPrompt creates a prompt on stdin and stderr
func NewTerminalPrompt() *TerminalPrompt {
	return &TerminalPrompt{In: os.Stdin, Out: os.Stderr}
}

// Prompt reads a username and password.
// Interrupting the prompt or closing the input cancels it.
func (t *TerminalPrompt) Prompt(ctx context.Context, realm, host string) (Credentials, error) {
	// one dialog at a time
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}
	fmt.Fprintf(t.Out, "Site Authentication\nPlease login to the following domain: %s\n\nServer requiring authentication:\n%s\n\n", realm, host)
	fmt.Fprint(t.Out, "Username: ")
	user, err := readLine(t.In)
	if err != nil {
		return Credentials{}, promptError(err)
	}
	if user == "" {
		return Credentials{}, nil
	}
	pass, err := gopass.GetPasswdPrompt("Password: ", true, t.In, t.Out)
	if err != nil {
		return Credentials{}, promptError(err)
	}
	return Credentials{Username: user, Password: string(pass)}, nil
}

func promptError(err error) error {
	if err == io.EOF || err == gopass.ErrInterrupted {
		return ErrCanceled
	}
	return fmt.Errorf("read credentials: %w", err)
}

// readLine reads a byte at a time so nothing past the newline is consumed
func readLine(r io.Reader) (string, error) {
	sb := &strings.Builder{}
	b := make([]byte, 1)
	for {
		n, err := r.Read(b)
		if n == 1 {
			switch b[0] {
			case '\n':
				return strings.TrimSuffix(sb.String(), "\r"), nil
			case 3: // ctrl-c
				return "", gopass.ErrInterrupted
			default:
				sb.WriteByte(b[0])
			}
		}
		if err != nil {
			if err == io.EOF && sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
	}
}
