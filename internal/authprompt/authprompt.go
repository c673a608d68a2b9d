// Package authprompt implements prompt.c's terminal prompt/idle routines
// and the seam vlock-main.c plugs an authentication backend into: an
// Authenticator interface standing in for the PAM/shadow backends, which
// are out of scope for this module.
package authprompt

import (
	"context"
	"time"
)

// Authenticator attempts to verify user's identity, matching auth.c's
// auth(). It should honor ctx's deadline/cancellation the same way the
// original honors its struct timespec timeout: a timed-out or
// cancelled attempt is a failed attempt, not an error.
type Authenticator interface {
	Authenticate(ctx context.Context, user string) bool
}

// Prompt reads one line of input from fd, showing msg first (if
// non-empty) and echoing what is typed, matching prompt(). It blocks
// until a line is entered, ctx is done, or fd hits EOF/an error.
// Trailing \r and \n characters are stripped, as the original strips
// them with its own trailing-newline loop.
func Prompt(ctx context.Context, fd int, msg string) (string, error) {
	return prompt(ctx, fd, msg, true)
}

// PromptEchoOff is Prompt with input echoing disabled, for password
// entry, matching prompt_echo_off().
func PromptEchoOff(ctx context.Context, fd int, msg string) (string, error) {
	return prompt(ctx, fd, msg, false)
}

// ReadCharacter reads a single character from fd without line buffering,
// matching read_character(); it returns 0 if ctx is done before a
// character arrives.
func ReadCharacter(ctx context.Context, fd int) (byte, error) {
	return readCharacter(ctx, fd)
}

// WaitForCharacter blocks until a character in charset (or any character,
// if charset is empty) is read from fd, matching wait_for_character(). It
// returns 0 if ctx is done first.
func WaitForCharacter(ctx context.Context, fd int, charset string) (byte, error) {
	return waitForCharacter(ctx, fd, charset)
}

// WithTimeout is a convenience wrapper translating vlockenv's "zero
// means no timeout" Duration convention into a context.Context, mirroring
// how vlock-main.c turns an absent VLOCK_TIMEOUT/VLOCK_PROMPT_TIMEOUT
// into a NULL struct timespec.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}
