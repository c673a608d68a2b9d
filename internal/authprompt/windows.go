//go:build windows

package authprompt

import (
	"context"
	"errors"
)

// errUnsupported is returned on Windows, which has no virtual console or
// termios subsystem for this package to drive; vlock itself only targets
// Linux/FreeBSD consoles.
var errUnsupported = errors.New("authprompt: not supported on this platform")

func prompt(ctx context.Context, fd int, msg string, echo bool) (string, error) {
	return "", errUnsupported
}

func readCharacter(ctx context.Context, fd int) (byte, error) {
	return 0, errUnsupported
}

func waitForCharacter(ctx context.Context, fd int, charset string) (byte, error) {
	return 0, errUnsupported
}
