//go:build !windows

package authprompt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// pollInterval bounds how long a single unix.Select wait runs before
// re-checking ctx, so that a context cancelled without a deadline (e.g.
// ctx.Done() closed by an external signal) is still noticed promptly.
// The original's equivalent granularity is its EINTR retry loop around a
// single blocking select(); signal delivery provides that wakeup there,
// context cancellation provides it here.
const pollInterval = 200 * time.Millisecond

// waitReadable blocks until fd is readable, ctx is done, or the
// overall wait times out, mirroring prompt.c and read_character's use of
// select() on a single fd plus a struct timeval timeout. It returns
// false if ctx expired without fd becoming readable.
func waitReadable(ctx context.Context, fd int) (bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, nil
		}

		wait := pollInterval
		if dl, ok := ctx.Deadline(); ok {
			if remaining := time.Until(dl); remaining < wait {
				wait = remaining
			}
		}
		if wait < 0 {
			return false, nil
		}

		tv := unix.NsecToTimeval(wait.Nanoseconds())
		var set unix.FdSet
		set.Set(fd)

		n, err := unix.Select(fd+1, &set, nil, nil, &tv)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return false, fmt.Errorf("authprompt: select on fd %d: %w", fd, err)
		}
		if n == 1 {
			return true, nil
		}
	}
}

func withLflag(fd int, mutate func(lflag *uint32)) (restore func(), err error) {
	orig, err := termios.Tcgetattr(uintptr(fd))
	if err != nil {
		return nil, fmt.Errorf("authprompt: tcgetattr: %w", err)
	}

	cur := *orig
	mutate(&cur.Lflag)
	if err := termios.Tcsetattr(uintptr(fd), termios.TCSAFLUSH, &cur); err != nil {
		return nil, fmt.Errorf("authprompt: tcsetattr: %w", err)
	}

	return func() {
		_ = termios.Tcsetattr(uintptr(fd), termios.TCSAFLUSH, orig)
	}, nil
}

func prompt(ctx context.Context, fd int, msg string, echo bool) (string, error) {
	if msg != "" {
		fmt.Fprint(os.Stderr, msg)
	}

	restore, err := withLflag(fd, func(lflag *uint32) {
		*lflag |= unix.ICANON
		*lflag &^= unix.ISIG
		if !echo {
			*lflag &^= unix.ECHO
		}
	})
	if err != nil {
		return "", err
	}
	defer restore()

	ready, err := waitReadable(ctx, fd)
	if err != nil {
		return "", err
	}
	if !ready {
		fmt.Fprintln(os.Stderr, "timeout!")
		return "", context.DeadlineExceeded
	}

	buf := make([]byte, 512)
	n, err := unix.Read(fd, buf)
	if err != nil {
		return "", fmt.Errorf("authprompt: read: %w", err)
	}

	line := string(buf[:n])
	for len(line) > 0 && (line[len(line)-1] == '\r' || line[len(line)-1] == '\n') {
		line = line[:len(line)-1]
	}

	if !echo {
		fmt.Fprintln(os.Stderr)
	}

	return line, nil
}

func readCharacter(ctx context.Context, fd int) (byte, error) {
	ready, err := waitReadable(ctx, fd)
	if err != nil {
		return 0, err
	}
	if !ready {
		return 0, nil
	}

	var c [1]byte
	if _, err := unix.Read(fd, c[:]); err != nil {
		return 0, fmt.Errorf("authprompt: read: %w", err)
	}
	return c[0], nil
}

func waitForCharacter(ctx context.Context, fd int, charset string) (byte, error) {
	restore, err := withLflag(fd, func(lflag *uint32) {
		*lflag &^= unix.ICANON
	})
	if err != nil {
		return 0, err
	}
	defer restore()

	for {
		c, err := readCharacter(ctx, fd)
		if err != nil {
			return 0, err
		}
		if c == 0 {
			return 0, nil
		}
		if charset == "" {
			return c, nil
		}
		for i := 0; i < len(charset); i++ {
			if charset[i] == c {
				return c, nil
			}
		}
	}
}
