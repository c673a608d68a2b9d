//go:build linux

package authprompt_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/joeycumines/vlock/internal/authprompt"
)

// openPTY allocates a pseudo-terminal pair directly via /dev/ptmx, since
// termios ioctls (what posix.go and authprompt exercise) only behave
// realistically against an actual tty, not a plain pipe.
func openPTY(t *testing.T) (ptmx, tty *os.File) {
	t.Helper()

	m, err := unix.Open("/dev/ptmx", unix.O_RDWR|unix.O_NOCTTY, 0)
	require.NoError(t, err)
	ptmx = os.NewFile(uintptr(m), "ptmx")
	t.Cleanup(func() { ptmx.Close() })

	require.NoError(t, unix.IoctlSetInt(m, unix.TIOCSPTLCK, 0))

	name, err := os.Readlink(fmt.Sprintf("/proc/self/fd/%d", m))
	require.NoError(t, err)

	s, err := unix.Open(name, unix.O_RDWR|unix.O_NOCTTY, 0)
	require.NoError(t, err)
	tty = os.NewFile(uintptr(s), name)
	t.Cleanup(func() { tty.Close() })

	return ptmx, tty
}

func TestPrompt_ReadsLineAndStripsNewline(t *testing.T) {
	ptmx, tty := openPTY(t)

	go func() { _, _ = ptmx.WriteString("hunter2\r\n") }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	line, err := authprompt.Prompt(ctx, int(tty.Fd()), "password: ")
	require.NoError(t, err)
	require.Equal(t, "hunter2", line)
}

func TestPrompt_TimesOutWithNoInput(t *testing.T) {
	_, tty := openPTY(t)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := authprompt.Prompt(ctx, int(tty.Fd()), "")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitForCharacter_MatchesCharset(t *testing.T) {
	ptmx, tty := openPTY(t)

	go func() { _, _ = ptmx.WriteString("xyz") }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := authprompt.WaitForCharacter(ctx, int(tty.Fd()), "yz")
	require.NoError(t, err)
	require.Equal(t, byte('y'), c)
}
