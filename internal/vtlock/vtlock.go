// Package vtlock implements console_switch.c's console-grabbing lock: it
// puts the kernel's virtual console switch mode into VT_PROCESS so that
// switch requests arrive as SIGUSR1 (release) / SIGUSR2 (acquire) signals
// this process can refuse or acknowledge, instead of being granted
// automatically.
package vtlock

import "errors"

// ErrNotVirtualConsole is returned by Lock when fd is not backed by a
// Linux/BSD virtual console (VT_GETMODE fails with ENOTTY/EINVAL in the
// original).
var ErrNotVirtualConsole = errors.New("vtlock: this terminal is not a virtual console")

// Switch is a console-switch lock held for one fd, matching the lifetime
// of console_switch.c's single file-scope lock (vlock only ever locks its
// controlling terminal).
type Switch struct {
	impl
}

// Locked reports whether the lock is currently held, mirroring the
// original's console_switch_locked module flag.
func (s *Switch) Locked() bool { return s.locked() }
