// Package vtalloc implements the "new" plugin's console allocator:
// opening a spare virtual terminal, switching to it, redirecting this
// process's stdio there, and switching back and releasing it afterwards.
// Grounded on modules/new.c.
package vtalloc

import "errors"

// ErrNoActiveConsole is returned when the active virtual console number
// cannot be determined, matching new.c's "could not get the currently
// active console" failure.
var ErrNoActiveConsole = errors.New("vtalloc: could not determine the active console")

// Allocation is the state of one switch-to-a-new-console-and-back cycle,
// equivalent to new.c's struct new_console_context. The zero value is not
// usable; construct one with Allocate.
type Allocation struct {
	impl
}

// Allocate opens a free virtual terminal, switches to it, and redirects
// this process's stdin/stdout/stderr there, returning a handle that
// Release undoes. consoleFD is usually 0 (the controlling terminal); if
// it is not itself backed by a virtual console, /dev/tty0 is opened
// directly instead, as new.c falls back to doing. Only Linux is
// supported: on every other platform, FreeBSD included, Allocate always
// fails with ErrNoActiveConsole.
func Allocate(consoleFD int) (*Allocation, error) {
	return allocate(consoleFD)
}

// Release switches back to the console that was active before Allocate,
// restores this process's original stdio, and (on Linux) deallocates the
// virtual terminal that was allocated. It is safe to call at most once.
func (a *Allocation) Release() error {
	return a.release()
}
