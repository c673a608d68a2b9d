package proc

import (
	"fmt"
	"os"
)

const reexecEnvKey = "VLOCK_PROC_REEXEC"

var registeredFuncs = map[string]func() int{}

// RegisterFunc registers a function that can be run in a freshly re-exec'd
// copy of the current binary via SpawnFunc. It must be called from an
// init() in the same package that also calls SpawnFunc for that name,
// before MaybeRunRegisteredFunc runs (i.e. before flag parsing/argument
// handling in main).
func RegisterFunc(name string, fn func() int) {
	registeredFuncs[name] = fn
}

// MaybeRunRegisteredFunc checks whether this process was re-exec'd by
// SpawnFunc to run a registered function rather than main's usual logic.
// If so, it runs that function and calls os.Exit with its return value,
// never returning. Otherwise it returns immediately. Callers must invoke
// this as the very first statement of main().
func MaybeRunRegisteredFunc() {
	name := os.Getenv(reexecEnvKey)
	if name == "" {
		return
	}

	fn, ok := registeredFuncs[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "vlock: internal error: unregistered reexec function %q\n", name)
		os.Exit(1)
	}

	os.Exit(fn())
}

// SpawnFunc starts a fresh copy of the current executable that will run
// the function registered under name instead of its ordinary main logic.
// This is the Go-safe substitute for process.c's create_child fork+function
// path: the Go runtime cannot continue running arbitrary goroutine-bearing
// code after a bare fork(), so the child re-execs itself instead, landing
// in MaybeRunRegisteredFunc.
func SpawnFunc(name string, stdin, stdout, stderr Redirect) (*Child, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("proc: resolve self executable: %w", err)
	}

	return Spawn(&Spec{
		Path:   self,
		Args:   []string{self},
		Env:    append(os.Environ(), reexecEnvKey+"="+name),
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	})
}
