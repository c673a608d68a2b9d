// Command spawn is a generic sandboxed-child save hook, demonstrating
// internal/proc's child-process primitive end to end: vlock_save starts
// a child with its stdio redirected away from the console, vlock_save_abort
// tears it down via proc.Child.EnsureDeath. This stands in for a real
// screensaver effect such as original_source/modules/caca.c's cacademo,
// which pulls in libcaca/ncurses and is out of scope; the child command
// itself is configurable via VLOCK_SPAWN_COMMAND (space-separated argv),
// defaulting to an idle placeholder.
package main

import (
	"os"
	"strings"

	"github.com/joeycumines/vlock/internal/proc"
)

var defaultCommand = []string{"sleep", "infinity"}

type spawnContext struct {
	child *proc.Child
}

// VlockSave starts the sandboxed child with stdio redirected to
// /dev/null, matching caca.c's REDIRECT_DEV_NULL/NO_REDIRECT stdio
// spec for its screensaver child.
func VlockSave(ctx *any) bool {
	argv := commandArgv()

	child, err := proc.Spawn(&proc.Spec{
		Path:   argv[0],
		Args:   argv,
		Stdin:  proc.DevNull,
		Stdout: proc.DevNull,
		Stderr: proc.DevNull,
	})
	if err != nil {
		return false
	}

	*ctx = &spawnContext{child: child}
	return true
}

// VlockSaveAbort tears down the sandboxed child, escalating from SIGTERM
// to SIGKILL if it doesn't exit promptly, matching caca.c's
// ensure_death(child->pid).
func VlockSaveAbort(ctx *any) bool {
	c, ok := (*ctx).(*spawnContext)
	if !ok || c == nil {
		return true
	}

	c.child.EnsureDeath()
	*ctx = nil
	return true
}

func commandArgv() []string {
	raw := os.Getenv("VLOCK_SPAWN_COMMAND")
	if raw == "" {
		return defaultCommand
	}

	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return defaultCommand
	}
	return fields
}
