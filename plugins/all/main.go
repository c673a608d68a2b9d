// Command all is vlock's console-grabbing plugin: vlock_start disables
// virtual console switching, vlock_end restores it. Built as a Go plugin
// (`go build -buildmode=plugin -o all.so`) and loaded by the module
// backend under the name "all". Ported from original_source/modules/all.c.
package main

import (
	"os"

	"github.com/joeycumines/vlock/internal/vtlock"
)

var sw vtlock.Switch

// VlockStart grabs exclusive control of console switching. ctx is unused:
// the lock state lives in the package-level sw, matching all.c's reliance
// on lock_console_switch/unlock_console_switch's own static state rather
// than the generic void** context cell.
func VlockStart(ctx *any) bool {
	return sw.Lock(int(os.Stdin.Fd())) == nil
}

// VlockEnd releases console switching.
func VlockEnd(ctx *any) bool {
	return sw.Unlock() == nil
}
