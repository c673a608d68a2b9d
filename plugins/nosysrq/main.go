// Command nosysrq is vlock's SysRq protection plugin: vlock_start
// disables the kernel's SysRq key combination by writing "0" to
// /proc/sys/kernel/sysrq, saving the previous value; vlock_end restores
// it. Ported from original_source/modules/nosysrq.c.
package main

import (
	"os"
)

const sysrqPath = "/proc/sys/kernel/sysrq"

// Preceeds and Depends match nosysrq.c's extern arrays: SysRq must be
// disabled before a new console is allocated or all consoles are
// grabbed, and the plugin is pointless without "all" also loaded.
var (
	Preceeds = []string{"new", "all"}
	Depends  = []string{"all"}
)

type sysrqContext struct {
	oldValue []byte
}

// VlockStart disables SysRq, remembering the old value to restore later.
// A missing sysctl file (SysRq support compiled out of the kernel) is
// treated as nothing to do, matching nosysrq.c's ENOENT special case.
func VlockStart(ctx *any) bool {
	old, err := os.ReadFile(sysrqPath)
	if err != nil {
		if os.IsNotExist(err) {
			*ctx = nil
			return true
		}
		return false
	}

	if string(old) == "0\n" {
		*ctx = nil
		return true
	}

	if err := os.WriteFile(sysrqPath, []byte("0\n"), 0); err != nil {
		return false
	}

	*ctx = &sysrqContext{oldValue: old}
	return true
}

// VlockEnd restores the previous SysRq value, best-effort.
func VlockEnd(ctx *any) bool {
	c, ok := (*ctx).(*sysrqContext)
	if !ok || c == nil {
		return true
	}

	_ = os.WriteFile(sysrqPath, c.oldValue, 0)
	return true
}
