// Command new is vlock's console allocation plugin: vlock_start opens a
// free virtual terminal, switches to it and redirects this process's
// stdio there; vlock_end switches back and releases it. Ported from
// original_source/modules/new.c.
package main

import (
	"os"

	"github.com/joeycumines/vlock/internal/vtalloc"
)

// Preceeds and Requires match new.c's extern arrays exactly: the new
// console must be in place before "all" grabs console switching, and
// loading "new" always pulls "all" in with it.
var (
	Preceeds = []string{"all"}
	Requires = []string{"all"}
)

func VlockStart(ctx *any) bool {
	alloc, err := vtalloc.Allocate(int(os.Stdin.Fd()))
	if err != nil {
		return false
	}
	*ctx = alloc
	return true
}

func VlockEnd(ctx *any) bool {
	alloc, ok := (*ctx).(*vtalloc.Allocation)
	if !ok || alloc == nil {
		return true
	}
	return alloc.Release() == nil
}
