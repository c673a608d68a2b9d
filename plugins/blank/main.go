// Command blank is a minimal screen-blanking save hook: vlock_save
// blanks the console via the TIOCLINUX ioctl, vlock_save_abort unblanks
// it. This supplements original_source/modules/ttyblank.c with the exact
// same mechanism (no libcaca/ncurses screensaver engine -- out of scope).
package main

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// TIOCL_BLANKSCREEN/TIOCL_UNBLANKSCREEN are subcodes of the single
// TIOCLINUX ioctl (the first byte of its argument selects the
// sub-operation), defined in linux/tiocl.h rather than as ioctl request
// numbers in their own right, so they are reproduced here directly.
const (
	tioclBlankScreen   = 14
	tioclUnblankScreen = 4
)

// Depends matches ttyblank.c's extern depends array: blanking the screen
// is meaningless unless "all" has also grabbed every console.
var Depends = []string{"all"}

func tiocLinux(sub byte) bool {
	arg := [2]byte{sub, 0}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, os.Stdin.Fd(), unix.TIOCLINUX, uintptr(unsafe.Pointer(&arg[0])))
	return errno == 0
}

func VlockSave(ctx *any) bool {
	return tiocLinux(tioclBlankScreen)
}

func VlockSaveAbort(ctx *any) bool {
	return tiocLinux(tioclUnblankScreen)
}
