//go:build linux

package vtalloc

import (
	"fmt"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	console = "/dev/tty0"
	vtNameFmt = "/dev/tty%d"

	vtOpenQry     = 0x5600
	vtGetState    = 0x5603
	vtActivate    = 0x5606
	vtWaitActive  = 0x5607
	vtDisallocate = 0x5608
)

// vtStat mirrors struct vt_stat from linux/vt.h; only v_active is used.
type vtStat struct {
	active  uint16
	signal  uint16
	state   uint16
}

type impl struct {
	consFD     int
	oldVTNo    int
	newVTNo    int
	savedStdin, savedStdout, savedStderr int
	released   bool
}

func ioctlPtr(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func ioctlArg(fd int, req uintptr, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

func getActiveConsole(consFD int) (int, error) {
	var st vtStat
	if err := ioctlPtr(consFD, vtGetState, unsafe.Pointer(&st)); err != nil {
		return -1, err
	}
	return int(st.active), nil
}

func activateConsole(consFD, vtNo int) error {
	if err := ioctlArg(consFD, vtActivate, uintptr(vtNo)); err != nil {
		return err
	}
	return ioctlArg(consFD, vtWaitActive, uintptr(vtNo))
}

func allocate(consoleFD int) (*Allocation, error) {
	a := &Allocation{}

	consFD, err := unix.Dup(consoleFD)
	if err != nil {
		return nil, fmt.Errorf("vtalloc: dup console fd: %w", err)
	}

	oldVTNo, err := getActiveConsole(consFD)
	if err != nil {
		_ = unix.Close(consFD)

		// The given fd is not itself a virtual console; open the
		// console device directly, as new.c falls back to doing.
		f, openErr := os.OpenFile(console, os.O_RDWR, 0)
		if openErr != nil {
			return nil, fmt.Errorf("vtalloc: cannot open virtual console: %w", openErr)
		}
		// Duplicate the fd so it survives f.Close() -- impl owns it
		// exclusively via consFD from here on.
		consFD, err = unix.Dup(int(f.Fd()))
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("vtalloc: dup console fd: %w", err)
		}

		oldVTNo, err = getActiveConsole(consFD)
		if err != nil {
			_ = unix.Close(consFD)
			return nil, fmt.Errorf("%w: %v", ErrNoActiveConsole, err)
		}
	}

	a.consFD = consFD
	a.oldVTNo = oldVTNo

	var newVTNo int
	if err := ioctlPtr(consFD, vtOpenQry, unsafe.Pointer(&newVTNo)); err != nil {
		a.cleanup()
		return nil, fmt.Errorf("vtalloc: could not find a free virtual terminal: %w", err)
	}
	a.newVTNo = newVTNo

	vtName := fmt.Sprintf(vtNameFmt, newVTNo)
	vtFile, err := os.OpenFile(vtName, os.O_RDWR, 0)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("vtalloc: cannot open new console: %w", err)
	}
	defer vtFile.Close()
	vtFD := int(vtFile.Fd())

	// Work around an X11 bug where switching immediately after the
	// command is entered can leave the enter key stuck.
	if os.Getenv("DISPLAY") != "" {
		time.Sleep(time.Second)
	}

	if err := activateConsole(consFD, newVTNo); err != nil {
		a.cleanup()
		return nil, fmt.Errorf("vtalloc: could not activate new terminal: %w", err)
	}

	a.savedStdin, _ = unix.Dup(unix.Stdin)
	a.savedStdout, _ = unix.Dup(unix.Stdout)
	a.savedStderr, _ = unix.Dup(unix.Stderr)

	_ = unix.Dup2(vtFD, unix.Stdin)
	_ = unix.Dup2(vtFD, unix.Stdout)
	_ = unix.Dup2(vtFD, unix.Stderr)

	return a, nil
}

func (a *impl) release() error {
	if a.released {
		return nil
	}
	a.released = true

	_ = unix.Dup2(a.savedStdin, unix.Stdin)
	_ = unix.Dup2(a.savedStdout, unix.Stdout)
	_ = unix.Dup2(a.savedStderr, unix.Stderr)
	_ = unix.Close(a.savedStdin)
	_ = unix.Close(a.savedStdout)
	_ = unix.Close(a.savedStderr)

	var activateErr error
	if err := activateConsole(a.consFD, a.oldVTNo); err != nil {
		activateErr = fmt.Errorf("vtalloc: could not activate previous console: %w", err)
	}

	_ = ioctlArg(a.consFD, vtDisallocate, uintptr(a.newVTNo))
	_ = unix.Close(a.consFD)

	return activateErr
}

func (a *impl) cleanup() {
	if a.consFD != 0 {
		_ = unix.Close(a.consFD)
	}
}
