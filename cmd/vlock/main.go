// Command vlock locks the current virtual console (or all of them) until
// the invoking user re-authenticates. This is the Go port of
// vlock-main.c's glue: username resolution, signal blocking, terminal
// setup/restore, the plugin load/resolve/start sequence, the auth/save/
// timeout loop, and the atexit-equivalent cleanup chain.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"syscall"
	"time"

	"github.com/pkg/term/termios"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"

	"github.com/joeycumines/vlock/internal/authprompt"
	"github.com/joeycumines/vlock/internal/lifecycle"
	"github.com/joeycumines/vlock/internal/plugin"
	"github.com/joeycumines/vlock/internal/plugin/modulebackend"
	"github.com/joeycumines/vlock/internal/plugin/scriptbackend"
	"github.com/joeycumines/vlock/internal/proc"
	"github.com/joeycumines/vlock/internal/registry"
	"github.com/joeycumines/vlock/internal/vlockenv"
	"github.com/joeycumines/vlock/internal/vtlock"
)

// Default plugin directories, overridable via VLOCK_MODULE_DIR/
// VLOCK_SCRIPT_DIR. The original hardcodes these at compile time via
// -DMODULE_DIR/-DSCRIPT_DIR; an env var seam is the Go equivalent that
// does not require recompiling.
const (
	defaultModuleDir = "/usr/lib/vlock/modules"
	defaultScriptDir = "/usr/lib/vlock/scripts"
)

// authTries counts failed authentication attempts across the whole
// session, displayed once at exit, matching vlock-main.c's auth_tries.
var authTries int

// authenticator is the seam the out-of-scope PAM/shadow backend plugs
// into. The default always fails closed: no authentication backend is
// in scope for this module, only the seam it plugs into.
var authenticator authprompt.Authenticator = authenticatorFunc(func(context.Context, string) bool {
	return false
})

type authenticatorFunc func(ctx context.Context, user string) bool

func (f authenticatorFunc) Authenticate(ctx context.Context, user string) bool { return f(ctx, user) }

func main() {
	proc.MaybeRunRegisteredFunc()

	cfg := vlockenv.Load(os.Getenv)
	logger := newLogger(cfg)

	blockSignals()

	username, err := currentUsername()
	if err != nil {
		fatalErrorf("could not get username: %v", err)
	}

	defer displayAuthTries()

	reg := registry.New([]registry.Loader{
		modulebackend.Dir{Path: envOr("VLOCK_MODULE_DIR", defaultModuleDir)},
		scriptbackend.Dir{Path: envOr("VLOCK_SCRIPT_DIR", defaultScriptDir)},
	}, registry.WithLogger(logger))

	var plugins []*plugin.Plugin
	allLocked := false

	if len(os.Args) > 1 {
		for _, name := range os.Args[1:] {
			if _, err := reg.Load(name); err != nil {
				fatalErrorf("loading plugin %q failed: %v", name, err)
			}
		}
		defer reg.Unload()

		if err := reg.Resolve(); err != nil {
			fatalErrorf("error resolving plugin dependencies: %v", err)
		}

		driver := lifecycle.New(lifecycle.WithLogger(logger))
		plugins = reg.Plugins()
		if err := driver.Start(plugins); err != nil {
			fatalErrorf("%v", err)
		}
		defer driver.End(plugins)

		for _, p := range plugins {
			if p.Name == "all" {
				allLocked = true
			}
		}

		authLoop(context.Background(), cfg, username, allLocked, plugins, logger)
		return
	}

	var sw vtlock.Switch
	if err := sw.Lock(int(os.Stdin.Fd())); err != nil {
		fatalErrorf("could not disable console switching: %v", err)
	}
	defer sw.Unlock()
	allLocked = true

	if !isTTY() {
		fatalErrorf("stdin is not a terminal")
	}

	restoreTerm, err := setupTerminal(int(os.Stdin.Fd()))
	if err != nil {
		fatalErrorf("could not set up terminal: %v", err)
	}
	defer restoreTerm()

	authLoop(context.Background(), cfg, username, allLocked, nil, logger)
}

// authLoop is vlock-main.c's auth_loop: show the banner, wait for enter
// or escape (firing vlock_save/vlock_save_abort on an idle escape), then
// try authentication as the invoking user and, failing that, as root.
func authLoop(ctx context.Context, cfg vlockenv.Config, username string, allLocked bool, plugins []*plugin.Plugin, logger *logiface.Logger[logiface.Event]) {
	driver := lifecycle.New(lifecycle.WithLogger(logger))

	message := cfg.Message
	if message == "" {
		if allLocked {
			message = cfg.AllMessage
		} else {
			message = cfg.CurrentMessage
		}
	}

	for {
		if message != "" {
			fmt.Fprintln(os.Stderr, message)
		}

		waitCtx, cancel := authprompt.WithTimeout(ctx, cfg.Timeout)
		c, err := authprompt.WaitForCharacter(waitCtx, int(os.Stdin.Fd()), "\n\x1b")
		cancel()
		if err != nil {
			fatalErrorf("waiting for input: %v", err)
		}

		if c == 0 || c == '\x1b' {
			driver.Save(plugins)
			c, err = authprompt.WaitForCharacter(ctx, int(os.Stdin.Fd()), "")
			driver.SaveAbort(plugins)
			if err != nil {
				fatalErrorf("waiting for input: %v", err)
			}

			if c != '\n' {
				continue
			}
		}

		promptCtx, promptCancel := authprompt.WithTimeout(ctx, cfg.PromptTimeout)
		ok := authenticator.Authenticate(promptCtx, username)
		promptCancel()
		if ok {
			break
		}
		time.Sleep(time.Second)

		if username != "root" {
			rootCtx, rootCancel := authprompt.WithTimeout(ctx, cfg.PromptTimeout)
			ok := authenticator.Authenticate(rootCtx, "root")
			rootCancel()
			if ok {
				break
			}
			time.Sleep(time.Second)
		}

		authTries++
	}
}

func newLogger(cfg vlockenv.Config) *logiface.Logger[logiface.Event] {
	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}

	zl := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)
	return logiface.New[*izerolog.Event](izerolog.WithZerolog(zl)).Logger()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func currentUsername() (string, error) {
	if os.Getuid() == 0 {
		if u := os.Getenv("USER"); u != "" {
			return u, nil
		}
	}

	u, err := user.Current()
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

// blockSignals ignores SIGINT/SIGQUIT/SIGTSTP (redundant once the
// terminal's own signal-generating characters are disabled below, but
// harmless defence in depth as in the original) and installs a SIGTERM
// handler that prints the same diagnostic the original prints before its
// atexit-driven exit(1). Go has no atexit: a signal-driven exit here
// does not run main's deferred cleanups, same tradeoff the original
// accepts for SIGKILL (which its atexit chain also cannot intercept).
func blockSignals() {
	ignored := make(chan os.Signal, 8)
	signal.Notify(ignored, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTSTP)
	go func() {
		for range ignored {
		}
	}()

	term := make(chan os.Signal, 1)
	signal.Notify(term, syscall.SIGTERM)
	go func() {
		<-term
		fmt.Fprintln(os.Stderr, "vlock: Terminated!")
		os.Exit(1)
	}()
}

// setupTerminal is setup_terminal/restore_terminal: pressing enter must
// yield a line feed, and echoing plus the terminal's own signal-generating
// characters are disabled for the duration of the lock. The returned func
// restores the original termios, matching the original's atexit(restore_terminal).
func setupTerminal(fd int) (restore func(), err error) {
	old, err := termios.Tcgetattr(uintptr(fd))
	if err != nil {
		return nil, fmt.Errorf("tcgetattr: %w", err)
	}

	cur := *old
	cur.Iflag &^= unix.INLCR
	cur.Iflag |= unix.ICRNL
	cur.Lflag &^= unix.ECHO | unix.ISIG

	if err := termios.Tcsetattr(uintptr(fd), termios.TCSANOW, &cur); err != nil {
		return nil, fmt.Errorf("tcsetattr: %w", err)
	}

	return func() {
		_ = termios.Tcsetattr(uintptr(fd), termios.TCSANOW, old)
	}, nil
}

func isTTY() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func displayAuthTries() {
	if authTries > 0 {
		tries := "try"
		if authTries > 1 {
			tries = "tries"
		}
		fmt.Fprintf(os.Stderr, "%d failed authentication %s.\n", authTries, tries)
	}
}

func fatalErrorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "vlock: "+format+"\n", args...)
	os.Exit(1)
}
