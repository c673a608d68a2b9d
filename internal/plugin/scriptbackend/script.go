// Package scriptbackend implements the "script" plugin backend: plugins
// that are ordinary unprivileged executables, communicating with vlock
// over stdin/stdout rather than being loaded into its address space. This
// is the Go port of script.c.
//
// Dependency queries launch the script once per dependency kind with that
// kind's wire name as its sole argument; the script prints the names of the
// plugins it depends on, one per line, to stdout and exits. Hook delivery
// launches the script once, with "hooks" as its sole argument, and leaves
// it running for the lifetime of the plugin: each hook invocation writes
// the hook's wire name plus a newline to the script's stdin. A script that
// ever fails to accept a write is considered dead for the rest of the
// session.
package scriptbackend

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	vplugin "github.com/joeycumines/vlock/internal/plugin"

	"github.com/joeycumines/vlock/internal/proc"
)

const (
	// dependencyQueryTimeout bounds how long a single dependency query may
	// take to respond, mirroring script.c's one-second struct timeval.
	dependencyQueryTimeout = time.Second

	// maxDependencyReplyBytes bounds how much a dependency query may print,
	// mirroring script.c's LINE_MAX-based limit.
	maxDependencyReplyBytes = 2048

	// graceBeforeKill is how long a script is given to exit on its own
	// after its pipe is closed, before ensure_death-style escalation.
	graceBeforeKill = 500 * time.Millisecond
)

type (
	// Dir loads plugins as executables out of a single directory, each
	// named exactly "<plugin-name>".
	Dir struct {
		Path string
	}

	scriptContext struct {
		path    string
		child   *proc.Child
		dead    bool
		running bool
	}
)

// Load constructs a script-backed plugin for the executable at
// "<d.Path>/<name>". Returns vplugin.ErrNotFound if no such file exists.
func (d Dir) Load(name string) (*vplugin.Plugin, error) {
	path := fmt.Sprintf("%s/%s", d.Path, name)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, vplugin.ErrNotFound
		}
		return nil, fmt.Errorf("scriptbackend: stat %s: %w", path, err)
	}

	return vplugin.New(name, &loader{path: path})
}

type loader struct {
	path string
}

func (l *loader) Init(p *vplugin.Plugin) error {
	ctx := &scriptContext{path: l.path}

	group, gctx := errgroup.WithContext(context.Background())
	results := make([][]string, len(vplugin.DependencyKinds))

	for i, kind := range vplugin.DependencyKinds {
		i, kind := i, kind
		group.Go(func() error {
			names, err := queryDependency(gctx, ctx.path, kind.WireName())
			if err != nil {
				return err
			}
			results[i] = names
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("scriptbackend: query dependencies of %s: %w", l.path, err)
	}

	for i, kind := range vplugin.DependencyKinds {
		p.Dependencies[kind] = results[i]
	}

	p.Context = ctx
	return nil
}

func (l *loader) Destroy(p *vplugin.Plugin) {
	ctx, ok := p.Context.(*scriptContext)
	if !ok || !ctx.running {
		return
	}

	_ = ctx.child.Stdin.Close()

	if !ctx.child.WaitForDeath(graceBeforeKill) {
		ctx.child.EnsureDeath()
	}
}

func (l *loader) CallHook(p *vplugin.Plugin, hook vplugin.Hook) bool {
	ctx, ok := p.Context.(*scriptContext)
	if !ok {
		return true
	}

	if !ctx.running {
		child, err := proc.Spawn(&proc.Spec{
			Path:   ctx.path,
			Args:   []string{ctx.path, "hooks"},
			Stdin:  proc.Pipe,
			Stdout: proc.DevNull,
			Stderr: proc.DevNull,
		})
		if err != nil {
			ctx.dead = true
			return false
		}
		if f, ok := child.Stdin.(*os.File); ok {
			// A script that stops reading its stdin must not be able to
			// block the caller (in particular, authLoop's idle
			// Save/SaveAbort dispatch): a non-blocking fd turns a would-be
			// block into EAGAIN, which is treated the same as the script
			// being dead.
			_ = unix.SetNonblock(int(f.Fd()), true)
		}
		ctx.child = child
		ctx.running = true
	}

	if ctx.dead {
		return false
	}

	line := []byte(string(hook) + "\n")
	var n int
	var err error
	if sc, ok := ctx.child.Stdin.(syscall.Conn); ok {
		// Write on the raw fd: os.File.Write would wait on the runtime
		// poller for EAGAIN instead of returning it.
		raw, rerr := sc.SyscallConn()
		if rerr == nil {
			rerr = raw.Write(func(fd uintptr) bool {
				n, err = unix.Write(int(fd), line)
				return true
			})
		}
		if rerr != nil {
			err = rerr
		}
	} else {
		n, err = ctx.child.Stdin.Write(line)
	}
	if err != nil && !errors.Is(err, unix.EAGAIN) {
		ctx.dead = true
		return false
	}
	if err != nil || n != len(line) {
		// EAGAIN, or a short write: the script isn't keeping up with its
		// stdin, so it's latched dead for the rest of the session exactly
		// as a hard write failure would be.
		ctx.dead = true
		return false
	}

	return true
}

// queryDependency launches the script with dependencyName as its sole
// argument and collects its stdout as a whitespace-separated list of
// plugin names, bounding both the time taken and the bytes read.
func queryDependency(ctx context.Context, path, dependencyName string) ([]string, error) {
	child, err := proc.Spawn(&proc.Spec{
		Path:   path,
		Args:   []string{path, dependencyName},
		Stdin:  proc.DevNull,
		Stdout: proc.Pipe,
		Stderr: proc.DevNull,
	})
	if err != nil {
		return nil, fmt.Errorf("launch: %w", err)
	}
	defer func() {
		if !child.WaitForDeath(graceBeforeKill) {
			child.EnsureDeath()
		}
	}()

	readCtx, cancel := context.WithTimeout(ctx, dependencyQueryTimeout)
	defer cancel()

	type readResult struct {
		data []byte
		err  error
	}
	done := make(chan readResult, 1)

	go func() {
		limited := io.LimitReader(child.Stdout, maxDependencyReplyBytes+1)
		data, err := io.ReadAll(limited)
		done <- readResult{data: data, err: err}
	}()

	select {
	case <-readCtx.Done():
		return nil, fmt.Errorf("dependency query %s: timed out", dependencyName)
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("dependency query %s: %w", dependencyName, r.err)
		}
		if len(r.data) > maxDependencyReplyBytes {
			return nil, fmt.Errorf("dependency query %s: reply too large", dependencyName)
		}
		return parseDependencyList(r.data), nil
	}
}

// parseDependencyList splits a dependency query's stdout into plugin
// names, one per whitespace-delimited token, matching parse_dependency's
// strtok_r(data, " \r\n", ...) behaviour.
func parseDependencyList(data []byte) []string {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		token := strings.TrimSpace(scanner.Text())
		if token != "" {
			names = append(names, token)
		}
	}
	return names
}
