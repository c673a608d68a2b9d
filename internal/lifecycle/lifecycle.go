// Package lifecycle drives the four plugin hooks across a resolved and
// ordered set of plugins, with the ordering and failure-handling rules of
// plugins.c's handle_vlock_start/end/save/save_abort.
package lifecycle

import (
	"fmt"

	"github.com/joeycumines/logiface"

	"github.com/joeycumines/vlock/internal/plugin"
)

type (
	// Driver calls plugin hooks in the order and with the failure policy
	// the lock session requires.
	Driver struct {
		logger *logiface.Logger[logiface.Event]
	}

	// Option configures a Driver constructed by New.
	Option func(*Driver)
)

// WithLogger attaches a structured logger for hook-failure diagnostics.
func WithLogger(l *logiface.Logger[logiface.Event]) Option {
	return func(d *Driver) { d.logger = l }
}

// New constructs a Driver.
func New(opts ...Option) *Driver {
	d := &Driver{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start calls vlock_start on each plugin, forward. If any plugin's hook
// fails, every plugin called before it has its vlock_end hook invoked, in
// reverse order, as a best-effort rollback, and an error naming the failed
// plugin is returned. Callers should treat a non-nil error as fatal to the
// whole lock session (the original process simply exits).
func (d *Driver) Start(plugins []*plugin.Plugin) error {
	for i, p := range plugins {
		if p.CallHook(plugin.HookStart) {
			continue
		}

		d.logf("plugin %q failed vlock_start, rolling back", p.Name)
		for j := i - 1; j >= 0; j-- {
			plugins[j].CallHook(plugin.HookEnd)
		}

		return fmt.Errorf("plugin %q failed", p.Name)
	}

	return nil
}

// End calls vlock_end on each plugin, in reverse order. It never fails: a
// plugin whose end hook reports failure is simply noted and skipped over.
func (d *Driver) End(plugins []*plugin.Plugin) {
	for i := len(plugins) - 1; i >= 0; i-- {
		if !plugins[i].CallHook(plugin.HookEnd) {
			d.logf("plugin %q failed vlock_end", plugins[i].Name)
		}
	}
}

// Save calls vlock_save on each plugin, forward, skipping any whose
// SaveDisabled latch is already set. A plugin whose save hook fails has
// its vlock_save_abort called immediately and its latch set, but this
// never aborts the pass over the remaining plugins.
func (d *Driver) Save(plugins []*plugin.Plugin) {
	for _, p := range plugins {
		if p.SaveDisabled {
			continue
		}

		if !p.CallHook(plugin.HookSave) {
			p.SaveDisabled = true
			p.CallHook(plugin.HookSaveAbort)
			d.logf("plugin %q failed vlock_save, save disabled for this session", p.Name)
		}
	}
}

// SaveAbort calls vlock_save_abort on each plugin, in reverse order,
// skipping any whose SaveDisabled latch is already set. A plugin whose
// abort hook itself fails has its latch set, same as Save, so it is never
// called again this session.
func (d *Driver) SaveAbort(plugins []*plugin.Plugin) {
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if p.SaveDisabled {
			continue
		}

		if !p.CallHook(plugin.HookSaveAbort) {
			p.SaveDisabled = true
			d.logf("plugin %q failed vlock_save_abort, save disabled for this session", p.Name)
		}
	}
}

func (d *Driver) logf(format string, args ...any) {
	if d.logger == nil {
		return
	}
	d.logger.Warning().Log(fmt.Sprintf(format, args...))
}
