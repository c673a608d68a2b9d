//go:build linux

// Package modulebackend implements the "module" plugin backend: loading a
// compiled Go plugin (built with `go build -buildmode=plugin`) from the
// module directory and resolving its hook functions and dependency
// variables by exported symbol name. This is the Go analogue of
// module.c's dlopen/dlsym-based backend -- the Go runtime's own plugin
// package plays the role dlfcn.h plays in the original.
//
// Go's plugin package only supports linux, so this backend is built only
// there; on other platforms Dir.Load always reports vplugin.ErrNotFound,
// and the registry falls through to the script backend, same as it would
// for a module file that simply isn't present.
package modulebackend

import (
	"fmt"
	"os"
	goplugin "plugin"

	"golang.org/x/sys/unix"

	vplugin "github.com/joeycumines/vlock/internal/plugin"
)

// moduleSymbolNames maps each hook to the exported Go identifier a module
// must declare for it. The hook's own wire name (e.g. "vlock_start") can't
// be used directly: Go's plugin.Lookup only resolves exported (capitalized)
// package-level identifiers, so the ABI's hook names are written here in
// CamelCase, without their underscores.
var moduleSymbolNames = map[vplugin.Hook]string{
	vplugin.HookStart:     "VlockStart",
	vplugin.HookEnd:       "VlockEnd",
	vplugin.HookSave:      "VlockSave",
	vplugin.HookSaveAbort: "VlockSaveAbort",
}

// dependencySymbolNames maps each dependency kind to the exported []string
// variable name a module declares it under. The misspelling of "preceeds"
// is preserved, matching vlock_plugin.h's extern array name.
var dependencySymbolNames = map[vplugin.DependencyKind]string{
	vplugin.KindSucceeds:  "Succeeds",
	vplugin.KindPrecedes:  "Preceeds",
	vplugin.KindRequires:  "Requires",
	vplugin.KindNeeds:     "Needs",
	vplugin.KindDepends:   "Depends",
	vplugin.KindConflicts: "Conflicts",
}

type (
	// HookFunc is the signature a module must use for each exported hook
	// symbol. ctx is the module's private per-session state cell, the Go
	// analogue of the original's `void **` context pointer: nil on the
	// first call, and whatever the hook last assigned to *ctx thereafter.
	HookFunc func(ctx *any) bool

	// Dir loads plugins as Go plugin (.so) files out of a single
	// directory, named "<plugin-name>.so".
	Dir struct {
		Path string
	}

	moduleContext struct {
		dlHandle *goplugin.Plugin
		hooks    map[vplugin.Hook]HookFunc
		moduleData any
	}
)

// Load opens "<name>.so" under d.Path as a module-backed plugin. Returns
// vplugin.ErrNotFound if no such file exists, mirroring the original's
// access(2)-based check (performed manually because vlock may run setuid
// and dlopen itself doesn't set errno on failure).
func (d Dir) Load(name string) (*vplugin.Plugin, error) {
	path := fmt.Sprintf("%s/%s.so", d.Path, name)

	// access(2) checks read permission against the real UID/GID, which
	// plugin.Open would otherwise bypass when vlock runs setuid.
	if err := unix.Access(path, unix.R_OK); err != nil {
		if os.IsNotExist(err) {
			return nil, vplugin.ErrNotFound
		}
		return nil, fmt.Errorf("modulebackend: access %s: %w", path, err)
	}

	return vplugin.New(name, &loader{path: path})
}

type loader struct {
	path string
}

func (l *loader) Init(p *vplugin.Plugin) error {
	handle, err := goplugin.Open(l.path)
	if err != nil {
		return fmt.Errorf("modulebackend: open %s: %w", l.path, err)
	}

	b := &moduleContext{dlHandle: handle, hooks: map[vplugin.Hook]HookFunc{}}

	for hook, symbol := range moduleSymbolNames {
		sym, err := handle.Lookup(symbol)
		if err != nil {
			continue // hook not implemented by this module
		}
		fn, ok := sym.(func(*any) bool)
		if !ok {
			continue
		}
		b.hooks[hook] = fn
	}

	for kind, symbol := range dependencySymbolNames {
		sym, err := handle.Lookup(symbol)
		if err != nil {
			continue // dependency kind not declared by this module
		}
		names, ok := sym.(*[]string)
		if !ok || names == nil {
			continue
		}
		p.Dependencies[kind] = append([]string(nil), (*names)...)
	}

	p.Context = b
	return nil
}

func (l *loader) Destroy(p *vplugin.Plugin) {
	// Go's plugin package intentionally provides no Close/unload: loaded
	// plugins live for the lifetime of the process. Nothing to release.
}

func (l *loader) CallHook(p *vplugin.Plugin, hook vplugin.Hook) bool {
	b, ok := p.Context.(*moduleContext)
	if !ok {
		return true
	}

	fn, ok := b.hooks[hook]
	if !ok {
		return true
	}

	return fn(&b.moduleData)
}
