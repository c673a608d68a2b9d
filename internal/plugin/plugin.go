// Package plugin defines the common plugin abstraction shared by the
// module and script backends: the four lifecycle hooks, the six dependency
// kinds, and the Plugin/Backend types the registry drives.
package plugin

import (
	"errors"
	"path/filepath"

	"github.com/google/uuid"
)

type (
	// Hook identifies one of the four lifecycle entry points a plugin may
	// implement. Its string value is also the literal wire name used by
	// the module backend's symbol table and the script backend's stdin
	// protocol, so it must never be renamed.
	Hook string

	// DependencyKind identifies one of the six ways a plugin can relate
	// to others. WireName preserves the exact (including misspelled)
	// literal used on the module/script ABI; the Go identifiers
	// themselves use the corrected spelling.
	DependencyKind int

	// Backend implements one way of loading and driving a plugin: either
	// a dynamically loaded Go plugin (modulebackend) or an external
	// script/executable (scriptbackend).
	Backend interface {
		// Init is called once, immediately after the Plugin is
		// constructed, to let the backend populate its Dependencies and
		// perform any loading. Returning an error aborts construction.
		Init(p *Plugin) error
		// Destroy releases any resources the backend holds for p. It is
		// called at most once, and only for a Plugin whose Init
		// succeeded.
		Destroy(p *Plugin)
		// CallHook invokes the named hook and reports whether it
		// succeeded. Calling CallHook for a hook the plugin does not
		// implement reports success (a no-op hook never fails).
		CallHook(p *Plugin, hook Hook) bool
	}

	// Plugin is a single loaded plugin instance, regardless of backend.
	Plugin struct {
		// Name is the plugin's name, with any directory components
		// stripped -- plugin names double as file/lookup keys and so
		// must never be used to escape the plugin directory.
		Name string

		// InstanceID distinguishes this loaded instance from any other
		// (including, across a process's lifetime, a prior instance of a
		// plugin with the same Name that was unloaded and reloaded). It
		// exists purely to make debug log fields unambiguous, and carries
		// no meaning to the original C ABI.
		InstanceID uuid.UUID

		// Dependencies holds, for each DependencyKind, the plugin names
		// that kind of dependency names. Populated by the backend during
		// Init.
		Dependencies [numDependencyKinds][]string

		// SaveDisabled latches true the first time this plugin's
		// vlock_save or vlock_save_abort hook fails; once set it is never
		// cleared, and the lifecycle driver will not call vlock_save or
		// vlock_save_abort for this plugin again in the current session.
		SaveDisabled bool

		// Context is an opaque slot the backend may use to stash
		// per-instance state between hook calls (the Go analogue of the
		// original's `void *context`).
		Context any

		backend Backend
	}
)

const (
	HookStart     Hook = "vlock_start"
	HookEnd       Hook = "vlock_end"
	HookSave      Hook = "vlock_save"
	HookSaveAbort Hook = "vlock_save_abort"
)

// Hooks lists the four hooks in their canonical (declaration) order.
var Hooks = [...]Hook{HookStart, HookEnd, HookSave, HookSaveAbort}

const (
	KindSucceeds DependencyKind = iota
	KindPrecedes
	KindRequires
	KindNeeds
	KindDepends
	KindConflicts

	numDependencyKinds = 6
)

// DependencyKinds lists all six kinds in their canonical (declaration)
// order, matching dependency_names in the original plugin.h.
var DependencyKinds = [numDependencyKinds]DependencyKind{
	KindSucceeds, KindPrecedes, KindRequires, KindNeeds, KindDepends, KindConflicts,
}

// WireName returns the literal, lowercase name used for this kind on the
// module symbol table and the script stdin protocol. Preceeds is spelled
// exactly as the original ABI spells it.
func (k DependencyKind) WireName() string {
	switch k {
	case KindSucceeds:
		return "succeeds"
	case KindPrecedes:
		return "preceeds"
	case KindRequires:
		return "requires"
	case KindNeeds:
		return "needs"
	case KindDepends:
		return "depends"
	case KindConflicts:
		return "conflicts"
	default:
		return "unknown"
	}
}

// ErrNotFound is returned by a backend's Load when it has no plugin under
// the requested name at all (as opposed to having one that failed to
// load). The registry uses this distinction to decide whether to try the
// next backend or abort outright, matching the original's errno == ENOENT
// check in __load_plugin.
var ErrNotFound = errors.New("plugin: not found")

// New constructs a Plugin backed by backend, running the backend's Init.
// name is reduced to its final path element for safety, matching the
// original's "plugin names must not contain a slash" rule.
func New(name string, backend Backend) (*Plugin, error) {
	p := &Plugin{
		Name:       filepath.Base(name),
		InstanceID: uuid.New(),
		backend:    backend,
	}

	if err := backend.Init(p); err != nil {
		return nil, err
	}

	return p, nil
}

// Destroy releases the plugin's backend resources.
func (p *Plugin) Destroy() {
	p.backend.Destroy(p)
}

// CallHook invokes hook on p via its backend.
func (p *Plugin) CallHook(hook Hook) bool {
	return p.backend.CallHook(p, hook)
}

// DependenciesOf returns the dependency names of the given kind.
func (p *Plugin) DependenciesOf(kind DependencyKind) []string {
	return p.Dependencies[kind]
}
