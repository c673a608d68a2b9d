// Package registry implements the plugin registry and dependency resolver:
// loading plugins by name (trying the module backend, then the script
// backend), resolving the requires/needs/depends/conflicts relationships
// between the loaded set, and ordering the result according to
// succeeds/preceeds. This is the Go port of plugins.c's __load_plugin,
// __resolve_dependencies and sort_plugins.
package registry

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/joeycumines/logiface"

	"github.com/joeycumines/vlock/internal/llist"
	"github.com/joeycumines/vlock/internal/plugin"
	"github.com/joeycumines/vlock/internal/tsort"
)

type (
	// Loader loads a named plugin, or reports plugin.ErrNotFound if it has
	// none under that name.
	Loader interface {
		Load(name string) (*plugin.Plugin, error)
	}

	// Registry holds the set of currently loaded plugins, in load (and
	// later, resolved) order.
	Registry struct {
		loaders []Loader
		plugins *llist.List[*plugin.Plugin]
		logger  *logiface.Logger[logiface.Event]
	}

	// Option configures a Registry constructed by New.
	Option func(*Registry)
)

// WithLogger attaches a structured logger, used to report each plugin
// loaded, each plugin unloaded for a missing depends, and each edge of a
// circular dependency. Load failures and conflicts are reported only
// through the returned errors.
func WithLogger(l *logiface.Logger[logiface.Event]) Option {
	return func(r *Registry) { r.logger = l }
}

// New constructs an empty Registry that tries loaders, in order, for every
// plugin name it is asked to load. A typical caller passes the module
// backend first, then the script backend, matching __load_plugin's
// "try to open a module first" order.
func New(loaders []Loader, opts ...Option) *Registry {
	r := &Registry{
		loaders: loaders,
		plugins: &llist.List[*plugin.Plugin]{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the already-loaded plugin named name, or nil.
func (r *Registry) Get(name string) *plugin.Plugin {
	n := r.plugins.Find(func(p *plugin.Plugin) bool { return p.Name == name })
	if n == nil {
		return nil
	}
	return n.Value
}

// Plugins returns the currently loaded plugins, in their current order.
func (r *Registry) Plugins() []*plugin.Plugin {
	return r.plugins.ToSlice()
}

// Load returns the plugin named name, loading it via the first loader that
// has one if it isn't already loaded. A loader reporting anything other
// than plugin.ErrNotFound aborts the whole call: a module that exists but
// fails to open is a hard error, not a cue to fall back to a script of the
// same name.
func (r *Registry) Load(name string) (*plugin.Plugin, error) {
	// Only the final path element is a plugin name; the loaders build file
	// paths from it, so it must not carry directory components.
	name = filepath.Base(name)

	if p := r.Get(name); p != nil {
		return p, nil
	}

	for _, loader := range r.loaders {
		p, err := loader.Load(name)
		if err == nil {
			r.plugins.PushBack(p)
			r.logf("loaded plugin %q (instance %s)", name, p.InstanceID)
			return p, nil
		}
		if !errors.Is(err, plugin.ErrNotFound) {
			return nil, fmt.Errorf("load %q: %w", name, err)
		}
	}

	return nil, fmt.Errorf("load %q: %w", name, plugin.ErrNotFound)
}

// Unload destroys every loaded plugin and empties the registry.
func (r *Registry) Unload() {
	r.plugins.DeleteEach(func(n *llist.Node[*plugin.Plugin]) *llist.Node[*plugin.Plugin] {
		n.Value.Destroy()
		return r.plugins.Remove(n)
	})
}

// Resolve settles the dependency graph of the loaded plugins (requires,
// needs, depends, conflicts) and then orders them according to their
// succeeds/preceeds constraints. It must be called exactly once, after all
// explicitly requested plugins have been Load-ed and before any lifecycle
// hook is dispatched.
func (r *Registry) Resolve() error {
	if err := r.resolveDependencies(); err != nil {
		return err
	}
	return r.sortPlugins()
}

func (r *Registry) resolveDependencies() error {
	var required []*plugin.Plugin

	// requires: auto-load. The live list walk below picks up plugins
	// loaded mid-iteration (their own requires are considered in turn),
	// since Load appends to the same list this loop is walking.
	for n := r.plugins.Front(); n != nil; n = n.Next() {
		p := n.Value
		for _, d := range p.DependenciesOf(plugin.KindRequires) {
			q, err := r.Load(d)
			if err != nil {
				return fmt.Errorf("%q requires %q which could not be loaded: %w", p.Name, d, err)
			}
			required = append(required, q)
		}
	}

	// needs: hard requirement on an already-loaded plugin; never loads
	// anything itself.
	for n := r.plugins.Front(); n != nil; n = n.Next() {
		p := n.Value
		for _, d := range p.DependenciesOf(plugin.KindNeeds) {
			q := r.Get(d)
			if q == nil {
				return fmt.Errorf("%q needs %q which is not loaded", p.Name, d)
			}
			required = append(required, q)
		}
	}

	isRequired := func(p *plugin.Plugin) bool {
		for _, q := range required {
			if q == p {
				return true
			}
		}
		return false
	}

	// depends: prune plugins whose prerequisites are absent, unless the
	// plugin itself is required by another (in which case that's fatal).
	n := r.plugins.Front()
	for n != nil {
		p := n.Value

		var missing string
		for _, d := range p.DependenciesOf(plugin.KindDepends) {
			if r.Get(d) == nil {
				missing = d
				break
			}
		}

		if missing == "" {
			n = n.Next()
			continue
		}

		if isRequired(p) {
			return fmt.Errorf("%q is required by some other plugin but depends on %q which is not loaded", p.Name, missing)
		}

		r.logf("unloading %q: depends on %q which is not loaded", p.Name, missing)
		next := r.plugins.Remove(n)
		p.Destroy()
		n = next
	}

	// conflicts: fatal if both ends of a conflict are loaded.
	for cur := r.plugins.Front(); cur != nil; cur = cur.Next() {
		p := cur.Value
		for _, d := range p.DependenciesOf(plugin.KindConflicts) {
			if r.Get(d) != nil {
				return fmt.Errorf("%q and %q cannot be loaded at the same time", p.Name, d)
			}
		}
	}

	return nil
}

func (r *Registry) sortPlugins() error {
	nodes := r.plugins.ToSlice()
	var edges []tsort.Edge[*plugin.Plugin]

	for _, p := range nodes {
		for _, predName := range p.DependenciesOf(plugin.KindSucceeds) {
			if q := r.Get(predName); q != nil {
				edges = append(edges, tsort.Edge[*plugin.Plugin]{Predecessor: q, Successor: p})
			}
		}
		for _, succName := range p.DependenciesOf(plugin.KindPrecedes) {
			if q := r.Get(succName); q != nil {
				edges = append(edges, tsort.Edge[*plugin.Plugin]{Predecessor: p, Successor: q})
			}
		}
	}

	sorted, err := tsort.Sort(nodes, edges)
	if err != nil {
		var cycleErr *tsort.CycleError[*plugin.Plugin]
		if errors.As(err, &cycleErr) {
			for _, e := range cycleErr.Edges {
				r.logf("%s must come before %s", e.Predecessor.Name, e.Successor.Name)
			}
		}
		return fmt.Errorf("circular dependencies detected: %w", err)
	}

	newList := &llist.List[*plugin.Plugin]{}
	for _, p := range sorted {
		newList.PushBack(p)
	}
	r.plugins = newList

	return nil
}

func (r *Registry) logf(format string, args ...any) {
	if r.logger == nil {
		return
	}
	r.logger.Info().Log(fmt.Sprintf(format, args...))
}
