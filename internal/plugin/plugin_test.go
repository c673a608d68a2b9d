package plugin_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/vlock/internal/plugin"
)

type fakeBackend struct {
	initErr     error
	destroyed   bool
	hookResults map[plugin.Hook]bool
	calls       []plugin.Hook
}

func (f *fakeBackend) Init(p *plugin.Plugin) error {
	if f.initErr != nil {
		return f.initErr
	}
	p.Dependencies[plugin.KindRequires] = []string{"other"}
	return nil
}

func (f *fakeBackend) Destroy(p *plugin.Plugin) { f.destroyed = true }

func (f *fakeBackend) CallHook(p *plugin.Plugin, hook plugin.Hook) bool {
	f.calls = append(f.calls, hook)
	if f.hookResults == nil {
		return true
	}
	return f.hookResults[hook]
}

func TestNew_StripsDirectoryFromName(t *testing.T) {
	p, err := plugin.New("/usr/lib/vlock/all.so", &fakeBackend{})
	require.NoError(t, err)
	assert.Equal(t, "all.so", p.Name)
}

func TestNew_InitErrorPropagates(t *testing.T) {
	_, err := plugin.New("broken", &fakeBackend{initErr: errors.New("boom")})
	require.Error(t, err)
}

func TestNew_PopulatesDependencies(t *testing.T) {
	p, err := plugin.New("example", &fakeBackend{})
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, p.DependenciesOf(plugin.KindRequires))
	assert.Empty(t, p.DependenciesOf(plugin.KindConflicts))
}

func TestPlugin_CallHookDelegatesToBackend(t *testing.T) {
	backend := &fakeBackend{hookResults: map[plugin.Hook]bool{plugin.HookStart: true}}
	p, err := plugin.New("example", backend)
	require.NoError(t, err)

	assert.True(t, p.CallHook(plugin.HookStart))
	assert.False(t, p.CallHook(plugin.HookEnd))
	assert.Equal(t, []plugin.Hook{plugin.HookStart, plugin.HookEnd}, backend.calls)
}

func TestPlugin_Destroy(t *testing.T) {
	backend := &fakeBackend{}
	p, err := plugin.New("example", backend)
	require.NoError(t, err)

	p.Destroy()
	assert.True(t, backend.destroyed)
}

func TestNew_AssignsDistinctInstanceIDs(t *testing.T) {
	p1, err := plugin.New("example", &fakeBackend{})
	require.NoError(t, err)
	p2, err := plugin.New("example", &fakeBackend{})
	require.NoError(t, err)

	assert.NotEqual(t, plugin.Plugin{}.InstanceID, p1.InstanceID)
	assert.NotEqual(t, p1.InstanceID, p2.InstanceID)
}

func TestDependencyKind_WireNamePreservesMisspelling(t *testing.T) {
	assert.Equal(t, "preceeds", plugin.KindPrecedes.WireName())
	assert.Equal(t, "succeeds", plugin.KindSucceeds.WireName())
	assert.Equal(t, "conflicts", plugin.KindConflicts.WireName())
}
