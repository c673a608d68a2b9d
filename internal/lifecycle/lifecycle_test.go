package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/vlock/internal/lifecycle"
	"github.com/joeycumines/vlock/internal/plugin"
)

// scriptedBackend lets a test dictate exactly which hook calls succeed,
// and records every hook call it receives for assertions on order.
type scriptedBackend struct {
	fail  map[plugin.Hook]bool
	calls *[]string
}

func (s *scriptedBackend) Init(p *plugin.Plugin) error { return nil }
func (s *scriptedBackend) Destroy(p *plugin.Plugin)    {}
func (s *scriptedBackend) CallHook(p *plugin.Plugin, hook plugin.Hook) bool {
	*s.calls = append(*s.calls, p.Name+":"+string(hook))
	return !s.fail[hook]
}

func newPlugin(t *testing.T, name string, calls *[]string, fail ...plugin.Hook) *plugin.Plugin {
	t.Helper()
	failSet := map[plugin.Hook]bool{}
	for _, h := range fail {
		failSet[h] = true
	}
	p, err := plugin.New(name, &scriptedBackend{fail: failSet, calls: calls})
	require.NoError(t, err)
	return p
}

func TestDriver_Start_AllSucceedInOrder(t *testing.T) {
	var calls []string
	plugins := []*plugin.Plugin{
		newPlugin(t, "a", &calls),
		newPlugin(t, "b", &calls),
		newPlugin(t, "c", &calls),
	}

	d := lifecycle.New()
	require.NoError(t, d.Start(plugins))

	assert.Equal(t, []string{"a:vlock_start", "b:vlock_start", "c:vlock_start"}, calls)
}

func TestDriver_Start_FailureRollsBackEarlierPluginsInReverse(t *testing.T) {
	var calls []string
	plugins := []*plugin.Plugin{
		newPlugin(t, "a", &calls),
		newPlugin(t, "b", &calls),
		newPlugin(t, "c", &calls, plugin.HookStart),
		newPlugin(t, "d", &calls),
	}

	d := lifecycle.New()
	err := d.Start(plugins)

	require.Error(t, err)
	assert.Equal(t, []string{
		"a:vlock_start", "b:vlock_start", "c:vlock_start",
		"b:vlock_end", "a:vlock_end",
	}, calls)
}

func TestDriver_End_ReverseOrderNeverFails(t *testing.T) {
	var calls []string
	plugins := []*plugin.Plugin{
		newPlugin(t, "a", &calls),
		newPlugin(t, "b", &calls, plugin.HookEnd),
		newPlugin(t, "c", &calls),
	}

	d := lifecycle.New()
	d.End(plugins) // must not panic despite b's end hook failing

	assert.Equal(t, []string{"c:vlock_end", "b:vlock_end", "a:vlock_end"}, calls)
}

func TestDriver_Save_FailurePlugInvokesAbortAndLatches(t *testing.T) {
	var calls []string
	plugins := []*plugin.Plugin{
		newPlugin(t, "a", &calls),
		newPlugin(t, "b", &calls, plugin.HookSave),
		newPlugin(t, "c", &calls),
	}

	d := lifecycle.New()
	d.Save(plugins)

	assert.Equal(t, []string{
		"a:vlock_save", "b:vlock_save", "b:vlock_save_abort", "c:vlock_save",
	}, calls)
	assert.True(t, plugins[1].SaveDisabled)
	assert.False(t, plugins[0].SaveDisabled)
}

func TestDriver_Save_SkipsAlreadyDisabledPlugin(t *testing.T) {
	var calls []string
	p := newPlugin(t, "a", &calls)
	p.SaveDisabled = true

	d := lifecycle.New()
	d.Save([]*plugin.Plugin{p})

	assert.Empty(t, calls)
}

func TestDriver_SaveAbort_ReverseOrderAndLatchOnFailure(t *testing.T) {
	var calls []string
	plugins := []*plugin.Plugin{
		newPlugin(t, "a", &calls),
		newPlugin(t, "b", &calls, plugin.HookSaveAbort),
	}

	d := lifecycle.New()
	d.SaveAbort(plugins)

	assert.Equal(t, []string{"b:vlock_save_abort", "a:vlock_save_abort"}, calls)
	assert.True(t, plugins[1].SaveDisabled)
}
