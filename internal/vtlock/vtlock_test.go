package vtlock_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/vlock/internal/vtlock"
)

// A regular file is never a virtual console, so Lock must reject it with
// ErrNotVirtualConsole on every platform this package builds for -- on
// Linux because VT_GETMODE itself fails with ENOTTY, on everything else
// because the fallback implementation always returns that error.
func TestSwitch_Lock_RejectsNonConsoleFD(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "not-a-console")
	require.NoError(t, err)
	defer f.Close()

	var s vtlock.Switch
	err = s.Lock(int(f.Fd()))
	require.ErrorIs(t, err, vtlock.ErrNotVirtualConsole)
	assert.False(t, s.Locked())
}

func TestSwitch_Unlock_NoopWhenNeverLocked(t *testing.T) {
	var s vtlock.Switch
	assert.NoError(t, s.Unlock())
	assert.False(t, s.Locked())
}
