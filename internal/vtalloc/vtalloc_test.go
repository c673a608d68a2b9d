package vtalloc_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/vlock/internal/vtalloc"
)

// Allocate needs a real virtual console, which a test sandbox does not
// have; this only exercises that a non-console fd is rejected rather
// than silently accepted, regardless of which failure point rejects it.
func TestAllocate_FailsWithoutARealConsole(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "not-a-console")
	require.NoError(t, err)
	defer f.Close()

	_, err = vtalloc.Allocate(int(f.Fd()))
	require.Error(t, err)
}
