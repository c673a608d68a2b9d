package vlockenv_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/joeycumines/vlock/internal/vlockenv"
)

func TestParseSeconds(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want time.Duration
	}{
		{"empty is absent", "", 0},
		{"zero is absent", "0", 0},
		{"negative is absent", "-5", 0},
		{"trailing garbage is absent", "15x", 0},
		{"valid value", "15", 15 * time.Second},
		{"leading whitespace tolerated like strtol", " 15", 15 * time.Second},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, vlockenv.ParseSeconds(c.in))
		})
	}
}

func TestLoad_ReadsAllVariables(t *testing.T) {
	env := map[string]string{
		"VLOCK_MESSAGE":         "locked",
		"VLOCK_ALL_MESSAGE":     "all locked",
		"VLOCK_CURRENT_MESSAGE": "this one",
		"VLOCK_PROMPT_TIMEOUT":  "30",
		"VLOCK_TIMEOUT":         "60",
		"VLOCK_DEBUG":           "1",
	}

	cfg := vlockenv.Load(func(key string) string { return env[key] })

	assert.Equal(t, "locked", cfg.Message)
	assert.Equal(t, "all locked", cfg.AllMessage)
	assert.Equal(t, "this one", cfg.CurrentMessage)
	assert.Equal(t, 30*time.Second, cfg.PromptTimeout)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.True(t, cfg.Debug)
}

func TestLoad_DebugFalseWhenUnset(t *testing.T) {
	cfg := vlockenv.Load(func(string) string { return "" })
	assert.False(t, cfg.Debug)
	assert.Zero(t, cfg.PromptTimeout)
}
