// Package vlockenv parses the VLOCK_* environment variables into a Config,
// the Go equivalent of util.c's parse_seconds plus vlock-main.c's use of
// getenv for its various knobs.
package vlockenv

import (
	"strconv"
	"strings"
	"time"
)

// Config holds everything vlock's own main loop reads from the
// environment, as opposed to configuration that belongs to a specific
// plugin.
type Config struct {
	// Message is the banner shown before each prompt cycle. Empty means
	// "fall back to AllMessage or CurrentMessage".
	Message string
	// AllMessage is shown, when Message is empty, if all consoles were
	// locked (the "all" plugin was loaded).
	AllMessage string
	// CurrentMessage is shown, when Message is empty, if only the current
	// console was locked.
	CurrentMessage string
	// PromptTimeout bounds each authentication attempt, if positive. Zero
	// means "no timeout".
	PromptTimeout time.Duration
	// Timeout is how long vlock waits for input before triggering
	// vlock_save, if positive. Zero means "no timeout".
	Timeout time.Duration
	// Debug raises the log level to debug.
	Debug bool
}

// Getenv matches os.Getenv's signature, and is the seam Load takes its
// environment through, for testability.
type Getenv func(key string) string

// Load builds a Config by reading the VLOCK_* variables via getenv.
func Load(getenv Getenv) Config {
	return Config{
		Message:        getenv("VLOCK_MESSAGE"),
		AllMessage:     getenv("VLOCK_ALL_MESSAGE"),
		CurrentMessage: getenv("VLOCK_CURRENT_MESSAGE"),
		PromptTimeout:  ParseSeconds(getenv("VLOCK_PROMPT_TIMEOUT")),
		Timeout:        ParseSeconds(getenv("VLOCK_TIMEOUT")),
		Debug:          getenv("VLOCK_DEBUG") != "",
	}
}

// ParseSeconds parses s (interpreted as a whole number of seconds) into a
// Duration. It returns 0 (meaning "absent") if s is empty, contains
// trailing garbage after the number, or parses to a value <= 0 -- exactly
// parse_seconds' rejection rules, including its quirk that "0" itself
// means "absent" rather than "a zero-length timeout".
func ParseSeconds(s string) time.Duration {
	if s == "" {
		return 0
	}

	// strtol skips leading whitespace before the numeral; ParseInt does
	// not, so trim it here to match.
	n, err := strconv.ParseInt(strings.TrimLeft(s, " \t\n\v\f\r"), 10, 64)
	if err != nil || n <= 0 {
		return 0
	}

	return time.Duration(n) * time.Second
}
