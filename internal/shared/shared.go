// package shared defines shared helpers
package shared

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// stateSize is the number of random bytes in an OAuth state token (128 bits).
const stateSize = 16

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// ParseLogLevel converts a config string ("debug", "info", ...) to a [log.Level], defaulting to info.
func ParseLogLevel(s string) log.Level {
	if s == "" {
		return log.InfoLevel
	}
	lvl, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// ValidID reports whether s is a UUID as produced by [GenerateID].
func ValidID(s string) bool {
	return uuid.Validate(s) == nil
}

// GenerateState returns a random, URL-safe OAuth state token.
func GenerateState() (string, error) {
	buf := make([]byte, stateSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Truncate shortens s to n runes followed by "..." when it is longer than n.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
