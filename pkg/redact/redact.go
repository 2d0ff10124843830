package redact

import (
	"regexp"
	"strings"
	"sync/atomic"
)

var enabled atomic.Bool

var (
	emailRe = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	phoneRe = regexp.MustCompile(`\b\+?\d[\d\s\-]{7,}\d\b`)
	keyRe   = regexp.MustCompile(`\bsk-[A-Za-z0-9_\-]{8,}\b`)
)

// SetEnabled toggles redaction. Off by default so development traces stay
// readable; production configs turn it on.
func SetEnabled(v bool) {
	enabled.Store(v)
}

// Enabled returns true when redaction is active.
func Enabled() bool {
	return enabled.Load()
}

// Text masks emails, phone numbers, and API keys when redaction is enabled.
// Customer-facing strings pass through observers on their way to disk, so
// this runs on every recorded string field.
func Text(in string) string {
	if !enabled.Load() || strings.TrimSpace(in) == "" {
		return in
	}
	out := emailRe.ReplaceAllString(in, "[REDACTED_EMAIL]")
	out = phoneRe.ReplaceAllString(out, "[REDACTED_PHONE]")
	out = keyRe.ReplaceAllString(out, "[REDACTED_KEY]")
	return out
}
