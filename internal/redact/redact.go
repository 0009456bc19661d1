package redact

import (
	"regexp"
	"strings"
)

const placeholder = "[REDACTED]"

type rule struct {
	re   *regexp.Regexp
	repl string
}

// secretRules are regex heuristics for credentials that can leak into
// provider error messages, request URLs and logs. Order matters: bearer
// tokens go before the generic header rule.
var secretRules = []rule{
	// Google API keys (Gemini, AI Studio)
	{regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`), placeholder},
	// key=... query parameters in echoed request URLs
	{regexp.MustCompile(`([?&](?:key|api_key|apikey)=)[^&\s"']+`), "${1}" + placeholder},
	// Bearer tokens
	{regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`), placeholder},
	// Header echoes
	{regexp.MustCompile(`(?i)(x-goog-api-key|authorization)(["']?\s*[:=]\s*["']?)[^\s"',}]+`), "${1}${2}" + placeholder},
	// Generic API keys in assignments
	{regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`), placeholder},
	// JWTs
	{regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`), placeholder},
	// Generic secrets/tokens/passwords in assignments
	{regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`), placeholder},
}

// Secrets replaces detected secrets in text with [REDACTED]. For query
// parameters and header echoes the name is kept and only the value replaced.
func Secrets(text string) string {
	result := text
	for _, r := range secretRules {
		result = r.re.ReplaceAllString(result, r.repl)
	}
	return result
}

// Error returns err's message with secrets removed, or "" for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return Secrets(err.Error())
}

// Mask hides all but the last four characters of a credential.
func Mask(secret string) string {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
