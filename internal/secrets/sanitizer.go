// Package secrets redacts sensitive values from text before it is logged or displayed.
package secrets

import (
	"regexp"
)

// Redacted is the placeholder substituted for every matched secret.
const Redacted = "[REDACTED]"

// defaultPatterns is the ordered set of redaction patterns. Order matters: the
// specific credential forms run before the generic assignment patterns so that
// a line is redacted by the most precise rule that applies.
var defaultPatterns = []*regexp.Regexp{
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),                           // AWS access key ID
	regexp.MustCompile(`(?i)aws_secret_access_key\s*=\s*\S+`),        // AWS secret key assignment
	regexp.MustCompile(`ghp_[a-zA-Z0-9]{36}`),                        // GitHub PAT
	regexp.MustCompile(`gho_[a-zA-Z0-9]{36}`),                        // GitHub OAuth token
	regexp.MustCompile(`ghs_[a-zA-Z0-9]{36}`),                        // GitHub App token
	regexp.MustCompile(`github_pat_[a-zA-Z0-9_]{82}`),                // GitHub fine-grained PAT
	regexp.MustCompile(`(?i)token\s*[:=]\s*["']?\S{20,}`),            // generic token assignment
	regexp.MustCompile(`(?i)password\s*[:=]\s*["']?\S{8,}`),          // generic password assignment
	regexp.MustCompile(`(?i)secret\s*[:=]\s*["']?\S{8,}`),            // generic secret assignment
	regexp.MustCompile(`-----BEGIN (?:RSA |EC )?PRIVATE KEY-----`),   // private key block
	regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), // email address
}

// Sanitizer applies an ordered list of redaction patterns to text.
type Sanitizer struct {
	patterns []*regexp.Regexp
}

// NewSanitizer creates a Sanitizer with the default pattern set.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{patterns: defaultPatterns}
}

// NewSanitizerWithPatterns creates a Sanitizer with a custom pattern set.
// Patterns are applied in the order given.
func NewSanitizerWithPatterns(patterns []*regexp.Regexp) *Sanitizer {
	return &Sanitizer{patterns: patterns}
}

// Sanitize replaces every pattern match in text with the Redacted placeholder.
func (s *Sanitizer) Sanitize(text string) string {
	for _, p := range s.patterns {
		text = p.ReplaceAllString(text, Redacted)
	}
	return text
}

// Sanitize redacts text using the default pattern set.
func Sanitize(text string) string {
	return NewSanitizer().Sanitize(text)
}
