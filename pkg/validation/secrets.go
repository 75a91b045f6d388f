// Package validation enforces structural, policy, and security invariants
// over generated workflow graphs, and provides the single bounded
// auto-repair pass.
package validation

import "regexp"

// placeholderPattern matches {{...}} expression tokens, which are the only
// sanctioned way to reference credentials in a generated graph.
var placeholderPattern = regexp.MustCompile(`\{\{[^}]*\}\}`)

// secretPatterns match literal secret-shaped strings: vendor key prefixes,
// bearer-shaped tokens, and credential keywords followed by a value.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{16,}`),
	regexp.MustCompile(`\bghp_[A-Za-z0-9]{20,}`),
	regexp.MustCompile(`\bxox[bap]-[A-Za-z0-9-]{10,}`),
	regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/-]{16,}`),
	regexp.MustCompile(`(?i)\b(api[_-]?key|secret|password)\b`),
}

// containsSecretLiteral reports whether value holds a secret-shaped string
// outside of {{placeholder}} tokens.
func containsSecretLiteral(value string) bool {
	stripped := placeholderPattern.ReplaceAllString(value, "")

	for _, pattern := range secretPatterns {
		if pattern.MatchString(stripped) {
			return true
		}
	}

	return false
}

// scanForSecrets walks parameters/credentials recursively and returns the
// paths of all string values matching a secret pattern.
func scanForSecrets(path string, value any) []string {
	var hits []string

	switch typed := value.(type) {
	case string:
		if containsSecretLiteral(typed) {
			hits = append(hits, path)
		}
	case map[string]any:
		for key, nested := range typed {
			hits = append(hits, scanForSecrets(path+"."+key, nested)...)
		}
	case []any:
		for _, nested := range typed {
			hits = append(hits, scanForSecrets(path+"[]", nested)...)
		}
	}

	return hits
}
