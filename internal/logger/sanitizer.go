package logger

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

const mask = "***"

// secretParams are key=value parameters whose value never reaches a log,
// wherever they appear: DSN query strings, URLs or free text.
var secretParams = []string{
	"password", "passwd", "pwd",
	"_auth_pass", "_auth_user",
	"token", "access_token", "api_key", "apikey",
}

// sensitiveKeys are substrings marking a structured log key as secret
var sensitiveKeys = []string{
	"password", "passwd", "pwd",
	"token", "secret", "api_key", "apikey",
	"credential", "auth", "dsn",
}

// Sanitizer scrubs log messages and attribute values.
//
// Messages go through regex rules; attribute values are masked only when
// their key looks sensitive, so a secret stored under a harmless key such
// as "url" relies on the message rules alone.
type Sanitizer struct {
	mu    sync.RWMutex
	rules []SanitizeRule
}

// SanitizeRule replaces every match of Pattern
type SanitizeRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// NewSanitizer creates a sanitizer with the built-in rules
func NewSanitizer() *Sanitizer {
	return &Sanitizer{rules: builtinRules()}
}

// NewSanitizerWith adds one masking rule per pattern to the built-in ones.
// Used for installation specific secrets listed in logging.redact.
func NewSanitizerWith(patterns []string) (*Sanitizer, error) {
	s := NewSanitizer()
	for _, p := range patterns {
		if err := s.AddRule(p, mask); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func builtinRules() []SanitizeRule {
	params := make([]string, len(secretParams))
	for i, p := range secretParams {
		params[i] = regexp.QuoteMeta(p)
	}

	return []SanitizeRule{
		// only the value is dropped, so "?_auth_pass=x&mode=ro" keeps mode=ro
		{regexp.MustCompile(`(?i)\b(` + strings.Join(params, "|") + `)=[^&\s]+`), "${1}=" + mask},
		{regexp.MustCompile(`(?i)\bbearer\s+\S+`), "bearer " + mask},

		// user:password@host in URLs
		{regexp.MustCompile(`(://[^/:@\s]+):[^@/\s]+@`), "${1}:" + mask + "@"},

		// data directories under personal homes
		{regexp.MustCompile(`(?i)[A-Z]:\\Users\\[^\\]+`), mask + `:\Users\` + mask},
		{regexp.MustCompile(`/home/[^/\s]+`), "/home/" + mask},
		{regexp.MustCompile(`/Users/[^/\s]+`), "/Users/" + mask},

		{regexp.MustCompile(`([a-zA-Z0-9._%+-]{1,3})[a-zA-Z0-9._%+-]*@([a-zA-Z0-9-]+\.)`), "${1}" + mask + "@${2}"},
	}
}

// Sanitize applies every rule to input
func (s *Sanitizer) Sanitize(input string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rule := range s.rules {
		input = rule.Pattern.ReplaceAllString(input, rule.Replacement)
	}
	return input
}

// SanitizeArgs returns a copy of key/value args with the string or error
// values of sensitive keys masked. args itself is not modified.
func (s *Sanitizer) SanitizeArgs(args []any) []any {
	if len(args) == 0 {
		return args
	}

	out := make([]any, len(args))
	copy(out, args)

	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok || !isSensitiveKey(key) {
			continue
		}
		switch v := out[i+1].(type) {
		case string:
			out[i+1] = maskValue(v)
		case error:
			out[i+1] = maskValue(v.Error())
		}
	}
	return out
}

// AddRule registers an extra regex rule
func (s *Sanitizer) AddRule(pattern, replacement string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid redact pattern %q: %w", pattern, err)
	}

	s.mu.Lock()
	s.rules = append(s.rules, SanitizeRule{Pattern: re, Replacement: replacement})
	s.mu.Unlock()
	return nil
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, sk := range sensitiveKeys {
		if strings.Contains(key, sk) {
			return true
		}
	}
	return false
}

// maskValue keeps at most the first and last character
func maskValue(value string) string {
	switch {
	case len(value) <= 2:
		return mask
	case len(value) <= 8:
		return value[:1] + mask
	default:
		return value[:1] + mask + value[len(value)-1:]
	}
}
