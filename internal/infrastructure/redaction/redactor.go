// Package redaction scrubs well-known secret shapes (cloud keys, tokens,
// private key headers) and configured field names from log output. It
// complements exact-value masking: it catches secrets the scope never bound.
package redaction

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
)

// DefaultPlaceholder is used when Config.Placeholder is empty.
const DefaultPlaceholder = "[REDACTED]"

// Redactor handles sanitization of sensitive data.
// All fields are read-only after construction, making it safe for concurrent use.
type Redactor struct {
	// If nil, only regex patterns apply.
	gitleaksDetector *detect.Detector
	placeholder      string
	salt             string
	patterns         []*regexp.Regexp
	paths            []string
	hashMode         bool
}

// Config holds the configuration for the Redactor.
type Config struct {
	// Placeholder replaces matches when HashMode is off.
	Placeholder string
	// Salt for hashing (prevents rainbow tables). If empty, hash is deterministic but unsalted.
	Salt string
	// Custom patterns to redact (e.g. "INT-[A-Z0-9]{16}")
	Patterns []string
	// Field names or dotted paths whose values are always redacted (e.g. "password", "db.token")
	Paths []string
	// If true, replace with hash instead of the placeholder
	HashMode bool
	// If true, skip the gitleaks rule set and use only regex patterns
	DisableGitleaks bool
}

// New creates a new Redactor with the given configuration.
func New(cfg Config) (*Redactor, error) {
	r := &Redactor{
		paths:       cfg.Paths,
		hashMode:    cfg.HashMode,
		salt:        cfg.Salt,
		placeholder: cfg.Placeholder,
		patterns:    make([]*regexp.Regexp, 0, len(cfg.Patterns)+len(defaultPatterns)),
	}
	if r.placeholder == "" {
		r.placeholder = DefaultPlaceholder
	}

	if !cfg.DisableGitleaks {
		detector, err := newGitleaksDetector()
		if err != nil {
			// Regex patterns still apply
			slog.Debug("gitleaks detector unavailable, using regex patterns only", "error", err)
		} else {
			r.gitleaksDetector = detector
		}
	}

	for _, p := range defaultPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to compile default pattern %s: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}

	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to compile custom pattern %s: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}

	return r, nil
}

// newGitleaksDetector creates a new gitleaks detector with default configuration.
func newGitleaksDetector() (*detect.Detector, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(strings.NewReader(config.DefaultConfig)); err != nil {
		return nil, fmt.Errorf("failed to read gitleaks config: %w", err)
	}

	var vc config.ViperConfig
	if err := v.Unmarshal(&vc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gitleaks config: %w", err)
	}

	cfg, err := vc.Translate()
	if err != nil {
		return nil, fmt.Errorf("failed to translate gitleaks config: %w", err)
	}

	return detect.NewDetector(cfg), nil
}

// ScrubField scrubs value as if it were found under the dotted path key.
// A value whose path is configured for redaction is replaced wholesale.
func (r *Redactor) ScrubField(key, value string) string {
	if r.isPathMatch(key) {
		return r.replacement(value)
	}
	return r.ScrubString(value)
}

// ScrubString replaces sensitive patterns in a string.
// The gitleaks rule set runs first, then the regex patterns.
func (r *Redactor) ScrubString(input string) string {
	if input == "" {
		return ""
	}

	result := input

	if r.gitleaksDetector != nil {
		findings := r.gitleaksDetector.Detect(detect.Fragment{Raw: result})
		for _, finding := range findings {
			if finding.Secret == "" {
				continue
			}
			result = strings.ReplaceAll(result, finding.Secret, r.replacement(finding.Secret))
		}
	}

	for _, re := range r.patterns {
		result = re.ReplaceAllStringFunc(result, r.replacement)
	}

	return result
}

func (r *Redactor) replacement(secret string) string {
	if r.hashMode {
		return r.hash(secret)
	}
	return r.placeholder
}

// Walk returns a copy of data with every string leaf replaced by
// scrub(path, leaf), where path is the dot-notation path of the leaf
// (e.g. "db.password"). Strings, []any, []string, map[string]any and
// map[string]string are traversed; other values are returned as they are.
func Walk(data any, path string, scrub func(path, s string) string) any {
	switch v := data.(type) {
	case string:
		return scrub(path, v)

	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = Walk(val, joinPath(path, k), scrub)
		}
		return out

	case map[string]string:
		out := make(map[string]string, len(v))
		for k, val := range v {
			out[k] = scrub(joinPath(path, k), val)
		}
		return out

	case []any:
		// List items share their parent's path: "users.password" covers every user.
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = Walk(val, path, scrub)
		}
		return out

	case []string:
		out := make([]string, len(v))
		for i, val := range v {
			out[i] = scrub(path, val)
		}
		return out

	default:
		return v
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// isPathMatch checks if the path matches any configured redact path.
//
// Matching rules:
//   - Exact match: "config.password" matches "config.password"
//   - Suffix match: "password" matches "any.nested.password"
func (r *Redactor) isPathMatch(path string) bool {
	if path == "" {
		return false
	}
	for _, p := range r.paths {
		if strings.EqualFold(p, path) {
			return true
		}
		if strings.HasSuffix(strings.ToLower(path), "."+strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// hash returns a truncated HMAC-SHA256 of the secret, formatted [hmac:<16 hex>].
// Truncation keeps correlation possible without exposing a full digest.
// A high-entropy salt is required against offline brute-forcing.
func (r *Redactor) hash(secret string) string {
	mac := hmac.New(sha256.New, []byte(r.salt))
	mac.Write([]byte(secret))
	sum := mac.Sum(nil)

	return fmt.Sprintf("[hmac:%s]", hex.EncodeToString(sum)[:16])
}

// defaultPatterns contains regexes for common secrets.
var defaultPatterns = []string{
	// AWS Access Key ID
	`\b((?:AKIA|ABIA|ACCA|ASIA)[0-9A-Z]{16})\b`,
	// Generic Private Key Header
	`-----BEGIN [A-Z ]+ PRIVATE KEY-----`,
	// Github Token
	`gh[pousr]_[A-Za-z0-9_]{36,255}`,
	// Slack Token
	`xox[baprs]-([0-9a-zA-Z]{10,48})?`,
	// HTTP basic authorization header value
	`(?i)\bBasic [A-Za-z0-9+/]{8,}={0,2}`,
}
