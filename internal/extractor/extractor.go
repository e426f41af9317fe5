// Package extractor pulls a failure message out of a stage's captured output,
// either by JSON path or by regular expression.
package extractor

import (
	"fmt"
	"regexp"

	"github.com/tidwall/gjson"
)

// Rule selects the message. When both fields are set the JSON path is tried
// first on each output.
type Rule struct {
	// JSONPath is a gjson path; a leading "$." is accepted and "$" selects
	// the whole document.
	JSONPath string
	// Regex returns its first capture group, or the whole match when it has
	// no groups.
	Regex *regexp.Regexp
}

// Compile builds a Rule, rejecting an invalid pattern.
func Compile(jsonPath, pattern string) (Rule, error) {
	r := Rule{JSONPath: normalizePath(jsonPath)}
	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return Rule{}, fmt.Errorf("message pattern %q: %w", pattern, err)
		}
		r.Regex = re
	}
	return r, nil
}

// Empty reports whether the rule can never match.
func (r Rule) Empty() bool {
	return r.JSONPath == "" && r.Regex == nil
}

// Extract applies the rule to each output in order and returns the first
// non-empty match.
func (r Rule) Extract(outputs ...[]byte) (string, bool) {
	for _, body := range outputs {
		if len(body) == 0 {
			continue
		}
		if r.JSONPath != "" {
			if v, ok := findJSONPath(body, r.JSONPath); ok {
				return v, true
			}
		}
		if r.Regex != nil {
			if v, ok := findRegex(body, r.Regex); ok {
				return v, true
			}
		}
	}
	return "", false
}

func normalizePath(path string) string {
	switch {
	case path == "$":
		return "@this"
	case len(path) > 1 && path[0] == '$' && path[1] == '.':
		return path[2:]
	default:
		return path
	}
}

func findJSONPath(body []byte, path string) (string, bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}
	res := gjson.GetBytes(body, path)
	if !res.Exists() || res.String() == "" {
		return "", false
	}
	return res.String(), true
}

func findRegex(body []byte, re *regexp.Regexp) (string, bool) {
	m := re.FindSubmatch(body)
	if m == nil {
		return "", false
	}
	v := m[0]
	if len(m) > 1 {
		v = m[1]
	}
	if len(v) == 0 {
		return "", false
	}
	return string(v), true
}
