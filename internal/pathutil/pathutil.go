// Package pathutil validates and canonicalizes candidate file paths before
// they are allowed anywhere near the output map or the disk.
package pathutil

import (
	"fmt"
	"strings"
)

const (
	minLen = 3
	maxLen = 255
)

// forbidden are characters that never appear in a sane relative path. The
// colon is handled separately so drive prefixes get a clearer error.
const forbidden = `<>"|?*`

// Normalize canonicalizes a candidate path and rejects anything unsafe or
// implausible. It trims whitespace, strips surrounding quotes and backticks,
// converts backslashes to forward slashes and collapses repeated slashes.
// Absolute paths, parent-directory traversal, URLs, over/undersized strings
// and prose-shaped strings are all rejected.
func Normalize(candidate string) (string, error) {
	s := strings.TrimSpace(candidate)
	s = stripWrapping(s)
	s = strings.ReplaceAll(s, `\`, "/")
	for strings.Contains(s, "//") {
		s = strings.ReplaceAll(s, "//", "/")
	}
	s = strings.TrimPrefix(s, "./")

	if s == "" {
		return "", fmt.Errorf("empty path")
	}
	lower := strings.ToLower(s)
	for _, scheme := range []string{"http://", "https://", "ftp://"} {
		if strings.HasPrefix(lower, scheme) {
			return "", fmt.Errorf("looks like a URL: %q", s)
		}
	}
	if strings.HasPrefix(s, "/") {
		return "", fmt.Errorf("absolute path: %q", s)
	}
	if isDrivePrefixed(s) {
		return "", fmt.Errorf("drive-letter path: %q", s)
	}
	for _, seg := range strings.Split(s, "/") {
		if seg == ".." {
			return "", fmt.Errorf("parent-directory traversal: %q", s)
		}
	}
	if len(s) < minLen || len(s) > maxLen {
		return "", fmt.Errorf("implausible length %d: %q", len(s), s)
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return "", fmt.Errorf("control character in path: %q", s)
		}
		if strings.ContainsRune(forbidden, r) || r == ':' {
			return "", fmt.Errorf("forbidden character %q in path: %q", r, s)
		}
	}
	if looksLikeProse(s) {
		return "", fmt.Errorf("looks like prose, not a path: %q", s)
	}
	if !strings.Contains(s, "/") && !strings.Contains(s, ".") {
		return "", fmt.Errorf("no separator or extension: %q", s)
	}
	return s, nil
}

// Valid reports whether Normalize would accept the candidate.
func Valid(candidate string) bool {
	_, err := Normalize(candidate)
	return err == nil
}

func stripWrapping(s string) string {
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}

// looksLikeProse flags sentence-shaped strings, e.g. "Here is the file."
// Spaces alone are not disqualifying: "My Documents/report v2.txt" is a
// legitimate path.
func looksLikeProse(s string) bool {
	if !strings.ContainsAny(s, " \t") {
		return false
	}
	switch s[len(s)-1] {
	case '.', '!', '?', ',', ';':
		return true
	}
	return false
}

func isDrivePrefixed(s string) bool {
	if len(s) < 2 || s[1] != ':' {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
