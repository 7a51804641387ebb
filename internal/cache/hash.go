// Package cache fingerprints generator inputs and stores expansions on disk
// keyed by those fingerprints.
package cache

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
)

const fingerprintPrefix = "h1:"

// Part is one named input to a fingerprint.
type Part struct {
	Name    string
	Content []byte
}

// Fingerprint computes a hash over the parts. Parts are ordered by name and
// line endings are normalized, so the result does not depend on argument
// order or platform.
func Fingerprint(parts ...Part) string {
	sorted := make([]Part, len(parts))
	copy(sorted, parts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	h := sha256.New()
	for _, p := range sorted {
		h.Write([]byte(p.Name))
		h.Write([]byte{0})
		h.Write(normalizeLineEndings(p.Content))
		h.Write([]byte{0})
	}
	return fingerprintPrefix + base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// IsFingerprint reports whether s looks like a value produced by Fingerprint.
func IsFingerprint(s string) bool {
	if !strings.HasPrefix(s, fingerprintPrefix) {
		return false
	}
	raw, err := base64.StdEncoding.DecodeString(s[len(fingerprintPrefix):])
	return err == nil && len(raw) == sha256.Size
}

// Verify checks that actual matches expected.
func Verify(name, expected, actual string) error {
	if expected != actual {
		return &MismatchError{Name: name, Expected: expected, Actual: actual}
	}
	return nil
}

// MismatchError is returned when a fingerprint verification fails.
type MismatchError struct {
	Name     string
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("fingerprint mismatch for %s: expected %s, got %s", e.Name, e.Expected, e.Actual)
}

// normalizeLineEndings converts CRLF and lone CR to LF.
func normalizeLineEndings(data []byte) []byte {
	result := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\r' {
			if i+1 < len(data) && data[i+1] == '\n' {
				continue
			}
			result = append(result, '\n')
		} else {
			result = append(result, data[i])
		}
	}
	return result
}
