// Package model contains domain models passed between layers.
package model

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Student is a registry record for one enrolled student.
// Identity is defined solely by ID; all other fields are descriptive.
type Student struct {
	FirstName  string // given name as it appears in the registry
	LastName   string // family name
	Department string // department code, e.g. "CS"
	ID         string // opaque identifier, numeric-looking but never parsed
	Email      string
	Withdrawn  bool // defaults to false when absent from source data
}

// FullName returns "first last" as used for fuzzy candidate keys.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// Key returns the ASCII-transliterated full name used for matching.
func (s Student) Key() string {
	return Transliterate(s.FullName())
}

// DirName returns the student's directory name under the project root,
// following the {last_name}_{id} scheme.
func (s Student) DirName() string {
	return s.LastName + "_" + s.ID
}

// Transliterate strips diacritics down to plain ASCII. Applying it to an
// already-ASCII string is a no-op, so it is safe to call repeatedly.
func Transliterate(s string) string {
	return unidecode.Unidecode(s)
}

// NormalizeFileName makes a filename transport-safe: spaces, slashes and
// hyphens removed or replaced, diacritics transliterated.
func NormalizeFileName(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "-", "")
	return Transliterate(name)
}

// Dedupe keeps the first occurrence of each student ID, preserving order.
func Dedupe(students []Student) []Student {
	seen := make(map[string]struct{}, len(students))
	out := make([]Student, 0, len(students))
	for _, s := range students {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}
