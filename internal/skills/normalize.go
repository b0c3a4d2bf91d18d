package skills

import "strings"

// Normalize folds a skill name for set comparison: trimmed, lowercased, inner whitespace collapsed.
func Normalize(skill string) string {
	return strings.Join(strings.Fields(strings.ToLower(skill)), " ")
}

// Set is a normalized skill set.
type Set map[string]struct{}

// NewSet builds a normalized set, skipping blank names.
func NewSet(names []string) Set {
	set := make(Set, len(names))
	for _, name := range names {
		if n := Normalize(name); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// Intersect returns the names from other (in their original order and spelling) that are present in s.
func (s Set) Intersect(other []string) []string {
	seen := make(map[string]struct{}, len(other))
	matched := make([]string, 0)
	for _, name := range other {
		n := Normalize(name)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		if _, ok := s[n]; ok {
			matched = append(matched, name)
		}
	}
	return matched
}

// Dedupe removes blank and duplicate names (by normalized form), keeping the first spelling.
func Dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		n := Normalize(trimmed)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
