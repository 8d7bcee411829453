package trustlist

import "strings"

// Set is an immutable snapshot of the trusted-handle set. Handles are stored
// normalized (lower-case, no "@") in list order; Intersect reports matches in
// that order.
type Set struct {
	ordered []string
	members map[string]struct{}
}

// NewSet builds a set from normalized handles, deduplicating while keeping the
// first occurrence's position.
func NewSet(handles []string) *Set {
	s := &Set{members: make(map[string]struct{}, len(handles))}
	for _, h := range handles {
		if _, ok := s.members[h]; ok {
			continue
		}
		s.members[h] = struct{}{}
		s.ordered = append(s.ordered, h)
	}
	return s
}

// Contains reports membership of a handle, case-insensitively.
func (s *Set) Contains(handle string) bool {
	_, ok := s.members[normalize(handle)]
	return ok
}

// Handles returns the set contents in iteration order. The caller owns the
// returned slice.
func (s *Set) Handles() []string {
	out := make([]string, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Len returns the number of distinct handles in the set.
func (s *Set) Len() int {
	return len(s.ordered)
}

// Intersect returns how many of the given follower handles are trusted, and
// which, ordered by the set's own iteration order. Duplicate followers do not
// double-count; neither input is mutated.
func (s *Set) Intersect(followerHandles []string) (int, []string) {
	if len(s.ordered) == 0 || len(followerHandles) == 0 {
		return 0, nil
	}

	followers := make(map[string]struct{}, len(followerHandles))
	for _, f := range followerHandles {
		followers[normalize(f)] = struct{}{}
	}

	var matched []string
	for _, trusted := range s.ordered {
		if _, ok := followers[trusted]; ok {
			matched = append(matched, trusted)
		}
	}
	return len(matched), matched
}

// ParseList parses the raw newline-delimited trusted-accounts document.
// Blank lines and "#" comments are skipped; handles are normalized and
// deduplicated first-wins.
func ParseList(raw string) []string {
	var handles []string
	seen := make(map[string]struct{})

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		handle := normalize(line)
		if handle == "" {
			continue
		}
		if _, ok := seen[handle]; ok {
			continue
		}
		seen[handle] = struct{}{}
		handles = append(handles, handle)
	}
	return handles
}

func normalize(handle string) string {
	return strings.ToLower(strings.ReplaceAll(handle, "@", ""))
}
