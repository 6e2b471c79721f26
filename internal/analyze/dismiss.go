package analyze

import "fmt"

// DismissSet tracks error markers the viewer has hidden. Keys are "type-line"
// strings and the set lives for the process only; it is scoped globally, not
// per log identity, so two logs producing the same (type, line) pair share
// dismissal state. Dismissals never touch annotations.
type DismissSet struct {
	keys map[string]struct{}
}

// NewDismissSet returns an empty set.
func NewDismissSet() *DismissSet {
	return &DismissSet{keys: make(map[string]struct{})}
}

func dismissKey(typ string, line int) string {
	return fmt.Sprintf("%s-%d", typ, line)
}

// Dismiss hides a single detection.
func (s *DismissSet) Dismiss(typ string, line int) {
	s.keys[dismissKey(typ, line)] = struct{}{}
}

// DismissType hides every currently-detected entry of one type. Entries of
// other types on the same lines are unaffected.
func (s *DismissSet) DismissType(typ string, dets []Detection) {
	for _, d := range dets {
		if d.Type == typ {
			s.Dismiss(d.Type, d.Line)
		}
	}
}

// Dismissed reports whether a detection is hidden.
func (s *DismissSet) Dismissed(typ string, line int) bool {
	if s == nil {
		return false
	}
	_, ok := s.keys[dismissKey(typ, line)]
	return ok
}

// Len returns the number of dismissed keys.
func (s *DismissSet) Len() int { return len(s.keys) }
