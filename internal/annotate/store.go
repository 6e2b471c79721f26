// Package annotate keeps viewer notes attached to log lines. Annotations are
// client-local, keyed by log identity rather than channel instance so they
// survive close/reopen, and only explicit user actions ever mutate them.
package annotate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkendall/sluice/internal/stream"
)

// Annotation is one note on one line.
type Annotation struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Store maps (identity, line) to annotations and persists the whole map on
// every mutation. The zero store is not usable; construct with Open.
type Store struct {
	path string

	mu    sync.Mutex
	notes map[string]map[int]Annotation
}

// Open loads the store from path. A missing file yields an empty store; a
// corrupt file is an error so unsaveable state is noticed before more notes
// are written into it.
func Open(path string) (*Store, error) {
	s := &Store{path: path, notes: make(map[string]map[int]Annotation)}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read annotations: %w", err)
	}
	if err := json.Unmarshal(raw, &s.notes); err != nil {
		return nil, fmt.Errorf("parse annotations: %w", err)
	}
	return s, nil
}

// Add records a note. Empty or whitespace-only text is silently ignored.
func (s *Store) Add(id stream.Identity, line int, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.Key()
	if s.notes[key] == nil {
		s.notes[key] = make(map[int]Annotation)
	}
	s.notes[key][line] = Annotation{Text: text, CreatedAt: time.Now()}
	return s.persistLocked()
}

// Edit replaces a note's text, preserving its creation time. Empty text
// degrades to Delete; whitespace-only text is ignored like Add.
func (s *Store) Edit(id stream.Identity, line int, text string) error {
	if text == "" {
		return s.Delete(id, line)
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.Key()
	existing, ok := s.notes[key][line]
	if !ok {
		return nil
	}
	existing.Text = text
	s.notes[key][line] = existing
	return s.persistLocked()
}

// Delete removes a note. Removing the last note for an identity drops the
// identity's entry entirely; no empty inner maps persist.
func (s *Store) Delete(id stream.Identity, line int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.Key()
	lines, ok := s.notes[key]
	if !ok {
		return nil
	}
	if _, ok := lines[line]; !ok {
		return nil
	}
	delete(lines, line)
	if len(lines) == 0 {
		delete(s.notes, key)
	}
	return s.persistLocked()
}

// Get returns a copy of the identity's notes by line number.
func (s *Store) Get(id stream.Identity) map[int]Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int]Annotation, len(s.notes[id.Key()]))
	for line, note := range s.notes[id.Key()] {
		out[line] = note
	}
	return out
}

// Next returns the first annotated line after from, wrapping to the earliest
// annotation when none follows. ok is false when the identity has no notes.
func (s *Store) Next(id stream.Identity, from int) (line int, ok bool) {
	lines := s.sortedLines(id)
	if len(lines) == 0 {
		return 0, false
	}
	for _, l := range lines {
		if l > from {
			return l, true
		}
	}
	return lines[0], true
}

// Prev returns the last annotated line before from, wrapping to the latest
// annotation when none precedes it.
func (s *Store) Prev(id stream.Identity, from int) (line int, ok bool) {
	lines := s.sortedLines(id)
	if len(lines) == 0 {
		return 0, false
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i] < from {
			return lines[i], true
		}
	}
	return lines[len(lines)-1], true
}

func (s *Store) sortedLines(id stream.Identity) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	inner := s.notes[id.Key()]
	lines := make([]int, 0, len(inner))
	for l := range inner {
		lines = append(lines, l)
	}
	sort.Ints(lines)
	return lines
}

func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create annotations dir: %w", err)
	}
	raw, err := json.MarshalIndent(s.notes, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal annotations: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write annotations: %w", err)
	}
	return nil
}
