package stream

import (
	"fmt"
	"strings"
)

// Kind selects which stream of a job's log group a channel follows.
type Kind string

const (
	KindStdout Kind = "stdout"
	KindStderr Kind = "stderr"
)

// ParseKind validates a wire-level kind value.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindStdout, KindStderr:
		return Kind(s), nil
	}
	return "", fmt.Errorf("invalid stream kind %q", s)
}

// Identity names one growable text stream: a job's log group plus the
// stdout/stderr selector. Immutable once a channel is opened on it.
type Identity struct {
	LogKey string
	Kind   Kind
}

// Key returns a stable map key for the identity.
func (id Identity) Key() string {
	return id.LogKey + "#" + string(id.Kind)
}

func (id Identity) String() string {
	return fmt.Sprintf("%s (%s)", id.LogKey, id.Kind)
}

// Event is one wire message from the log daemon. A single message may carry
// any combination of the three fields; they are applied in the fixed order
// reset, then snapshot, then append. Snapshot is a pointer so that an empty
// replacement is distinguishable from an absent field.
type Event struct {
	Reset    bool    `json:"reset,omitempty"`
	Snapshot *string `json:"snapshot,omitempty"`
	Append   string  `json:"append,omitempty"`
}

// SnapshotEvent builds a full-content replacement event.
func SnapshotEvent(content string) Event {
	return Event{Snapshot: &content}
}

// AppendEvent builds an incremental suffix event.
func AppendEvent(text string) Event {
	return Event{Append: text}
}

// ResetSnapshotEvent signals that prior content is invalid and replaces it in
// the same message. Used after log truncation or rotation.
func ResetSnapshotEvent(content string) Event {
	return Event{Reset: true, Snapshot: &content}
}

// Empty reports whether the event carries no buffer mutation at all.
func (e Event) Empty() bool {
	return !e.Reset && e.Snapshot == nil && e.Append == ""
}

// ClearsView reports whether applying the event discards the viewer's
// position: reset and snapshot both imply a jump back to the top.
func (e Event) ClearsView() bool {
	return e.Reset || e.Snapshot != nil
}

// Buffer is the locally reconstructed log content. It is always the last
// snapshot (or empty, if none or after a reset) followed by every append
// received since, in arrival order.
type Buffer struct {
	content string
}

// Apply mutates the buffer per the event's fields in the fixed wire order.
func (b *Buffer) Apply(ev Event) {
	if ev.Reset {
		b.content = ""
	}
	if ev.Snapshot != nil {
		b.content = *ev.Snapshot
	}
	if ev.Append != "" {
		b.content += ev.Append
	}
}

// String returns the full reconstructed content.
func (b *Buffer) String() string { return b.content }

// Len returns the content length in bytes.
func (b *Buffer) Len() int { return len(b.content) }

// Clear discards the content.
func (b *Buffer) Clear() { b.content = "" }

// Lines splits the content into display lines. A trailing newline does not
// produce a phantom empty line.
func (b *Buffer) Lines() []string {
	if b.content == "" {
		return nil
	}
	trimmed := strings.TrimSuffix(b.content, "\n")
	return strings.Split(trimmed, "\n")
}
