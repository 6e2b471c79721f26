package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkendall/sluice/internal/stream"
)

func TestReadTailSmallFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout.log")
	if err := os.WriteFile(path, []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	content, size, err := readTail(path, snapshotWindow)
	if err != nil {
		t.Fatalf("readTail: %v", err)
	}
	if content != "one\ntwo\n" {
		t.Errorf("content = %q", content)
	}
	if size != 8 {
		t.Errorf("size = %d", size)
	}
}

func TestReadTailDropsTornFirstLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout.log")
	var b strings.Builder
	for i := 0; i < 1000; i++ {
		b.WriteString("0123456789012345678901234567890123456789\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	content, _, err := readTail(path, 1024)
	if err != nil {
		t.Fatalf("readTail: %v", err)
	}
	if len(content) >= 1024 {
		t.Errorf("content = %d bytes, want under window", len(content))
	}
	if !strings.HasPrefix(content, "0123456789") {
		t.Errorf("snapshot starts mid-line: %q", content[:20])
	}
	if len(content)%41 != 0 {
		t.Errorf("content length %d is not whole lines", len(content))
	}
}

func TestReadTailMissingFileIsEmpty(t *testing.T) {
	content, size, err := readTail(filepath.Join(t.TempDir(), "gone.log"), snapshotWindow)
	if err != nil || content != "" || size != 0 {
		t.Errorf("readTail = %q, %d, %v", content, size, err)
	}
}

func collectEvents(t *testing.T, tailer *Tailer, steps func(emit func())) []stream.Event {
	t.Helper()
	var events []stream.Event
	emit := func(ev stream.Event) error {
		events = append(events, ev)
		return nil
	}
	if err := tailer.snapshot(emit, false); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	steps(func() {
		if err := tailer.poll(emit); err != nil {
			t.Fatalf("poll: %v", err)
		}
	})
	return events
}

func TestTailerAppendsGrowth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout.log")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tailer := NewTailer(path, 0)

	events := collectEvents(t, tailer, func(poll func()) {
		poll() // no change
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.WriteString("more\n"); err != nil {
			t.Fatal(err)
		}
		_ = f.Close()
		poll()
	})

	if len(events) != 2 {
		t.Fatalf("events = %d, want snapshot + append", len(events))
	}
	if events[0].Snapshot == nil || *events[0].Snapshot != "start\n" {
		t.Errorf("snapshot event = %+v", events[0])
	}
	if events[1].Append != "more\n" {
		t.Errorf("append event = %+v", events[1])
	}

	var buf stream.Buffer
	for _, ev := range events {
		buf.Apply(ev)
	}
	if buf.String() != "start\nmore\n" {
		t.Errorf("replayed buffer = %q", buf.String())
	}
}

func TestTailerResetOnTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout.log")
	if err := os.WriteFile(path, []byte("old content\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tailer := NewTailer(path, 0)

	events := collectEvents(t, tailer, func(poll func()) {
		if err := os.WriteFile(path, []byte("new\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		poll()
	})

	if len(events) != 2 {
		t.Fatalf("events = %d, want snapshot + reset-snapshot", len(events))
	}
	if !events[1].Reset || events[1].Snapshot == nil || *events[1].Snapshot != "new\n" {
		t.Errorf("truncation event = %+v", events[1])
	}

	var buf stream.Buffer
	for _, ev := range events {
		buf.Apply(ev)
	}
	if buf.String() != "new\n" {
		t.Errorf("replayed buffer = %q", buf.String())
	}
}

func TestTailerSurvivesMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stdout.log")
	tailer := NewTailer(path, 0)

	events := collectEvents(t, tailer, func(poll func()) {
		poll() // still missing
		if err := os.WriteFile(path, []byte("born\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		poll()
	})

	if len(events) != 2 {
		t.Fatalf("events = %d, want empty snapshot + append", len(events))
	}
	if events[0].Snapshot == nil || *events[0].Snapshot != "" {
		t.Errorf("initial event = %+v", events[0])
	}
	if events[1].Append != "born\n" {
		t.Errorf("append after creation = %+v", events[1])
	}
}
