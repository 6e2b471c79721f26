package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkendall/sluice/internal/stream"
)

const (
	// snapshotWindow bounds the initial snapshot. Older content stays on
	// disk and remains reachable through search, which reads the whole file.
	snapshotWindow = 200 * 1024

	defaultTailInterval = time.Second
)

// Tailer follows one log file and emits push events. Each subscription gets
// its own Tailer; nothing is shared between viewers of the same file.
type Tailer struct {
	path     string
	interval time.Duration
	offset   int64
}

// NewTailer builds a tailer for path polling at interval. A zero interval
// means the default.
func NewTailer(path string, interval time.Duration) *Tailer {
	if interval <= 0 {
		interval = defaultTailInterval
	}
	return &Tailer{path: path, interval: interval}
}

// Run emits the initial snapshot, then polls for growth until ctx ends.
// Events go to emit, which blocks Run when the subscriber is slow; the
// file never outruns its reader. Run returns nil on context cancellation.
func (t *Tailer) Run(ctx context.Context, emit func(stream.Event) error) error {
	if err := t.snapshot(emit, false); err != nil {
		return err
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := t.poll(emit); err != nil {
				return err
			}
		}
	}
}

// snapshot reads the trailing window of the file and emits it. When reset
// is set, the event also clears the viewer first; that path handles
// truncation and rotation.
func (t *Tailer) snapshot(emit func(stream.Event) error, reset bool) error {
	content, size, err := readTail(t.path, snapshotWindow)
	if err != nil {
		return err
	}
	t.offset = size
	ev := stream.SnapshotEvent(content)
	if reset {
		ev = stream.ResetSnapshotEvent(content)
	}
	return emit(ev)
}

func (t *Tailer) poll(emit func(stream.Event) error) error {
	info, err := os.Stat(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Rotated away; resnapshot when it reappears.
			return nil
		}
		return fmt.Errorf("stat log: %w", err)
	}

	size := info.Size()
	switch {
	case size == t.offset:
		return nil
	case size < t.offset:
		// Truncated or rotated in place. Start over from the new content.
		return t.snapshot(emit, true)
	}

	file, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(t.offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek log: %w", err)
	}
	delta, err := io.ReadAll(io.LimitReader(file, size-t.offset))
	if err != nil {
		return fmt.Errorf("read log: %w", err)
	}
	t.offset += int64(len(delta))
	if len(delta) == 0 {
		return nil
	}
	return emit(stream.AppendEvent(string(delta)))
}

// readTail returns up to window bytes from the end of the file plus the
// file size at read time. A mid-line entry point is trimmed to the next
// line boundary so the snapshot never starts with a torn line. A missing
// file reads as empty; jobs often open their log a beat after submission.
func readTail(path string, window int64) (string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", 0, nil
		}
		return "", 0, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("stat log: %w", err)
	}
	size := info.Size()

	start := int64(0)
	truncatedHead := false
	if size > window {
		start = size - window
		truncatedHead = true
	}
	if _, err := file.Seek(start, io.SeekStart); err != nil {
		return "", 0, fmt.Errorf("seek log: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(file, size-start))
	if err != nil {
		return "", 0, fmt.Errorf("read log: %w", err)
	}

	if truncatedHead {
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			data = data[i+1:]
		}
	}
	return string(data), size, nil
}
