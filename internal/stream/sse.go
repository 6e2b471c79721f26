package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// SSE framing for the push channel: each event is a JSON payload on one or
// more "data:" lines terminated by a blank line. Comment lines (leading ":")
// and non-data fields are ignored.

// Encode writes a single event in SSE framing.
func Encode(w io.Writer, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Decoder reads SSE-framed events from a push connection.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder wraps r. Snapshot payloads can be large, so the line buffer is
// sized well above the server's snapshot window.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Decoder{scanner: scanner}
}

// Next blocks until a complete event arrives. It returns io.EOF when the
// connection ends cleanly and the transport error otherwise.
func (d *Decoder) Next() (Event, error) {
	var data strings.Builder
	seen := false
	for d.scanner.Scan() {
		line := d.scanner.Text()
		line = strings.TrimSuffix(line, "\r")

		if line == "" {
			if !seen {
				continue // stray separator between events
			}
			var ev Event
			if err := json.Unmarshal([]byte(data.String()), &ev); err != nil {
				return Event{}, fmt.Errorf("decode event: %w", err)
			}
			return ev, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		value, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		value = strings.TrimPrefix(value, " ")
		if seen {
			data.WriteByte('\n')
		}
		data.WriteString(value)
		seen = true
	}
	if err := d.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("read stream: %w", err)
	}
	return Event{}, io.EOF
}
