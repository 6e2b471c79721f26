package compare

// ScrollSync propagates scroll position across panes by content fraction,
// so a pane at 40% of a long log aligns with 40% of a short one.
//
// Applying a fraction to a viewport typically fires that viewport's own
// scroll handling, which would propagate again and oscillate. The guard
// makes propagation one-shot: echoes arriving while a broadcast is in
// flight are swallowed. A time-based cooldown is unnecessary because the
// event loop is single-threaded and echoes only occur synchronously inside
// apply; once Broadcast returns there is nothing left to suppress.
type ScrollSync struct {
	broadcasting bool
}

// Broadcast sends fraction to every pane except source via apply. Calls
// made from inside apply (scroll echoes) are ignored.
func (s *ScrollSync) Broadcast(source, paneCount int, fraction float64, apply func(pane int, fraction float64)) {
	if s.broadcasting {
		return
	}
	s.broadcasting = true
	defer func() { s.broadcasting = false }()

	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}
	for i := 0; i < paneCount; i++ {
		if i == source {
			continue
		}
		apply(i, fraction)
	}
}
