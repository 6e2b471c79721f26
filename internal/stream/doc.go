// Package stream implements the incremental log update protocol between the
// sluice daemon and its viewers.
//
// # Overview
//
// A log is followed through a Channel: one live subscription to one
// (log key, kind) pair. The daemon pushes Event messages over an SSE
// connection; each message optionally carries reset, snapshot, and append
// fields, applied to the local Buffer in that fixed order:
//
//  1. reset    — the buffer is cleared and any derived view state (search
//     highlights, scroll position) is invalid.
//  2. snapshot — the buffer is replaced wholesale. Sent on first connect and
//     after reconnection or rotation, so the server never assumes
//     client-held state.
//  3. append   — the buffer grows by a suffix.
//
// The Buffer invariant: content always equals the last snapshot (or "" if
// none, or after a reset) concatenated with every append received since, in
// arrival order.
//
// # Ordering and failure
//
// Within one Channel, events are delivered in server-send order; across
// channels there is no ordering guarantee. A transport failure ends the event
// stream and the channel does not reconnect on its own — reopening is an
// explicit viewer action. Close is idempotent, immediate, and drops any
// event read from the wire but not yet delivered.
//
// # Wire format
//
// Events travel as SSE frames, one JSON payload per "data:" block:
//
//	data: {"snapshot":"line one\n"}
//
//	data: {"append":"line two\n"}
//
//	data: {"reset":true,"snapshot":"rotated\n"}
//
// Encode and Decoder implement both sides of this framing, so the daemon and
// the viewer share one definition of the protocol.
package stream
