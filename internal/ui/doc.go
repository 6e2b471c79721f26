// Package ui implements the sluice terminal interface with Bubble Tea.
//
// The top-level Model owns three views and routes messages between them:
// the job picker, the single-log viewer, and the side-by-side comparison.
// Everything runs on the Bubble Tea event loop — channel reads, search
// round trips, and job actions are tea.Cmd closures whose results come
// back as messages, so no view state is ever touched off-loop.
//
// The single-log viewer re-derives its entire content on every buffer
// mutation: re-scan for detections, overlay annotations and search
// matches, re-render the viewport. Auto-scroll is conditional — an append
// keeps following only when the view was already near the bottom before
// the event, and a reset or snapshot always jumps to the top.
//
// Themes follow the two-palette scheme (Dracula, Slate) with cycling and
// persistence through the prefs package.
package ui
