// Package state holds the poller-fed job snapshot shared with the UI.
//
// The poller goroutine writes through Update while the Bubble Tea loop
// reads through Snapshot. The store hands out copies, never internal
// slices, so the UI can hold a snapshot across frames without racing the
// next poll. Failed polls keep the previous data visible and count
// consecutive failures; two misses in a row mark the daemon offline.
package state
