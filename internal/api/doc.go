// Package api provides the HTTP client for the sluiced daemon.
//
// The daemon exposes a small JSON API plus a push endpoint for live log
// content. This package covers the JSON side: the job listing, server-side
// log search, job actions (cancel, resubmit), and submission metadata.
// The push endpoint has its own client in the stream package, which takes
// the daemon base URL from Client.BaseURL.
//
// Search is intentionally server-side. The daemon reads log files directly,
// so a query sees the whole file even when the viewer has only buffered the
// most recent window. Pattern errors and unreadable files are reported in
// SearchResult.Error so the UI can show them inline instead of treating
// them as connection failures.
package api
