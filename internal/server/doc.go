// Package server implements the sluiced HTTP API.
//
// The daemon serves three kinds of traffic: the job listing (live jobs
// from the scheduler plus recent jobs discovered from log files on disk),
// request/response operations (search, cancel, resubmit, submission
// metadata), and per-log push channels.
//
// A push channel is one long-lived GET per (log_key, kind) pair. The
// handler snapshots the trailing window of the file, then polls for
// growth and emits appends; truncation or in-place rotation emits a
// reset-plus-snapshot so the viewer starts over cleanly. Channels are
// independent: two viewers of the same file each get their own tailer
// and file handle.
//
// All log file access goes through SafeLogPath. log_key values arrive
// off the wire and are never trusted to stay inside the log root on
// their own.
//
// Scheduler commands run through the Runner interface so handlers can be
// tested without a Slurm installation.
package server
