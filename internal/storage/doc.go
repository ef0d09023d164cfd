// Package storage is the optional persistence layer.
//
// It records delivered notifications (an append-only delivery log) and
// dedup keys with expiry, so reruns of the daily check don't resend
// reminders. Two drivers exist behind one interface:
//
//   - "file": dependency-free JSONL files (default)
//   - "sqlite": a single database file, enabled with -tags sqlite
//
// Disabled storage returns (nil, nil) from Open; callers fall back to
// in-memory dedup for the process lifetime.
package storage
