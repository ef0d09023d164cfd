// Package scheduler is the trigger service: cron schedules for the daily
// deadline check and named one-shot timers for deadline-day notifications.
//
// Jobs are enqueued to a small worker pool and run with a per-job timeout.
// A failed job is retried once. One-shot timers are upserted by name, so
// rescheduling "transfers-summary" replaces the previous timer instead of
// stacking a duplicate.
package scheduler
