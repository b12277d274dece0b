// Package store records run history in SQLite.
//
// History is opt-in (koans run --history <db>) and never affects a run's
// outcome. Each recorded run stores its counts, its first-failure pointer,
// its digest and every case outcome, so a learner can see how their path
// has progressed over time.
//
// # Ordering
//
//   - Runs are ordered by seq, a per-database logical counter
//   - Case outcomes are ordered by position within their run
//   - Wall-clock time is never stored; run IDs are UUIDv7, so the creation
//     time can be recovered from the ID for display
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
