// Package store keeps the history of harness runs in SQLite.
//
// Each completed run is saved as one row in runs plus one row per test case
// in cases, inside a single transaction, so a run is either fully recorded
// or absent. Run ids are UUIDv7 strings and sort by creation time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Deleting a run deletes its cases
//
// Timestamps are stored as fixed-width RFC 3339 text in UTC.
package store
