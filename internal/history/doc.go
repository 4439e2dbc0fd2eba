// Package history keeps a SQLite ledger of pipeline stage outcomes.
//
// Every orchestrator run records one row per stage it evaluated (skipped,
// completed, or failed) so `misa history` can show when a day was built, how
// long each stage took, and why a run stopped. The ledger is advisory: the
// manifest on disk remains the source of truth.
package history
