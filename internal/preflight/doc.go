// Package preflight provides readiness checks for the directories, binaries,
// credentials, and remote services that a misa run depends on.
//
// RunAll backs the "misa doctor" command. Checks for disabled features are
// skipped, and network probes only run when the caller asks for them so
// the default doctor output is fast and free.
package preflight
