// Package main hosts the misa CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the pipeline
// collaborators (readings source, enrichment client, speech client, audio
// cache, history ledger), and hands control to the internal packages. Commands
// that only inspect state (status, history, cache stats, doctor) never call a
// remote API unless asked to.
//
// Keep this package lean: new behaviour belongs in internal packages first and
// is surfaced here through dedicated commands or flags.
package main
