// Package pipeline builds a day's manifest by running the stages in order:
// extract the readings, inject the fixed prayers, generate the spoken
// sections, and synthesize audio.
//
// Each stage owns a readiness predicate over the persisted document. The
// Orchestrator skips stages that are already satisfied, runs the rest on a
// copy, validates and saves after every stage, and stops at the first
// failure. Running it twice for the same date does no work the second time.
//
// Only one run per date may hold the manifest at a time; a concurrent run
// fails fast with services.ErrLocked.
package pipeline
