// Package extract splits the daily readings text into liturgical sections.
//
// Extraction runs in two steps. A scanner walks the normalized text once and
// emits every case-insensitive occurrence of the known marker phrases as a
// token with its byte offset. A resolver then applies the boundary rules to
// that token stream: where each reading starts, which header occurrence opens
// the gospel block, where the gospel's literal text begins, and where it ends.
//
// Only the gospel is mandatory. Other readings are returned when their start
// marker is found, and omitted otherwise. Fallbacks that may mis-segment the
// text are reported as warnings on the Result rather than silently accepted.
package extract
