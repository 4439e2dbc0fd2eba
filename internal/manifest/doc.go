// Package manifest defines the daily liturgy document and the operations that
// keep it canonical.
//
// A Document is the single source of truth for one date: an ordered list of
// sections (readings, prayers, generated speech), each carrying normalized
// text, a content hash, and an optional reference to synthesized audio. Every
// producer merges its output through Upsert, which rebuilds the section list
// in the fixed liturgical order so repeated runs converge on the same bytes.
//
// Store persists documents as indented UTF-8 JSON, one file per date, written
// through a temp file and rename so readers never observe a partial document.
package manifest
