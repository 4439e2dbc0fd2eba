// Package audio turns manifest sections into cached WAV artifacts.
//
// Every section is keyed by an audio hash derived from its text hash and the
// synthesis parameters (model, voice, style profile). A key is rendered at most
// once into the shared cache:
//
//	<root>/cache/<style>/<voice>/<hash>.wav
//
// and every day gets a stable, human-friendly copy:
//
//	<root>/by-date/<date>/<section>.wav
//
// EnsureAudio runs cache misses through a bounded worker pool with retrying
// synthesis, then attaches all audio references in one pass. A failure in any
// worker leaves the document untouched.
package audio
