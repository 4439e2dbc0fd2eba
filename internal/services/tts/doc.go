// Package tts is a minimal client for Gemini's audio generateContent endpoint.
//
// Client.Synthesize performs exactly one HTTP request and returns the raw
// PCM samples (signed 16-bit little endian, mono, 24 kHz) decoded from the
// inline base64 payload. Retrying and caching live in the audio package; HTTP
// failures surface as *StatusError, which carries the status code and any
// Retry-After hint so the caller's retry loop can classify them.
package tts
