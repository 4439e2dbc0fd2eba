// Package llm provides an OpenAI-compatible chat client used to generate the
// spoken sections of a manifest.
//
// The default endpoint is Gemini's OpenAI compatibility layer, so the same
// API key serves enrichment and speech synthesis.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive JSON response.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: decode a response body, tolerating code fences and prose.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, network timeouts, and empty
// completions with exponential backoff (base 1s, max 10s, up to 5 attempts by
// default) through the retry package. Retry-After hints are honoured up to the
// maximum delay. Context cancellation aborts retries immediately.
package llm
