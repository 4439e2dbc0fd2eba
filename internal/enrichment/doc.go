// Package enrichment adds the generated spoken sections (welcome, homily,
// final reflection, closing) to a manifest.
//
// Generation sits behind the Port interface so the pipeline can run against
// an LLM, a fixture, or a test double. Apply is the only place generated text
// enters a document: it validates the whole batch first and either upserts all
// four sections with provenance or leaves the document untouched.
package enrichment
