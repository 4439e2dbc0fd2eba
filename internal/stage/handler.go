package stage

import (
	"context"

	"misa/internal/manifest"
)

// Handler describes the contract the orchestrator needs from each stage.
//
// Ready must accept a nil document (no manifest persisted yet). Run receives
// a private copy it may mutate freely and returns the document to persist;
// the orchestrator discards it on error.
type Handler interface {
	Name() string
	Ready(doc *manifest.Document) Readiness
	Run(ctx context.Context, doc *manifest.Document) (*manifest.Document, error)
}

// Reconciler is implemented by stages that must drop stale state from the
// persisted document before readiness is evaluated.
type Reconciler interface {
	Reconcile(doc *manifest.Document) bool
}
