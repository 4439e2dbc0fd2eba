package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"misa/internal/history"
	"misa/internal/logging"
	"misa/internal/manifest"
	"misa/internal/services"
	"misa/internal/stage"
)

// Recorder persists stage outcomes.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) (int64, error)
}

// StageError identifies the stage that stopped a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Outcome is what happened to one stage during a run.
type Outcome struct {
	Stage    string
	Status   history.Status
	Reason   string
	Duration time.Duration
}

// Result summarizes a run.
type Result struct {
	RunID    string
	Date     string
	Path     string
	Outcomes []Outcome
	Document *manifest.Document
}

// Ran reports whether any stage did work.
func (r Result) Ran() bool {
	for _, o := range r.Outcomes {
		if o.Status == history.StatusCompleted {
			return true
		}
	}
	return false
}

// Orchestrator runs stages in order against the manifest store.
type Orchestrator struct {
	store   *manifest.Store
	stages  []stage.Handler
	history Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithHistory records every stage outcome in r.
func WithHistory(r Recorder) Option {
	return func(o *Orchestrator) {
		o.history = r
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New constructs an orchestrator over stages, evaluated in the given order.
func New(store *manifest.Store, stages []stage.Handler, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:  store,
		stages: stages,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// LockPath is the advisory lock file guarding a date's manifest.
func (o *Orchestrator) LockPath(date string) string {
	return filepath.Join(o.store.Dir(), ".manifest-"+date+".lock")
}

// Run brings the manifest for date up to date. It returns a *StageError
// wrapping the cause when a stage fails or remains unsatisfied after running.
func (o *Orchestrator) Run(ctx context.Context, date string) (Result, error) {
	key, err := manifest.ParseDate(date)
	if err != nil {
		return Result{}, err
	}
	result := Result{RunID: uuid.NewString(), Date: key, Path: o.store.Path(key)}

	if err := os.MkdirAll(o.store.Dir(), 0o755); err != nil {
		return result, fmt.Errorf("create manifest directory: %w", err)
	}
	lock := flock.New(o.LockPath(key))
	locked, err := lock.TryLock()
	if err != nil {
		return result, fmt.Errorf("acquire manifest lock: %w", err)
	}
	if !locked {
		return result, services.Wrap(services.ErrLocked, "pipeline", "acquire lock",
			fmt.Sprintf("another run is building %s", key), nil)
	}
	defer func() { _ = lock.Unlock() }()

	ctx = services.WithDate(ctx, key)
	ctx = services.WithRequestID(ctx, result.RunID)
	logger := logging.WithContext(ctx, o.logger)
	runStart := o.now()
	logger.Info("pipeline run started", logging.String(logging.FieldEventType, "run_start"))

	doc, err := o.store.Load(key)
	if err != nil {
		return result, err
	}

	for _, st := range o.stages {
		next, outcome, err := o.runStage(ctx, st, doc)
		result.Outcomes = append(result.Outcomes, outcome)
		if err != nil {
			result.Document = doc
			logging.ErrorWithContext(logger, "pipeline run failed", "run_failed",
				logging.String(logging.FieldStage, st.Name()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, hintFor(err)),
			)
			return result, &StageError{Stage: st.Name(), Err: err}
		}
		doc = next
	}

	result.Document = doc
	logger.Info("pipeline run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Bool("changed", result.Ran()),
		logging.Duration("run_duration", o.now().Sub(runStart)),
	)
	return result, nil
}

func (o *Orchestrator) runStage(ctx context.Context, st stage.Handler, doc *manifest.Document) (*manifest.Document, Outcome, error) {
	name := st.Name()
	ctx = services.WithStage(ctx, name)
	logger := logging.WithContext(ctx, o.logger)
	started := o.now()
	outcome := Outcome{Stage: name}

	if rec, ok := st.(stage.Reconciler); ok && doc != nil {
		reconciled := doc.Clone()
		if rec.Reconcile(reconciled) {
			if err := o.persist(reconciled); err != nil {
				return doc, o.fail(ctx, outcome, started, err), err
			}
			logging.WarnWithContext(logger, "cleared references to missing artifacts", "artifacts_reconciled",
				logging.String(logging.FieldImpact, "affected sections will be regenerated"),
			)
			doc = reconciled
		}
	}

	readiness := st.Ready(doc)
	if readiness.Ready {
		outcome.Status = history.StatusSkipped
		outcome.Reason = readiness.Reason
		o.record(ctx, outcome, started)
		logger.Debug("stage skipped", logging.String("reason", readiness.Reason))
		return doc, outcome, nil
	}

	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("reason", readiness.Reason),
	)
	next, err := st.Run(ctx, doc.Clone())
	if err != nil {
		return doc, o.fail(ctx, outcome, started, err), err
	}
	if next == nil {
		err := services.Wrap(services.ErrValidation, name, "run", "stage returned no document", nil)
		return doc, o.fail(ctx, outcome, started, err), err
	}
	// The stage output is only saved once it satisfies the stage.
	if after := st.Ready(next); !after.Ready {
		err := services.Wrap(services.ErrValidation, name, "verify", "stage ran but is still unsatisfied: "+after.Reason, nil)
		return doc, o.fail(ctx, outcome, started, err), err
	}
	if err := o.persist(next); err != nil {
		return doc, o.fail(ctx, outcome, started, err), err
	}

	outcome.Status = history.StatusCompleted
	outcome.Reason = readiness.Reason
	outcome.Duration = o.now().Sub(started)
	o.record(ctx, outcome, started)
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", outcome.Duration),
	)
	return next, outcome, nil
}

func (o *Orchestrator) persist(doc *manifest.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	return o.store.Save(doc)
}

func (o *Orchestrator) fail(ctx context.Context, outcome Outcome, started time.Time, err error) Outcome {
	outcome.Status = history.StatusFailed
	outcome.Reason = err.Error()
	outcome.Duration = o.now().Sub(started)
	o.recordError(ctx, outcome, started, err)
	return outcome
}

func (o *Orchestrator) record(ctx context.Context, outcome Outcome, started time.Time) {
	o.recordError(ctx, outcome, started, nil)
}

func (o *Orchestrator) recordError(ctx context.Context, outcome Outcome, started time.Time, stageErr error) {
	if o.history == nil {
		return
	}
	runID, _ := services.RequestIDFromContext(ctx)
	date, _ := services.DateFromContext(ctx)
	entry := history.Entry{
		RunID:      runID,
		Date:       date,
		Stage:      outcome.Stage,
		Status:     outcome.Status,
		StartedAt:  started,
		FinishedAt: started.Add(outcome.Duration),
		Duration:   outcome.Duration,
	}
	if stageErr != nil {
		entry.ErrorKind = services.Kind(stageErr)
		entry.ErrorMessage = stageErr.Error()
	} else {
		entry.Reason = outcome.Reason
	}
	// Record with a fresh context so a cancelled run still leaves its trail.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := o.history.Record(recordCtx, entry); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "history record failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history will be incomplete"),
		)
	}
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "check the configuration with 'misa config validate'"
	case errors.Is(err, services.ErrNotFound):
		return "the source may not have published readings for this date yet"
	case errors.Is(err, services.ErrExternalTool):
		return "run 'misa doctor' to verify external tools"
	case errors.Is(err, services.ErrSynthesis), errors.Is(err, services.ErrEnrichment):
		return "provider call failed; rerun to resume from the last completed stage"
	default:
		return "rerun with --log-level debug for details"
	}
}
