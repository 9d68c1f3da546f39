package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marketforge/marketforge/internal/metrics"
	"github.com/marketforge/marketforge/internal/session"
	"github.com/marketforge/marketforge/pkg/models"
)

// GeneratorFunc produces the result payload for one module. A nil error with
// a non-nil result marks the module completed; an error is recorded on the
// session and the pipeline moves on.
type GeneratorFunc func(ctx context.Context, rc RunContext) (any, error)

// ModuleDescriptor declares one pipeline module in execution order
type ModuleDescriptor struct {
	Name      string
	Title     string
	StepCount int
	Generate  GeneratorFunc
}

// RunContext is handed to each generator with everything it may need:
// the session being built, its stored state, and a step reporter for
// intra-module progress.
type RunContext struct {
	SessionID string
	Input     models.AnalysisInput
	Store     session.Store
	Logger    *slog.Logger
	Step      func(step int, message string)
}

// ProgressFunc receives human-readable progress updates. Percentage is the
// blended pipeline completion in [0,100].
type ProgressFunc func(message string, percentage float64, module string, step int)

// Orchestrator drives the module sequence against a session, skipping
// modules already completed so interrupted runs resume where they stopped
type Orchestrator struct {
	store       session.Store
	descriptors []ModuleDescriptor
	progress    ProgressFunc
	logger      *slog.Logger
	collector   *metrics.Collector

	mu      sync.Mutex
	running map[string]bool
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithProgress registers a progress callback
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// WithLogger overrides the default logger
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithMetrics attaches a metrics collector
func WithMetrics(c *metrics.Collector) Option {
	return func(o *Orchestrator) { o.collector = c }
}

// New creates an orchestrator over a store and an ordered module list
func New(store session.Store, descriptors []ModuleDescriptor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:       store,
		descriptors: descriptors,
		logger:      slog.Default(),
		running:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ModuleNames returns the configured module names in execution order
func (o *Orchestrator) ModuleNames() []string {
	names := make([]string, len(o.descriptors))
	for i, d := range o.descriptors {
		names[i] = d.Name
	}
	return names
}

// Run executes the pipeline. With an empty sessionID a new session is
// created from input; otherwise the existing session is resumed and input
// is ignored in favor of the stored one. Modules already completed are
// skipped. A module error is recorded on the session and does not stop the
// run; cancellation does, leaving the session resumable.
func (o *Orchestrator) Run(ctx context.Context, input models.AnalysisInput, sessionID string) (*models.RunResult, error) {
	sess, err := o.resolveSession(input, sessionID)
	if err != nil {
		return nil, err
	}
	id := sess.ID

	if !o.acquire(id) {
		return nil, fmt.Errorf("session %s is already running", id)
	}
	defer o.release(id)

	sess.Status = models.StatusRunning
	if err := o.store.Save(sess); err != nil {
		return nil, fmt.Errorf("failed to persist session start: %w", err)
	}

	o.logger.Info("pipeline started",
		"session_id", id,
		"modules", len(o.descriptors),
		"already_completed", len(sess.CompletedModules))

	result := &models.RunResult{SessionID: id}
	total := len(o.descriptors)

	for i, desc := range o.descriptors {
		if err := ctx.Err(); err != nil {
			o.logger.Warn("pipeline interrupted", "session_id", id, "module", desc.Name)
			o.recordRun("interrupted")
			result.Interrupted = true
			o.finalize(result, models.StatusRunning)
			return result, nil
		}

		if o.store.IsModuleCompleted(id, desc.Name) {
			result.Skipped = append(result.Skipped, desc.Name)
			o.report(fmt.Sprintf("%s already completed", desc.Title), o.basePercent(i+1), desc.Name, desc.StepCount)
			continue
		}

		if err := o.store.SetCurrentModule(id, desc.Name, 0); err != nil {
			return nil, fmt.Errorf("failed to persist current module: %w", err)
		}
		o.report(fmt.Sprintf("Generating %s", desc.Title), o.basePercent(i), desc.Name, 0)

		start := time.Now()
		payload, genErr := o.runModule(ctx, desc, i, total, sess)
		elapsed := time.Since(start)

		if genErr != nil {
			o.logger.Error("module failed",
				"session_id", id,
				"module", desc.Name,
				"duration", elapsed.Round(time.Millisecond),
				"error", genErr)
			o.recordModule(desc.Name, "error", elapsed)
			if err := o.store.AddError(id, genErr.Error(), desc.Name); err != nil {
				return nil, fmt.Errorf("failed to record module error: %w", err)
			}
			result.Failed = append(result.Failed, desc.Name)
			o.report(fmt.Sprintf("%s failed: %v", desc.Title, genErr), o.basePercent(i), desc.Name, 0)
			continue
		}

		if err := o.store.MarkModuleCompleted(id, desc.Name, payload); err != nil {
			return nil, fmt.Errorf("failed to persist module result: %w", err)
		}
		o.logger.Info("module completed",
			"session_id", id,
			"module", desc.Name,
			"duration", elapsed.Round(time.Millisecond))
		o.recordModule(desc.Name, "success", elapsed)
		result.Completed = append(result.Completed, desc.Name)
		o.report(fmt.Sprintf("%s completed", desc.Title), o.basePercent(i+1), desc.Name, desc.StepCount)
	}

	final, found := o.store.Load(id)
	if !found {
		return nil, fmt.Errorf("session %s disappeared during run", id)
	}
	// Module errors do not fail the run; the session is completed once the
	// full sequence has been walked. Failed modules stay out of
	// CompletedModules and are retried on the next Run with this id.
	final.Status = models.StatusCompleted
	if err := o.store.Save(final); err != nil {
		return nil, fmt.Errorf("failed to persist final status: %w", err)
	}
	o.finalize(result, final.Status)
	o.recordRun(string(final.Status))

	o.logger.Info("pipeline finished",
		"session_id", id,
		"status", final.Status,
		"completed", len(final.CompletedModules),
		"failed", len(result.Failed),
		"skipped", len(result.Skipped))
	return result, nil
}

// finalize copies the persisted session state into the run result
func (o *Orchestrator) finalize(result *models.RunResult, status models.SessionStatus) {
	result.Status = status
	if sess, found := o.store.Load(result.SessionID); found {
		result.Errors = len(sess.Errors)
		result.Results = sess.Results
		result.Progress = sess.Progress
	}
}

func (o *Orchestrator) runModule(ctx context.Context, desc ModuleDescriptor, index, total int, sess *models.Session) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("module %s panicked: %v", desc.Name, r)
		}
	}()

	rc := RunContext{
		SessionID: sess.ID,
		Input:     sess.Input,
		Store:     o.store,
		Logger:    o.logger.With("module", desc.Name),
		Step: func(step int, message string) {
			if err := o.store.SetCurrentModule(sess.ID, desc.Name, step); err != nil {
				o.logger.Warn("failed to persist step", "module", desc.Name, "step", step, "error", err)
			}
			o.report(message, o.blendedPercent(index, total, step, desc.StepCount), desc.Name, step)
		},
	}
	return desc.Generate(ctx, rc)
}

func (o *Orchestrator) resolveSession(input models.AnalysisInput, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		id, err := o.store.Create(input)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		sess, found := o.store.Load(id)
		if !found {
			return nil, fmt.Errorf("newly created session %s not loadable", id)
		}
		return sess, nil
	}
	sess, found := o.store.Load(sessionID)
	if !found {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	return sess, nil
}

// basePercent is the pipeline completion with i modules fully done
func (o *Orchestrator) basePercent(i int) float64 {
	if len(o.descriptors) == 0 {
		return 100
	}
	return float64(i) / float64(len(o.descriptors)) * 100
}

// blendedPercent mixes intra-module step progress into the pipeline total
func (o *Orchestrator) blendedPercent(index, total, step, stepCount int) float64 {
	if total == 0 {
		return 100
	}
	base := float64(index) / float64(total) * 100
	if stepCount <= 0 {
		return base
	}
	frac := float64(step) / float64(stepCount)
	if frac > 1 {
		frac = 1
	}
	return base + frac*(100/float64(total))
}

func (o *Orchestrator) report(message string, percentage float64, module string, step int) {
	if o.progress != nil {
		o.progress(message, percentage, module, step)
	}
}

func (o *Orchestrator) recordModule(module, status string, d time.Duration) {
	if o.collector != nil {
		o.collector.RecordModuleDuration(module, status, d)
	}
}

func (o *Orchestrator) recordRun(status string) {
	if o.collector != nil {
		o.collector.RecordRun(status)
	}
}

func (o *Orchestrator) acquire(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running[id] {
		return false
	}
	o.running[id] = true
	return true
}

func (o *Orchestrator) release(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.running, id)
}
