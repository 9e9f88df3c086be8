package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"sentence-generator/internal/dictionary"
	"sentence-generator/internal/domain"
	"sentence-generator/internal/prompt"
	"sentence-generator/internal/storage"
)

const (
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 30 * time.Second
	defaultPersistTimeout = 30 * time.Second
)

// ErrNoDefinition is reported for items the configured dictionary does not know.
var ErrNoDefinition = errors.New("usecase: no dictionary definition")

// Generator produces raw model text for one request.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (string, error)
}

// requestResolver is implemented by generators that pick the concrete
// provider and model themselves, so results record what actually ran.
type requestResolver interface {
	Resolve(req domain.GenerationRequest) (domain.GenerationRequest, error)
}

// ResultReadWriter is the durable result store.
type ResultReadWriter interface {
	CompletedIDs(ctx context.Context) ([]string, error)
	SaveResult(ctx context.Context, result domain.GenerationResult) error
}

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Skip reasons.
const (
	ReasonAlreadyCompleted   = "already_completed"
	ReasonDuplicate          = "duplicate"
	ReasonCompletedElsewhere = "completed_elsewhere"
	ReasonCancelled          = "cancelled"
	ReasonNotDispatched      = "not_dispatched"
)

type Outcome struct {
	ID       string `json:"id"`
	Status   Status `json:"status"`
	Attempts int    `json:"attempts"`
	Reason   string `json:"reason,omitempty"`
	Error    string `json:"error,omitempty"`
	Err      error  `json:"-"`
}

// Summary reports every input item in exactly one of succeeded, failed or
// skipped. Outcomes are in input order.
type Summary struct {
	RunID     string    `json:"runId"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Outcomes  []Outcome `json:"outcomes"`
}

type Options struct {
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
	Simple      bool

	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// MaxConsecutiveFailures stops dispatching after that many failed items
	// in a row. Zero disables it.
	MaxConsecutiveFailures int
	PersistTimeout         time.Duration

	// Dictionary is optional. When set, items without an entry fail permanently.
	Dictionary *dictionary.Dictionary
	Logger     *slog.Logger
}

type Orchestrator struct {
	gen     Generator
	results ResultReadWriter
	prompts *prompt.Builder
	opts    Options
	logger  *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewOrchestrator(gen Generator, results ResultReadWriter, prompts *prompt.Builder, opts Options) (*Orchestrator, error) {
	if gen == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	if results == nil {
		return nil, errors.New("usecase: result store must not be nil")
	}
	if prompts == nil {
		return nil, errors.New("usecase: prompt builder must not be nil")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaultInitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = opts.InitialBackoff
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = defaultPersistTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		gen:     gen,
		results: results,
		prompts: prompts,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
		sleep:   sleepContext,
	}, nil
}

// LoadCompletionLedger lists the identifiers that already have a stored
// result. A failure here is fatal for the run.
func (o *Orchestrator) LoadCompletionLedger(ctx context.Context) (*Ledger, error) {
	ids, err := o.results.CompletedIDs(ctx)
	if err != nil {
		return nil, newError(ErrorStorageUnavailable, "ledger_list_failed", err)
	}
	return NewLedger(ids...), nil
}

type workerResult struct {
	idx     int
	outcome Outcome
}

// Run generates a result for every item not in ledger, with at most
// concurrency generation requests in flight. Items are acknowledged in the
// ledger only after their result is durable. Per-item failures never abort
// the run; cancelling ctx stops dispatch and reports undispatched items as
// skipped.
func (o *Orchestrator) Run(ctx context.Context, items []domain.VocabularyItem, ledger *Ledger, concurrency int) Summary {
	if ledger == nil {
		ledger = NewLedger()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	runID := newUUID()
	logger := o.logger.With("run_id", runID)

	outcomes := make([]Outcome, len(items))
	pending := make([]int, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		outcomes[i] = Outcome{ID: it.ID}
		switch _, dup := seen[it.ID]; {
		case dup:
			outcomes[i].Status, outcomes[i].Reason = StatusSkipped, ReasonDuplicate
		case ledger.Has(it.ID):
			outcomes[i].Status, outcomes[i].Reason = StatusSkipped, ReasonAlreadyCompleted
		default:
			pending = append(pending, i)
		}
		seen[it.ID] = struct{}{}
	}
	logger.Info("run started", "items", len(items), "pending", len(pending), "completed", ledger.Len(), "concurrency", concurrency)

	dispatchCtx, stopDispatch := context.WithCancel(ctx)
	defer stopDispatch()

	dispatched := make([]bool, len(items))
	results := make(chan workerResult)
	sem := semaphore.NewWeighted(int64(concurrency))

	go func() {
		var wg sync.WaitGroup
		defer func() {
			wg.Wait()
			close(results)
		}()
		for _, idx := range pending {
			if dispatchCtx.Err() != nil {
				return
			}
			if err := sem.Acquire(dispatchCtx, 1); err != nil {
				return
			}
			if dispatchCtx.Err() != nil {
				sem.Release(1)
				return
			}
			dispatched[idx] = true
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results <- workerResult{idx: idx, outcome: o.processItem(ctx, logger, runID, items[idx])}
			}(idx)
		}
	}()

	consecutiveFailures := 0
	for r := range results {
		out := r.outcome
		outcomes[r.idx] = out
		switch {
		case out.Status == StatusSucceeded:
			ledger.Add(out.ID)
			consecutiveFailures = 0
		case out.Status == StatusSkipped && out.Reason == ReasonCompletedElsewhere:
			ledger.Add(out.ID)
		case out.Status == StatusFailed:
			consecutiveFailures++
			if o.opts.MaxConsecutiveFailures > 0 && consecutiveFailures >= o.opts.MaxConsecutiveFailures && dispatchCtx.Err() == nil {
				logger.Error("too many consecutive failures, stopping dispatch", "failures", consecutiveFailures)
				stopDispatch()
			}
		}
		// The slot is freed only once the outcome is recorded, so a tripped
		// breaker is seen by the dispatcher before it can start another item.
		sem.Release(1)
	}

	summary := Summary{RunID: runID, Outcomes: outcomes}
	for _, idx := range pending {
		if !dispatched[idx] {
			outcomes[idx].Status, outcomes[idx].Reason = StatusSkipped, ReasonNotDispatched
		}
	}
	for _, out := range outcomes {
		switch out.Status {
		case StatusSucceeded:
			summary.Succeeded++
		case StatusFailed:
			summary.Failed++
		default:
			summary.Skipped++
		}
	}
	logger.Info("run finished", "succeeded", summary.Succeeded, "failed", summary.Failed, "skipped", summary.Skipped)
	return summary
}

// processItem drives one item to a terminal state and persists its result.
func (o *Orchestrator) processItem(ctx context.Context, logger *slog.Logger, runID string, item domain.VocabularyItem) Outcome {
	logger = logger.With("id", item.ID)
	run := newItemRun(o.opts.MaxRetries, o.newBackOff(), o.opts.MaxBackoff)

	base, err := o.buildRequest(item)
	if err != nil {
		run.fail(err)
		return o.finish(logger, item, run)
	}

	var result domain.GenerationResult
	for !run.state.terminal() {
		switch run.state {
		case statePending:
			if err := ctx.Err(); err != nil {
				run.cancel(err)
				continue
			}
			run.dispatch()

		case stateRetryScheduled:
			logger.Warn("retrying generation", "attempt", run.attempts, "delay", run.delay, "err", run.lastErr)
			if err := o.sleep(ctx, run.delay); err != nil {
				run.cancel(err)
				continue
			}
			run.dispatch()

		case stateInFlight:
			res, err := o.generateOnce(ctx, base)
			switch {
			case err == nil:
				result = res
				run.succeed()
			case ctx.Err() != nil:
				run.cancel(err)
			default:
				run.attemptFailed(err, classifyGenerationError(err))
			}
		}
	}

	if run.state == stateSucceeded {
		result.Attempts = run.attempts
		result.RunID = runID
		if err := o.PersistResult(ctx, result); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				logger.Info("result already stored by another writer")
				return Outcome{ID: item.ID, Status: StatusSkipped, Attempts: run.attempts, Reason: ReasonCompletedElsewhere}
			}
			run.fail(err)
		}
	}
	return o.finish(logger, item, run)
}

func (o *Orchestrator) finish(logger *slog.Logger, item domain.VocabularyItem, run *itemRun) Outcome {
	out := Outcome{ID: item.ID, Attempts: run.attempts}
	switch run.state {
	case stateSucceeded:
		out.Status = StatusSucceeded
		logger.Info("item succeeded", "attempts", run.attempts)
	case stateCancelled:
		out.Status, out.Reason = StatusSkipped, ReasonCancelled
		logger.Info("item cancelled", "attempts", run.attempts)
	default:
		out.Status = StatusFailed
		out.Err = run.lastErr
		out.Error = run.lastErr.Error()
		var ue *Error
		if errors.As(run.lastErr, &ue) {
			out.Reason = ue.Reason
		}
		logger.Error("item failed", "attempts", run.attempts, "reason", out.Reason, "err", run.lastErr)
	}
	return out
}

// buildRequest renders the prompt for item. A missing dictionary entry is a
// permanent failure.
func (o *Orchestrator) buildRequest(item domain.VocabularyItem) (domain.GenerationRequest, error) {
	data := prompt.Data{Word: item.Text, Simple: o.opts.Simple}
	if o.opts.Dictionary != nil {
		entries := o.opts.Dictionary.Lookup(item.Text)
		if len(entries) == 0 {
			return domain.GenerationRequest{}, newError(ErrorPermanentGeneration, "no_definition", fmt.Errorf("%w for %q", ErrNoDefinition, item.Text))
		}
		data.Definitions = prompt.DefinitionsFrom(entries)
	}
	text, err := o.prompts.Build(data)
	if err != nil {
		return domain.GenerationRequest{}, newError(ErrorPermanentGeneration, "prompt_build_failed", err)
	}
	return domain.GenerationRequest{
		Item:        item,
		Prompt:      text,
		Provider:    o.opts.Provider,
		Model:       o.opts.Model,
		Temperature: o.opts.Temperature,
		MaxTokens:   o.opts.MaxTokens,
	}, nil
}

// generateOnce performs a single attempt: generate, then parse.
func (o *Orchestrator) generateOnce(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	if r, ok := o.gen.(requestResolver); ok {
		resolved, err := r.Resolve(req)
		if err != nil {
			return domain.GenerationResult{}, newError(ErrorPermanentGeneration, "unresolved_model", err)
		}
		req = resolved
	}

	raw, err := o.gen.Generate(ctx, req)
	if err != nil {
		return domain.GenerationResult{}, err
	}
	sentences, err := prompt.ParseSentences(raw)
	if err != nil {
		return domain.GenerationResult{}, err
	}
	return domain.GenerationResult{
		ID:            req.Item.ID,
		Text:          req.Item.Text,
		Provider:      req.Provider,
		Model:         req.Model,
		GeneratedAt:   o.now().UTC(),
		RequestBytes:  len(req.Prompt),
		ResponseBytes: len(raw),
		Sentences:     sentences,
	}, nil
}

// PersistResult writes result once. It runs detached from ctx cancellation,
// bounded by the persist timeout, so a generated result is not lost to a
// cancelled run. storage.ErrAlreadyExists is returned unchanged (wrapped).
func (o *Orchestrator) PersistResult(ctx context.Context, result domain.GenerationResult) error {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.PersistTimeout)
	defer cancel()

	if err := o.results.SaveResult(pctx, result); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return err
		}
		return newError(ErrorStorageWrite, "persist_failed", err)
	}
	return nil
}

func (o *Orchestrator) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.opts.InitialBackoff
	b.MaxInterval = o.opts.MaxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.MaxElapsedTime = 0
	return b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var newUUID = func() string {
	return uuid.NewString()
}
