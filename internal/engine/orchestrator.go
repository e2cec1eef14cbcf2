package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/funnelstack/funnel-probe/internal/agent"
	"github.com/funnelstack/funnel-probe/internal/classifier"
	"github.com/funnelstack/funnel-probe/internal/metrics"
	"github.com/funnelstack/funnel-probe/internal/models"
)

// Config tunes orchestrator behaviour.
type Config struct {
	// SettleDelay is the pause after each page action, letting asynchronous
	// page state (navigation, cart badge, modal animation) stabilize before
	// the next observation. A crude but deliberate substitute for
	// event-based readiness detection. Zero disables the pause; negative
	// selects the default.
	SettleDelay time.Duration
	// MaxCartAttempts bounds the add-to-cart escalation ladder.
	MaxCartAttempts int
	// Clock supplies timestamps; tests inject a fake.
	Clock func() time.Time
}

const (
	defaultSettleDelay     = 1500 * time.Millisecond
	defaultMaxCartAttempts = 3
	closeTimeout           = 10 * time.Second
)

// Orchestrator drives one mystery-shopper run through the purchase funnel:
// homepage, product discovery, product page, add-to-cart, checkout, form
// fill. It stops strictly short of payment submission.
type Orchestrator struct {
	logger   *slog.Logger
	provider agent.Provider
	rules    classifier.Library
	settle   time.Duration
	maxCart  int
	clock    func() time.Time
}

// NewOrchestrator constructs the funnel state machine.
func NewOrchestrator(logger *slog.Logger, provider agent.Provider, rules classifier.Library, cfg Config) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	settle := cfg.SettleDelay
	if settle < 0 {
		settle = defaultSettleDelay
	}
	maxCart := cfg.MaxCartAttempts
	if maxCart <= 0 {
		maxCart = defaultMaxCartAttempts
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Orchestrator{
		logger:   logger,
		provider: provider,
		rules:    rules,
		settle:   settle,
		maxCart:  maxCart,
		clock:    clock,
	}
}

type runState struct {
	run      *models.FunnelRun
	recorder *Recorder
	findings *findingLog
	session  agent.Session
	lastURL  string
}

// Run executes the full funnel against a store. It never returns an error:
// stage failures become drop-offs inside a completed result, and only a
// session that cannot start (or keep navigating) yields a failed result.
func (o *Orchestrator) Run(ctx context.Context, runID, storeURL string) models.AnalysisResult {
	start := o.clock()
	st := &runState{
		run:      &models.FunnelRun{RunID: runID, StoreURL: storeURL, StartedAt: start},
		recorder: NewRecorder(o.clock),
		findings: newFindingLog(),
		lastURL:  storeURL,
	}

	o.logger.Info("funnel run starting", slog.String("run_id", runID), slog.String("store_url", storeURL))

	session, err := o.provider.NewSession(ctx)
	if err != nil {
		return o.failedResult(st, fmt.Errorf("session init: %w", err))
	}
	st.session = session
	st.run.SessionURL = session.ReplayURL()
	defer o.closeSession(session)

	if err := o.navigate(ctx, st); err != nil {
		return o.failedResult(st, fmt.Errorf("open store: %w", err))
	}

	o.analyzeHomepage(ctx, st)
	o.discoverProduct(ctx, st)

	if st.run.DropOffStep == nil {
		o.analyzeProductPage(ctx, st)
		o.addToCart(ctx, st, start)
	}
	if st.run.DropOffStep == nil && st.run.AddToCartSuccess {
		o.navigateCheckout(ctx, st)
	}
	if st.run.DropOffStep == nil && st.run.CheckoutReached {
		o.fillCheckoutForm(ctx, st)
	}

	return o.completedResult(st)
}

func (o *Orchestrator) completedResult(st *runState) models.AnalysisResult {
	findings := st.findings.list()
	score := Score(st.run.Snapshot(), findings)
	result := models.AnalysisResult{
		RunID:      st.run.RunID,
		StoreURL:   st.run.StoreURL,
		Status:     models.StatusCompleted,
		Score:      score,
		Metrics:    st.run.Snapshot(),
		Findings:   findings,
		Timeline:   st.recorder.Events(),
		SessionURL: st.run.SessionURL,
		CreatedAt:  o.clock().UTC(),
	}
	o.logger.Info("funnel run completed",
		slog.String("run_id", st.run.RunID),
		slog.Int("score", score),
		slog.Bool("add_to_cart", st.run.AddToCartSuccess),
		slog.Bool("checkout_reached", st.run.CheckoutReached),
	)
	return result
}

// failedResult is the single top-level failure path: session init or a store
// that cannot even be opened. The session close is still attempted by the
// deferred handler when a session exists.
func (o *Orchestrator) failedResult(st *runState, err error) models.AnalysisResult {
	drop := models.DropOffInitialization
	st.run.DropOffStep = &drop
	metrics.ObserveDropOff(string(drop))
	o.logger.Error("funnel run failed", slog.String("run_id", st.run.RunID), slog.Any("error", err))

	findings := []models.Finding{{
		ID:             "analysis-failed",
		Category:       models.CategoryCritical,
		Title:          "Analysis could not be completed",
		Description:    "The automated shopper could not start or continue a browsing session on the store.",
		Evidence:       err.Error(),
		Recommendation: "Verify the store URL is reachable from the public internet and retry.",
	}}

	return models.AnalysisResult{
		RunID:      st.run.RunID,
		StoreURL:   st.run.StoreURL,
		Status:     models.StatusFailed,
		Score:      0,
		Metrics:    models.Metrics{DropOffStep: &drop},
		Findings:   findings,
		Timeline:   st.recorder.Events(),
		SessionURL: st.run.SessionURL,
		Error:      err.Error(),
		CreatedAt:  o.clock().UTC(),
	}
}

func (st *runState) dropOff(step models.DropOffStep) {
	if st.run.DropOffStep != nil {
		return
	}
	s := step
	st.run.DropOffStep = &s
	metrics.ObserveDropOff(string(step))
}

// act performs one UI action, records it on the timeline, and settles.
func (o *Orchestrator) act(ctx context.Context, st *runState, label, instruction string) error {
	err := st.session.Act(ctx, instruction)
	st.refreshURL(ctx)
	evidence := ""
	if err != nil {
		evidence = err.Error()
	}
	st.recorder.Record(label, st.lastURL, err == nil, evidence)
	o.wait(ctx)
	return err
}

// extract takes one observation and records the attempt on the timeline.
func (o *Orchestrator) extract(ctx context.Context, st *runState, label, prompt string) (string, error) {
	obs, err := st.session.Extract(ctx, prompt)
	text := obs.Text()
	evidence := classifier.Snippet(text, 160)
	if err != nil {
		evidence = err.Error()
	}
	st.recorder.Record(label, st.lastURL, err == nil, evidence)
	return text, err
}

func (st *runState) refreshURL(ctx context.Context) {
	if url, err := st.session.CurrentURL(ctx); err == nil && url != "" {
		st.lastURL = url
	}
}

// wait pauses for the settle delay, honouring context cancellation.
func (o *Orchestrator) wait(ctx context.Context) {
	if o.settle <= 0 {
		return
	}
	timer := time.NewTimer(o.settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// classify feeds an observation through a stage rule set and accumulates
// the resulting findings.
func (o *Orchestrator) classify(st *runState, observation string, set classifier.RuleSet) {
	st.findings.add(classifier.Classify(observation, set)...)
}

// closeSession releases the browsing session exactly once. A close failure
// must never mask the run's actual outcome, so it is only logged.
func (o *Orchestrator) closeSession(session agent.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := session.Close(ctx); err != nil {
		o.logger.Warn("session close failed", slog.Any("error", err))
	}
}
