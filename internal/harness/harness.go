package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/catsite/internal/config"
	"github.com/roach88/catsite/internal/engine"
	"github.com/roach88/catsite/internal/store"
	"github.com/roach88/catsite/internal/testutil"
)

// Harness runs one scenario: a seeded store and the engine rendering the
// scenario's pages.
type Harness struct {
	store  store.Store
	engine *engine.Engine
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, seeded
// with the fixture tables. A fixed request id keeps logs reproducible.
//
// Execution flow:
// 1. Create and seed a fresh in-memory database
// 2. Load the site configuration and apply the scenario's options
// 3. Execute setup statements
// 4. Render flow steps in order, checking expect clauses
// 5. Evaluate assertions against the outputs and the engine state
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with the engine logging to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(ctx, store.Config{Driver: "sqlite3", DSN: ":memory:"})
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := testutil.Seed(ctx, st); err != nil {
		return nil, err
	}

	site, err := loadSite(scenario)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		store: st,
		engine: engine.New(site, st,
			engine.WithLogger(logger),
			engine.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.RequestID)),
		),
		logger: logger,
	}

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	h.executeFlow(ctx, scenario.Flow, result)

	actx := &AssertionContext{Engine: h.engine}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// loadSite reads the scenario's site configuration, the fixture site by
// default, and applies its options.
func loadSite(s *Scenario) (*config.Site, error) {
	var (
		site *config.Site
		err  error
	)
	if s.Config != "" {
		site, err = config.Load(s.Config)
	} else {
		site, err = config.Parse("fixture.cue", []byte(testutil.SiteSource))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load site: %w", err)
	}
	return site.WithOptions(s.Options), nil
}

// executeSetup runs the setup statements in order.
func (h *Harness) executeSetup(ctx context.Context, setup []string) error {
	for i, stmt := range setup {
		if err := h.store.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		h.logger.Debug("setup step completed", "step", i)
	}
	return nil
}

// executeFlow renders each page and checks its expect clause. A mismatch
// fails the result but does not stop the flow.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) {
	for i, step := range flow {
		out := h.engine.Render(ctx, step.Render)
		result.AddOutput(out)

		if step.Expect != nil && *step.Expect != out {
			result.AddError(fmt.Sprintf("flow step %d: expected output %q, got %q", i, *step.Expect, out))
		}
		h.logger.Debug("flow step rendered", "step", i, "bytes", len(out))
	}
}
