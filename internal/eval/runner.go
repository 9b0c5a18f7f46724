// Package eval orchestrates evaluation batches: it runs each scenario
// through the turn protocol, scores the outcome, and contains every
// per-scenario failure so the batch always completes.
package eval

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/remedybench/remedybench/internal/agent"
	"github.com/remedybench/remedybench/internal/chat"
	"github.com/remedybench/remedybench/internal/scoring"
	"github.com/remedybench/remedybench/internal/sim"
	"github.com/remedybench/remedybench/internal/tools"
)

// Config holds batch runner configuration.
type Config struct {
	Model      string // model identifier forwarded to the provider
	MaxSteps   int    // per-run tool-path budget; agent.DefaultMaxSteps when 0
	Limit      int    // evaluate at most this many scenarios; 0 = all
	PromptsDir string // directory holding variant prompt files
	Parallel   bool   // run scenarios concurrently (each owns its environment)
}

// DefaultConfig returns a config matching a local single-scenario run.
func DefaultConfig() Config {
	return Config{
		Model:      "openrouter/auto",
		MaxSteps:   agent.DefaultMaxSteps,
		Limit:      1,
		PromptsDir: "prompts",
	}
}

// RunResult is the scored record of one scenario run.
type RunResult struct {
	RunID            string          `json:"run_id"`
	ScenarioID       int             `json:"scenario_id"`
	Valid            bool            `json:"valid"`
	TechnicalSuccess bool            `json:"technical_success"`
	Reasons          []string        `json:"reasons"`
	TechnicalReasons []string        `json:"technical_reasons"`
	Trace            *agent.Trace    `json:"trace"`
	Partial          scoring.Signals `json:"partial"`
	Weighted         scoring.Score   `json:"weighted_score"`
	Error            string          `json:"error,omitempty"` // communication failure, if any
}

// VariantResult aggregates one variant's runs in scenario order.
type VariantResult struct {
	Runs []RunResult `json:"runs"`
}

// Runner executes evaluation batches.
type Runner struct {
	config   Config
	registry *tools.Registry
	provider chat.Provider
}

// NewRunner creates a batch runner. The provider may be nil for
// ground-truth-only use.
func NewRunner(config Config, provider chat.Provider) *Runner {
	return &Runner{
		config:   config,
		registry: tools.NewRegistry(),
		provider: provider,
	}
}

// RunGroundTruth replays recorded tool sequences through the full protocol.
func (r *Runner) RunGroundTruth(ctx context.Context, scenarios []Scenario, gt GroundTruth) VariantResult {
	return r.runBatch(ctx, VariantGroundTruth, scenarios, func(sc Scenario) (agent.DecisionSource, []chat.Message) {
		return agent.NewScriptedSource(gt[strconv.Itoa(sc.ID)]), nil
	})
}

// RunVariant evaluates scenarios against the live chat-completion boundary
// using the named prompt variant.
func (r *Runner) RunVariant(ctx context.Context, scenarios []Scenario, variant string) VariantResult {
	preamble := []chat.Message{{Role: "system", Content: tools.SchemaText()}}
	if prompt := LoadVariantPrompt(r.config.PromptsDir, variant); prompt != "" {
		preamble = append(preamble, chat.Message{Role: "system", Content: prompt})
	}
	return r.runBatch(ctx, variant, scenarios, func(Scenario) (agent.DecisionSource, []chat.Message) {
		return agent.NewLiveSource(r.provider, r.config.Model), preamble
	})
}

func (r *Runner) runBatch(ctx context.Context, variant string, scenarios []Scenario, setup func(Scenario) (agent.DecisionSource, []chat.Message)) VariantResult {
	if r.config.Limit > 0 && len(scenarios) > r.config.Limit {
		scenarios = scenarios[:r.config.Limit]
	}

	runs := make([]RunResult, len(scenarios))

	if r.config.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, sc := range scenarios {
			i, sc := i, sc
			g.Go(func() error {
				source, preamble := setup(sc)
				runs[i] = r.runOne(gctx, variant, sc, source, preamble)
				return nil
			})
		}
		// Workers never return errors; failures are recorded per run.
		_ = g.Wait()
		return VariantResult{Runs: runs}
	}

	for i, sc := range scenarios {
		source, preamble := setup(sc)
		runs[i] = r.runOne(ctx, variant, sc, source, preamble)
	}
	return VariantResult{Runs: runs}
}

// runOne executes and scores a single scenario. It never returns an error:
// a communication failure ends that run early, gets recorded on the result,
// and the batch moves on.
func (r *Runner) runOne(ctx context.Context, variant string, sc Scenario, source agent.DecisionSource, preamble []chat.Message) RunResult {
	env := sim.New(sc.InitialState)
	session := agent.NewSession(env, r.registry, source, agent.SessionConfig{
		MaxSteps: r.config.MaxSteps,
		Preamble: preamble,
		Prompt:   sc.Prompt,
	})

	trace, err := session.Run(ctx)

	acceptance := scoring.CheckAcceptance(env, sc.Acceptance)
	technical := scoring.CheckTechnicalSuccess(env, sc.Acceptance)
	partial := scoring.PartialCredit(trace)
	weighted := scoring.WeightedScore(technical, partial)

	result := RunResult{
		RunID:            uuid.NewString(),
		ScenarioID:       sc.ID,
		Valid:            acceptance.Valid,
		TechnicalSuccess: technical.Valid,
		Reasons:          acceptance.Reasons,
		TechnicalReasons: technical.Reasons,
		Trace:            trace,
		Partial:          partial,
		Weighted:         weighted,
	}

	if err != nil {
		// Fatal to this run only; the partial trace is still scored.
		result.Error = err.Error()
		log.Error().
			Err(err).
			Str("variant", variant).
			Int("scenario", sc.ID).
			Msg("scenario run terminated early")
	}

	log.Info().
		Str("variant", variant).
		Int("scenario", sc.ID).
		Bool("valid", acceptance.Valid).
		Bool("technical", technical.Valid).
		Float64("score", weighted.Total).
		Strs("reasons", acceptance.Reasons).
		Msg("scenario evaluated")

	return result
}
