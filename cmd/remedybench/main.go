// Command remedybench evaluates remediation agents against simulated
// incident scenarios.
//
// Usage:
//
//	remedybench run                          # Replay ground-truth sequences
//	remedybench run --variant baseline       # Evaluate a live model, baseline prompt
//	remedybench run --variant both --limit 5 # Both live variants, 5 scenarios
//	remedybench list                         # List available scenarios
//
// Credentials for live runs come from OPENROUTER_API_KEY (a .env file in the
// working directory is honored). Without a key, live runs degrade to an
// immediate "no_api_key" termination instead of failing.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/remedybench/remedybench/internal/chat"
	"github.com/remedybench/remedybench/internal/eval"
	"github.com/remedybench/remedybench/internal/logging"
	"github.com/remedybench/remedybench/internal/report"
)

// Version information (set at build time with -ldflags)
var Version = "dev"

var (
	flagModel      string
	flagVariant    string
	flagLimit      int
	flagMaxSteps   int
	flagVerbose    bool
	flagParallel   bool
	flagDataDir    string
	flagPromptsDir string
	flagResultsDir string
)

var rootCmd = &cobra.Command{
	Use:     "remedybench",
	Short:   "remedybench - evaluation harness for incident remediation agents",
	Long:    `remedybench runs multi-step remediation scenarios against a simulated infrastructure environment and scores the end state against per-scenario acceptance criteria.`,
	Version: Version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an evaluation batch and write results",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd.Context())
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listScenarios()
	},
}

func init() {
	runCmd.Flags().StringVar(&flagModel, "model", "openrouter/auto", "Model identifier for live runs")
	runCmd.Flags().StringVar(&flagVariant, "variant", eval.VariantGroundTruth, "Variant to run: ground-truth, baseline, improved, both")
	runCmd.Flags().IntVar(&flagLimit, "limit", 1, "Number of scenarios to evaluate (0 = all)")
	runCmd.Flags().IntVar(&flagMaxSteps, "max-steps", 0, "Per-run tool step budget (0 = default)")
	runCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")
	runCmd.Flags().BoolVar(&flagParallel, "parallel", false, "Evaluate scenarios concurrently")
	runCmd.Flags().StringVar(&flagDataDir, "data-dir", "data", "Directory holding scenarios.json and ground_truth.json")
	runCmd.Flags().StringVar(&flagPromptsDir, "prompts-dir", "prompts", "Directory holding variant prompt files")
	runCmd.Flags().StringVar(&flagResultsDir, "results-dir", "results", "Directory to write results into")
	listCmd.Flags().StringVar(&flagDataDir, "data-dir", "data", "Directory holding scenarios.json")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runBatch(ctx context.Context) error {
	// A missing .env is fine; live runs then depend on the process env.
	_ = godotenv.Load()

	level := "warn"
	if flagVerbose {
		level = "info"
	}
	logging.Init(logging.Config{Format: "auto", Level: level, Component: "remedybench"})

	scenarios, err := eval.LoadScenarios(filepath.Join(flagDataDir, "scenarios.json"))
	if err != nil {
		return err
	}

	provider := chat.NewOpenRouterClientFromEnv(flagModel)
	if !provider.HasCredentials() && flagVariant != eval.VariantGroundTruth {
		log.Warn().Msg("no OPENROUTER_API_KEY configured; live runs will terminate with no_api_key")
	}

	config := eval.DefaultConfig()
	config.Model = flagModel
	config.Limit = flagLimit
	config.MaxSteps = flagMaxSteps
	config.PromptsDir = flagPromptsDir
	config.Parallel = flagParallel

	runner := eval.NewRunner(config, provider)

	results := report.Results{}
	switch flagVariant {
	case eval.VariantGroundTruth:
		gt, err := eval.LoadGroundTruth(filepath.Join(flagDataDir, "ground_truth.json"))
		if err != nil {
			return err
		}
		results["ground_truth"] = runner.RunGroundTruth(ctx, scenarios, gt)
	case "both":
		results[eval.VariantBaseline] = runner.RunVariant(ctx, scenarios, eval.VariantBaseline)
		results[eval.VariantImproved] = runner.RunVariant(ctx, scenarios, eval.VariantImproved)
	case eval.VariantBaseline, eval.VariantImproved:
		results[flagVariant] = runner.RunVariant(ctx, scenarios, flagVariant)
	default:
		return fmt.Errorf("unknown variant: %s (use ground-truth, baseline, improved, or both)", flagVariant)
	}

	jsonPath := filepath.Join(flagResultsDir, "results.json")
	if err := report.WriteJSON(jsonPath, results); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", jsonPath)

	mdPath := filepath.Join(flagResultsDir, "results.md")
	if err := report.WriteMarkdown(mdPath, results); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", mdPath)

	return nil
}

func listScenarios() error {
	scenarios, err := eval.LoadScenarios(filepath.Join(flagDataDir, "scenarios.json"))
	if err != nil {
		return err
	}
	fmt.Println("Available scenarios:")
	fmt.Println()
	for _, sc := range scenarios {
		fmt.Printf("  %d - %s\n", sc.ID, truncate(sc.Prompt, 100))
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
