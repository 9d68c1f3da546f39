package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/marketforge/marketforge/internal/config"
	"github.com/marketforge/marketforge/internal/content"
	"github.com/marketforge/marketforge/internal/imagegen"
	"github.com/marketforge/marketforge/internal/logging"
	"github.com/marketforge/marketforge/internal/metrics"
	"github.com/marketforge/marketforge/internal/modules"
	"github.com/marketforge/marketforge/internal/pipeline"
	"github.com/marketforge/marketforge/internal/session"
	"github.com/marketforge/marketforge/internal/util"
	"github.com/marketforge/marketforge/pkg/models"
)

func newRunCommand() *cobra.Command {
	var (
		configPath string
		niche      string
		product    string
		audience   string
		location   string
		resumeID   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the analysis pipeline",
		Long:  "Runs every analysis module for the given niche. Interrupted runs resume with --session; completed modules are never regenerated.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			// Flags override the analysis block from the config file
			input := cfg.Analysis
			if niche != "" {
				input.Niche = niche
			}
			if product != "" {
				input.Product = product
			}
			if audience != "" {
				input.TargetAudience = audience
			}
			if location != "" {
				input.Location = location
			}
			if resumeID == "" {
				if err := config.ValidateInput(nil, input); err != nil {
					return err
				}
			}

			logger, closeLog, err := logging.Setup(cfg.Logging.Level, cfg.Logging.File)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			collector := metrics.NewCollector(logger)
			orch, err := buildPipeline(cfg, collector, logger)
			if err != nil {
				return err
			}

			result, err := orch.Run(ctx, input, resumeID)
			if err != nil {
				return err
			}

			fmt.Println()
			printRunResult(result)
			if result.Interrupted {
				fmt.Printf("\nResume with: marketforge run --session %s\n", result.SessionID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (TOML)")
	cmd.Flags().StringVarP(&niche, "niche", "n", "", "market niche to analyze")
	cmd.Flags().StringVar(&product, "product", "", "product or service offered")
	cmd.Flags().StringVar(&audience, "audience", "", "target audience")
	cmd.Flags().StringVar(&location, "location", "", "geographic market")
	cmd.Flags().StringVarP(&resumeID, "session", "s", "", "session id to resume")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// buildPipeline wires the store, the generation chain, the content library,
// and the module registry into an orchestrator with a progress bar attached
func buildPipeline(cfg *config.Config, collector *metrics.Collector, logger *slog.Logger) (*pipeline.Orchestrator, error) {
	limiters := imagegen.NewRateLimiterPool()
	secrets := config.LoadSecrets()

	var providers []imagegen.Provider
	for _, name := range cfg.Generation.ProviderOrder {
		pc := cfg.Providers[name]
		if !pc.Enabled {
			continue
		}
		switch name {
		case "openai":
			providers = append(providers, imagegen.NewOpenAIProvider(
				secrets.OpenAIAPIKey, pc.BaseURL, pc.Model, pc.RequestsPerMinute,
				limiters, collector, logger))
		case "openrouter":
			providers = append(providers, imagegen.NewOpenRouterProvider(
				secrets.OpenRouterAPIKey, pc.BaseURL, pc.Models, pc.RequestsPerMinute,
				limiters, collector, logger))
		}
	}

	chain := imagegen.NewChain(providers, imagegen.NewRenderer(), collector, logger,
		imagegen.WithProviderTimeout(cfg.Generation.ProviderTimeout()))
	library := content.NewLibrary()
	registry := modules.Registry(modules.Deps{Chain: chain, Library: library})

	moduleNames := make([]string, len(registry))
	for i, d := range registry {
		moduleNames[i] = d.Name
	}
	store, err := session.NewFileStore(cfg.Sessions.Dir, moduleNames, logger)
	if err != nil {
		return nil, err
	}

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription("Starting"),
		progressbar.OptionSetWriter(os.Stdout),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	progress := func(message string, percentage float64, module string, step int) {
		bar.Describe(util.TruncateString(message, 42))
		_ = bar.Set(int(percentage))
	}

	return pipeline.New(store, registry,
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(collector),
		pipeline.WithProgress(progress),
	), nil
}

func printRunResult(result *models.RunResult) {
	fmt.Printf("Session:   %s\n", result.SessionID)
	fmt.Printf("Status:    %s\n", result.Status)
	fmt.Printf("Completed: %d this run, %d skipped, %d failed\n",
		len(result.Completed), len(result.Skipped), len(result.Failed))
	fmt.Printf("Progress:  %.1f%% (%d/%d modules)\n",
		result.Progress.Percentage,
		result.Progress.CompletedCount,
		result.Progress.TotalCount)
	if result.Errors > 0 {
		fmt.Printf("Errors:    %d recorded on the session\n", result.Errors)
	}
}
