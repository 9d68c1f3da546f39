package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/marketforge/marketforge/internal/config"
	"github.com/marketforge/marketforge/internal/logging"
	"github.com/marketforge/marketforge/internal/metrics"
	"github.com/marketforge/marketforge/internal/session"
	"github.com/marketforge/marketforge/pkg/models"
)

func newSessionCommand() *cobra.Command {
	var sessionsDir string

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage analysis sessions",
	}
	cmd.PersistentFlags().StringVar(&sessionsDir, "dir", "sessions", "sessions directory")

	cmd.AddCommand(newSessionListCommand(&sessionsDir))
	cmd.AddCommand(newSessionInspectCommand(&sessionsDir))
	cmd.AddCommand(newSessionResumeCommand(&sessionsDir))
	cmd.AddCommand(newSessionDeleteCommand(&sessionsDir))
	return cmd
}

// applyDirFlag overrides the configured sessions dir only when the flag was
// explicitly passed, so a config file's sessions.dir survives the default
func applyDirFlag(cfg *config.Config, changed bool, dir string) {
	if changed {
		cfg.Sessions.Dir = dir
	}
}

// openStore builds a read-oriented store over an existing sessions dir.
// Module order is irrelevant for housekeeping, so it stays empty.
func openStore(dir string) (*session.FileStore, error) {
	return session.NewFileStore(dir, nil, slog.Default())
}

func newSessionListCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(*dir)
			if err != nil {
				return err
			}
			summaries, err := store.List()
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No sessions found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SESSION\tSTATUS\tPROGRESS\tUPDATED")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%.0f%% (%d/%d)\t%s\n",
					s.ID, s.Status,
					s.Progress.Percentage,
					s.Progress.CompletedCount, s.Progress.TotalCount,
					s.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}

func newSessionInspectCommand(dir *string) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "inspect <session-id>",
		Short: "Show a session's state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(*dir)
			if err != nil {
				return err
			}
			sess, found := store.Load(args[0])
			if !found {
				return fmt.Errorf("session %s not found", args[0])
			}
			if !full {
				// Results dominate the file size; drop them for the
				// default summary view
				sess.Results = nil
			}
			out, err := json.MarshalIndent(sess, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "include module results")
	return cmd
}

func newSessionResumeCommand(dir *string) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "resume <session-id>",
		Short: "Resume an interrupted session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			applyDirFlag(cfg, cmd.Flags().Changed("dir"), *dir)

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

			result, err := orch.Run(ctx, models.AnalysisInput{}, args[0])
			if err != nil {
				return err
			}
			fmt.Println()
			printRunResult(result)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (TOML)")
	return cmd
}

func newSessionDeleteCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(*dir)
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Session %s deleted.\n", args[0])
			return nil
		},
	}
}
