package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/reviewbot/internal/adapter/driven/github"
	gitlabadapter "github.com/ericfisherdev/reviewbot/internal/adapter/driven/gitlab"
	"github.com/ericfisherdev/reviewbot/internal/adapter/driven/ollama"
	sqliteadapter "github.com/ericfisherdev/reviewbot/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/reviewbot/internal/application"
	"github.com/ericfisherdev/reviewbot/internal/config"
	"github.com/ericfisherdev/reviewbot/internal/domain/model"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "reviewbot",
		Short:         "Polls GitHub/GitLab for review mentions and posts generated code reviews",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (default: reviewbot.yaml discovery)")

	root.AddCommand(newRunCmd(&configFile))
	root.AddCommand(newOnceCmd(&configFile))
	root.AddCommand(newHistoryCmd(&configFile))

	return root
}

func newRunCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the polling loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := sqliteadapter.NewDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := db.Close(); closeErr != nil {
					slog.Error("error closing database", "error", closeErr)
				}
			}()

			if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
				return err
			}

			svc := buildService(cfg, sqliteadapter.NewReviewLogRepo(db))

			slog.Info("reviewbot started",
				"bot_identity", cfg.BotIdentity,
				"poll_interval", cfg.PollInterval,
				"cooldown", cfg.Cooldown,
				"prompt_mode", string(cfg.PromptMode),
				"github_repos", len(cfg.GitHub.Repos),
				"gitlab_projects", len(cfg.GitLab.Projects),
				"generation_host", cfg.Generation.Host,
				"default_model", cfg.Generation.DefaultModel,
			)

			svc.Start(ctx)
			slog.Info("shutdown complete")
			return nil
		},
	}
}

func newOnceCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single review pass and exit (non-zero on failure)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := sqliteadapter.NewDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
				return err
			}

			svc := buildService(cfg, sqliteadapter.NewReviewLogRepo(db))
			return svc.RunOnce(ctx)
		},
	}
}

func newHistoryCmd(configFile *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent review records from the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}

			db, err := sqliteadapter.NewDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
				return err
			}

			records, err := sqliteadapter.NewReviewLogRepo(db).ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			for _, r := range records {
				note := ""
				if r.Rejected {
					note = "  (model rejected)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s#%d  model=%s%s\n",
					r.PostedAt.Format(time.RFC3339), r.Host, r.Repo, r.RequestNumber, r.Model, note)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of records to print")

	return cmd
}

// loadConfig loads and validates configuration, then installs the configured
// log level on the default slog logger.
func loadConfig(configFile string) (*config.Config, error) {
	cfg, err := config.Load(config.LoaderOptions{ConfigFile: configFile})
	if err != nil {
		return nil, err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	return cfg, nil
}

// buildService wires the configured source-control targets and the generator
// into a ReviewService.
func buildService(cfg *config.Config, store *sqliteadapter.ReviewLogRepo) *application.ReviewService {
	var targets []application.Target

	if cfg.GitHub.Configured() {
		targets = append(targets, application.Target{
			Source: githubadapter.NewClient(cfg.GitHub.Token),
			Repos:  toRepoRefs(cfg.GitHub.Repos),
		})
		slog.Info("github target configured", "repos", cfg.GitHub.Repos)
	}

	if cfg.GitLab.Configured() {
		targets = append(targets, application.Target{
			Source: gitlabadapter.NewClient(cfg.GitLab.BaseURL, cfg.GitLab.Token),
			Repos:  toRepoRefs(cfg.GitLab.Projects),
		})
		slog.Info("gitlab target configured", "base_url", cfg.GitLab.BaseURL, "projects", cfg.GitLab.Projects)
	}

	generator := ollama.NewClient(cfg.Generation.Host, cfg.Generation.DefaultModel, cfg.Generation.Timeout)

	return application.NewReviewService(targets, generator, store, application.Settings{
		BotIdentity:   cfg.BotIdentity,
		DefaultModel:  cfg.Generation.DefaultModel,
		AllowedModels: cfg.Generation.AllowedModels,
		PromptMode:    cfg.PromptMode,
		PollInterval:  cfg.PollInterval,
		Cooldown:      cfg.Cooldown,
	})
}

func toRepoRefs(refs []string) []model.RepoRef {
	out := make([]model.RepoRef, len(refs))
	for i, r := range refs {
		out[i] = model.RepoRef(r)
	}
	return out
}
