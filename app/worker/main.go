package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maternityCare/business/alerts"
	"maternityCare/business/preferences"
	"maternityCare/business/signals"
	"maternityCare/internal/bootstrap"
	"maternityCare/internal/repository/notification"
	psqlRepo "maternityCare/internal/repository/postgres"
	"maternityCare/pkg/config"
	"maternityCare/pkg/database"
	"maternityCare/pkg/logger"
	"maternityCare/pkg/metrics"

	"github.com/spf13/cobra"
)

// worker bundles what the batch commands need. It is built lazily in
// PersistentPreRunE so --help works without a database.
type worker struct {
	cfg         *config.Config
	events      *psqlRepo.EventRepository
	signals     signalBuilder
	preferences preferenceInferrer
}

func main() {
	w := &worker{}

	root := &cobra.Command{
		Use:           "worker",
		Short:         "Batch jobs for the maternity signal pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return w.init(cmd.Context())
		},
	}

	root.AddCommand(newSignalsCmd(w), newPreferencesCmd(w), newSweepCmd(w))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("worker failed", "error", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func (w *worker) init(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.App.Environment)
	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	chain, err := bootstrap.BuildChain(ctx, bootstrap.StageSignals, cfg.Oracle)
	if err != nil {
		return err
	}

	mailjetEmail := notification.NewMailjetRepository(notification.MailjetConfig{
		MailjetBaseURL:           cfg.Mailjet.MailjetBaseUrl,
		MailjetBasicAuthUsername: cfg.Mailjet.MailjetBasicAuthUsername,
		MailjetBasicAuthPassword: cfg.Mailjet.MailjetBasicAuthPassword,
		MailjetSenderEmail:       cfg.Mailjet.MailjetSenderEmail,
		MailjetSenderName:        cfg.Mailjet.MailjetSenderName,
		CareTeamEmail:            cfg.Mailjet.CareTeamEmail,
		CareTeamName:             cfg.Mailjet.CareTeamName,
	})

	eventRepo := psqlRepo.NewEventRepository(db)
	signalRepo := psqlRepo.NewSignalRepository(db)

	alertService := alerts.NewAlertService(psqlRepo.NewAlertRepository(db), mailjetEmail)

	w.cfg = cfg
	w.events = eventRepo
	w.signals = signals.NewSignalService(
		eventRepo,
		psqlRepo.NewChatRepository(db),
		psqlRepo.NewProfileRepository(db),
		signalRepo,
		alertService,
		chain,
		signals.Config{
			EventWindow:  cfg.Signal.EventWindow,
			MaxEvents:    cfg.Signal.MaxEvents,
			MaxChatTurns: cfg.Signal.MaxChatTurns,
		},
	)
	w.preferences = preferences.NewPreferenceService(psqlRepo.NewPreferenceRepository(db), preferences.Config{
		LookbackDays:    cfg.Signal.InteractionDays,
		MaxInteractions: cfg.Signal.MaxInteractions,
	})

	return nil
}

func newSignalsCmd(w *worker) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "signals",
		Short: "Build a signal snapshot for one user",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := w.signals.BuildSignals(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("building signals for %s: %w", userID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s priority=%s risk=%d tags=%v\n",
				snapshot.UserID, snapshot.Priority, snapshot.RiskLevel, []string(snapshot.Tags))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newPreferencesCmd(w *worker) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "preferences",
		Short: "Infer content preferences for one user",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := w.preferences.InferPreferences(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("inferring preferences for %s: %w", userID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s inferred=%d updated=%d\n", userID, len(result.Inferred), result.UpdatedCount)
			for _, p := range result.Inferred {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s %.6f\n", p.TagID, p.Weight)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newSweepCmd(w *worker) *cobra.Command {
	var (
		window      time.Duration
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Refresh preferences and signals for every recently active user",
		Long: `Refresh preferences and signals for every user with at least one
behavioral event inside the recency window (default 7 days).

Examples:
  worker sweep
  worker sweep --window 72h --concurrency 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if window <= 0 {
				window = w.cfg.Signal.RecencyWindow
			}
			since := time.Now().UTC().Add(-window)

			s := sweeper{
				users:       w.events,
				signals:     w.signals,
				preferences: w.preferences,
				concurrency: concurrency,
			}
			summary, err := s.run(cmd.Context(), since)
			if err != nil {
				return err
			}

			logger.Info("sweep finished",
				"users", summary.Users,
				"signal_failures", summary.SignalFailures,
				"preference_failures", summary.PreferenceFailures,
			)
			fmt.Fprintf(cmd.OutOrStdout(), "users=%d signal_failures=%d preference_failures=%d\n",
				summary.Users, summary.SignalFailures, summary.PreferenceFailures)
			return nil
		},
	}
	cmd.Flags().DurationVar(&window, "window", 0, "recency window (defaults to SWEEP_RECENCY_WINDOW)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "users processed in parallel")

	return cmd
}
