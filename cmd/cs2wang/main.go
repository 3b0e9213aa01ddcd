package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ChuheLin/cs2-wang/internal/app"
	"github.com/ChuheLin/cs2-wang/internal/config"
	"github.com/ChuheLin/cs2-wang/internal/domain"
	"github.com/ChuheLin/cs2-wang/internal/logging"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "cs2wang",
		Short:         "CS2 daily news and market reports for a Hexo blog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults to $CS2WANG_CONFIG)")

	root.AddCommand(
		runCmd(&configPath, domain.KindNews, "Summarize the last day of HLTV news into a post"),
		runCmd(&configPath, domain.KindMarket, "Scan the skin price catalog and publish the quant report"),
		runCmd(&configPath, domain.KindReport, "Write the market commentary from the latest headlines"),
		scheduleCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runCmd(configPath *string, kind domain.ReportKind, short string) *cobra.Command {
	use := string(kind)
	if kind == domain.KindMarket {
		use = "market"
	}
	return &cobra.Command{
		Use:     use,
		Aliases: aliases(kind),
		Short:   short,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, logger, err := build(ctx, *configPath)
			if err != nil {
				return err
			}
			defer application.Close()

			report, err := application.RunOnce(ctx, string(kind))
			if err != nil {
				logger.Error("pipeline failed", "pipeline", string(kind), "error", err)
				return err
			}
			if report == nil {
				logger.Info("run finished without a post", "pipeline", string(kind))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Path)
			return nil
		},
	}
}

func aliases(kind domain.ReportKind) []string {
	if kind == domain.KindMarket {
		return []string{string(kind)}
	}
	return nil
}

func scheduleCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run enabled pipelines on their cron schedules until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, _, err := build(ctx, *configPath)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Serve(ctx)
		},
	}
}

func build(ctx context.Context, configPath string) (*app.Application, *slog.Logger, error) {
	cfg := config.Load(configPath)
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return application, logger, nil
}
