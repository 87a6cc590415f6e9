package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/di"
	"github.com/mikey/llm-mail-digest/internal/factory"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("Failed to load .env file: %v\n", err)
		os.Exit(1)
	}

	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	var failed bool
	err = container.Invoke(func(
		logger *zap.Logger,
		pipeline *core.PipelineService,
		store core.StateStore,
		seen factory.SeenCache,
	) error {
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		report := pipeline.Run(ctx, core.RunOptions{
			TriggerType: flags.Trigger,
			AccountID:   flags.AccountID,
		})

		if seen != nil {
			if err := seen.Close(); err != nil {
				logger.Error("Failed to close seen cache", zap.Error(err))
			}
		}
		if err := store.Close(); err != nil {
			logger.Error("Failed to close store", zap.Error(err))
		}

		failed = report.FailedAccounts > 0 || (report.AccountsProcessed == 0 && len(report.Errors) > 0)
		return printReport(os.Stdout, report, flags.JSONLog)
	})
	if err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
	if failed {
		os.Exit(2)
	}
}

// printReport writes the run report as JSON or as a short text summary
func printReport(w io.Writer, report *core.RunReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(w, "Run (%s) finished in %s\n", report.TriggerType, report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "Accounts: %d processed, %d succeeded, %d failed\n",
		report.AccountsProcessed, report.SuccessfulAccounts, report.FailedAccounts)
	fmt.Fprintf(w, "Emails processed: %d\n", report.TotalEmails)
	for _, acc := range report.Accounts {
		fmt.Fprintf(w, "  %s: fetched=%d processed=%d skipped=%d duplicates=%d failed=%d",
			acc.Email, acc.Fetched, acc.Processed, acc.Skipped, acc.Duplicates, acc.Failed)
		if acc.Error != "" {
			fmt.Fprintf(w, " error=%q", acc.Error)
		}
		fmt.Fprintln(w)
	}
	for _, e := range report.Errors {
		fmt.Fprintf(w, "Error: %s\n", e)
	}
	return nil
}
