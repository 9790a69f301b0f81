package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"accidentscli/internal/app"
	apperrors "accidentscli/internal/errors"
	"accidentscli/internal/infrastructure"
)

func main() {
	configPath := flag.String("config", "", "configuration file (defaults to accidents.yaml or configs/accidents.yaml)")
	baseDir := flag.String("base", "", "base directory for relative data, reports and logs paths")
	years := flag.String("years", "", "comma-separated years to include in the metrics (defaults to every year in the dataset)")
	in := flag.String("in", "", "consolidated CSV path (defaults to paths.consolidated_csv)")
	flag.Parse()

	yearList, err := app.ParseYears(*years)
	if err != nil {
		slog.Error("Invalid -years flag", "error", err)
		os.Exit(2)
	}

	ctx, stop := app.SignalContext(context.Background())
	defer stop()

	application, err := app.NewApplication(app.Options{
		ConfigPath: *configPath,
		BaseDir:    *baseDir,
		Years:      yearList,
		Output:     *in,
	})
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}

	result, err := application.Report(ctx)
	if err != nil {
		infrastructure.WithError(application.Logger, err).ErrorContext(ctx, "Report failed",
			slog.String("code", apperrors.CodeOf(err)))
		application.Stop(context.Background())
		os.Exit(1)
	}

	application.Logger.InfoContext(ctx, "Metric report ready",
		slog.Int("tables", result.Tables),
		slog.String("bundle", result.Bundle),
		slog.Any("years", result.Report.Years))
	if err := application.Stop(context.Background()); err != nil {
		slog.Warn("Shutdown incomplete", "error", err)
	}
}
