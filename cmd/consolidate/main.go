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
	years := flag.String("years", "", "comma-separated source years to consolidate (defaults to every configured year)")
	out := flag.String("out", "", "consolidated CSV path (defaults to paths.consolidated_csv)")
	sqlitePath := flag.String("sqlite", "", "also store the dataset in this SQLite database")
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
		Output:     *out,
		SQLitePath: *sqlitePath,
	})
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}

	result, err := application.Consolidate(ctx)
	if err != nil {
		infrastructure.WithError(application.Logger, err).ErrorContext(ctx, "Consolidation failed",
			slog.String("code", apperrors.CodeOf(err)))
		application.Stop(context.Background())
		os.Exit(1)
	}

	application.Logger.InfoContext(ctx, "Consolidated dataset ready",
		slog.String("output", result.OutputPath),
		slog.Int("records", result.Dataset.Len()),
		slog.Bool("stored", result.Stored))
	if err := application.Stop(context.Background()); err != nil {
		slog.Warn("Shutdown incomplete", "error", err)
	}
}
