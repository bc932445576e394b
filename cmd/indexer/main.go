// Command indexer is the one-shot pipeline: discover the workbook, compute
// the transformation index, then print a report or the industry trend and
// write a snapshot file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dtxcli/internal/config"
	"dtxcli/internal/exporter"
	"dtxcli/internal/infrastructure"
	"dtxcli/internal/services"
)

func main() {
	in := flag.String("in", "", "workbook file or directory to load (defaults to configured directories)")
	out := flag.String("out", "", "directory for exported snapshots (defaults to configured export dir)")
	code := flag.String("code", "", "stock code to report on; omit for the industry trend")
	format := flag.String("format", "csv", "snapshot format: csv or xlsx")
	sheets := flag.String("sheets", "", "sheet policy: year-sheets or all-sheets")
	policy := flag.String("policy", "", "index policy: year-relative or global-minmax")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	applyFlags(cfg, *in, *out, *sheets, *policy)

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger, *code, exporter.Format(*format)); err != nil {
		logger.Error("indexer failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// applyFlags lets command-line flags win over file and environment config.
func applyFlags(cfg *config.Config, in, out, sheets, policy string) {
	if in != "" {
		if info, err := os.Stat(in); err == nil && info.IsDir() {
			cfg.Data.Dirs = []string{in}
			cfg.Data.WorkbookFile = ""
		} else {
			cfg.Data.WorkbookFile = in
			cfg.Data.Dirs = []string{filepath.Dir(in)}
		}
	}
	if out != "" {
		cfg.Data.ExportDir = out
	}
	if sheets != "" {
		cfg.Data.SheetPolicy = sheets
	}
	if policy != "" {
		cfg.Data.IndexPolicy = policy
	}
}

func run(cfg *config.Config, logger *slog.Logger, code string, format exporter.Format) error {
	if !format.Valid() {
		return fmt.Errorf("unsupported format %q (want csv or xlsx)", format)
	}

	svc := services.NewDataService(cfg, logger)
	ctx := context.Background()

	if code == "" {
		return exportTrend(ctx, svc, format)
	}
	return exportCompany(ctx, svc, code, format)
}

func exportTrend(ctx context.Context, svc *services.DataService, format exporter.Format) error {
	trend, err := svc.IndustryTrend(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Industry trend (average transformation index per year):")
	for _, point := range trend {
		fmt.Printf("  %d  %6.2f\n", point.Year, point.Index)
	}

	path, err := svc.ExportTrend(ctx, format)
	if err != nil {
		return err
	}
	fmt.Printf("Snapshot written to %s\n", path)
	return nil
}

func exportCompany(ctx context.Context, svc *services.DataService, code string, format exporter.Format) error {
	report, err := svc.Report(ctx, code)
	if err != nil {
		return err
	}
	fmt.Println(report.Text)

	path, err := svc.ExportHistory(ctx, code, format)
	if err != nil {
		return err
	}
	fmt.Printf("Snapshot written to %s\n", path)
	return nil
}
