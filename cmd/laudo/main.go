// laudo is a command-line tool for rendering forensic engineering reports (laudos periciais).
//
// The case is read either from a JSON file holding the case record or from the case
// database by id. The report is written as PDF, DOCX or both, named after the process
// number unless -output names a file.
//
// Usage:
//
//	laudo -case case.json [options]
//	laudo -id <case id> -config laudo.yml [options]
//
// Input options (one required):
//
//	-case string      Path to a case record JSON file
//	-id string        Case id in the database configured by -config or LAUDO_DATABASE_DSN
//
// Output options:
//
//	-format string    pdf, docx or both (default "pdf")
//	-output string    Output file (single format) or directory (default ".")
//	-overwrite        Overwrite output files if they exist
//
// Report options:
//
//	-config string       Path to the settings YAML file
//	-report-type string  insalubridade, periculosidade or completo (default from the case)
//	-safe-mode           Render without images
//	-font-dir string     Directory holding Arial or DejaVu TTF files for the PDF
//	-debug               Outline image slots in the PDF and log at debug level
//
// Examples:
//
//	laudo -case case.json -format both -output ./out
//	laudo -config laudo.yml -id 42 -output laudo.pdf
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/gardar/laudo/pkg/casedata"
	"github.com/gardar/laudo/pkg/casestore"
	"github.com/gardar/laudo/pkg/laudo"
	"github.com/gardar/laudo/pkg/settings"
)

func main() {
	configPath := flag.String("config", "", "Path to the settings YAML file")
	casePath := flag.String("case", "", "Path to a case record JSON file")
	caseID := flag.String("id", "", "Case id to read from the case database")
	formatName := flag.String("format", "pdf", "Output format: pdf, docx or both")
	output := flag.String("output", ".", "Output file (single format) or directory")
	overwrite := flag.Bool("overwrite", false, "Overwrite output files if they already exist")
	reportType := flag.String("report-type", "", "insalubridade, periculosidade or completo")
	safeMode := flag.Bool("safe-mode", false, "Render without images")
	fontDir := flag.String("font-dir", "", "Directory holding Arial or DejaVu TTF files")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	if (*casePath == "") == (*caseID == "") {
		fmt.Fprintln(os.Stderr, "Error: Either -case or -id must be provided (but not both)")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	formats, err := parseFormats(*formatName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := settings.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *debug {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}
	if *reportType != "" {
		cfg.Render.ReportType = *reportType
	}
	if *fontDir != "" {
		cfg.Render.FontDir = *fontDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := loadCase(ctx, cfg, *casePath, *caseID)
	if err != nil {
		log.Fatal("failed to load case", zap.Error(err))
	}

	opts := cfg.ExportOptions(log)
	opts.SafeMode = *safeMode
	opts.PDF.Debug = *debug

	for _, f := range formats {
		res, err := laudo.Export(ctx, c, f, opts)
		if err != nil {
			log.Fatal("export failed", zap.String("format", string(f)), zap.Error(err))
		}
		path := outputPath(*output, res.Filename, len(formats))
		if err := writeOutput(path, res.Data, *overwrite); err != nil {
			log.Fatal("failed to write output", zap.String("path", path), zap.Error(err))
		}
		fmt.Println("Laudo created:", path)
	}
}

// parseFormats expands the -format value.
func parseFormats(name string) ([]laudo.Format, error) {
	if strings.EqualFold(strings.TrimSpace(name), "both") {
		return []laudo.Format{laudo.FormatPDF, laudo.FormatDOCX}, nil
	}
	f, err := laudo.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return []laudo.Format{f}, nil
}

func loadCase(ctx context.Context, cfg settings.Settings, path, id string) (*casedata.Case, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read case file: %w", err)
		}
		return casedata.Parse(data)
	}
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("-id needs database.dsn in the settings or %s", settings.EnvDatabaseDSN)
	}
	store, err := casestore.Open(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Get(ctx, id)
}

// outputPath uses -output as the file name when a single format is written to a path
// that is not an existing directory.
func outputPath(output, filename string, formats int) string {
	if formats == 1 && output != "" {
		if info, err := os.Stat(output); err != nil || !info.IsDir() {
			if filepath.Ext(output) != "" {
				return output
			}
		}
	}
	return filepath.Join(output, filename)
}

func writeOutput(path string, data []byte, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("output file %s already exists, use -overwrite to overwrite", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
