package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"insightdash/adapters/excel"
	"insightdash/adapters/postgres"
	"insightdash/app"
	"insightdash/domain/core"
	"insightdash/internal/config"
	"insightdash/internal/container"
	"insightdash/internal/report"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// maxParallelFiles bounds how many files are analyzed at once
const maxParallelFiles = 4

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "insightdash-cli",
		Short: "Run exploratory analysis on spreadsheets and query results",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newAnalyzeDBCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type commonFlags struct {
	seed    int64
	format  string
	maxRows int
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Random seed for clustering; 0 uses ANALYSIS_SEED or a fresh seed")
	cmd.Flags().StringVar(&f.format, "format", "json", "Output format: json|markdown|html")
	cmd.Flags().IntVar(&f.maxRows, "max-rows", 0, "Row limit; 0 uses ANALYSIS_MAX_ROWS")
}

// build loads configuration, applies flag overrides and wires the container
func (f *commonFlags) build() (*container.Container, error) {
	if err := checkFormat(f.format); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if f.seed != 0 {
		cfg.Analysis.Seed = f.seed
	}
	if f.maxRows > 0 {
		cfg.Analysis.MaxRows = f.maxRows
	}
	return container.New(cfg)
}

func newAnalyzeCmd() *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "analyze [files...]",
		Short: "Analyze CSV or XLSX files",
		Long: `Clean each file, compute statistics and models, and print a report per file.

Files are analyzed in parallel and reported in argument order.

Example: insightdash-cli analyze sales.csv inventory.xlsx --format markdown --seed 42`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.build()
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			readerConfig := excel.ReaderConfig{MaxRows: c.Config.Analysis.MaxRows}
			return runAnalyzeFiles(cmd.Context(), c.Service, readerConfig, args, flags.format, cmd.OutOrStdout())
		},
	}

	flags.register(cmd)
	return cmd
}

func newAnalyzeDBCmd() *cobra.Command {
	var flags commonFlags
	var query, databaseURL, datasetID string

	cmd := &cobra.Command{
		Use:   "analyze-db",
		Short: "Analyze the result set of a PostgreSQL query",
		Long: `Run a read-only query and analyze the returned rows as one table.

The connection string defaults to DATABASE_URL.

Example: insightdash-cli analyze-db --query "SELECT region, units, revenue FROM orders" --format markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.build()
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			if databaseURL != "" {
				c.Config.Database.URL = databaseURL
			}
			if err := c.InitWithDatabase(cmd.Context()); err != nil {
				return err
			}

			src := postgres.NewQueryTableSource(c.DB, query, c.Config.Analysis.MaxRows)
			result, err := c.Service.AnalyzeSource(cmd.Context(), core.DatasetID(datasetID), src)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), flags.format, result)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&query, "query", "", "SQL query whose rows are analyzed")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string (default: DATABASE_URL)")
	cmd.Flags().StringVar(&datasetID, "dataset-id", "", "Identifier echoed in the report")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

// runAnalyzeFiles analyzes files concurrently and writes the reports in order.
// The first failure cancels the remaining files.
func runAnalyzeFiles(ctx context.Context, service *app.AnalysisService, readerConfig excel.ReaderConfig, files []string, format string, w io.Writer) error {
	reports := make([]*app.AnalysisReport, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFiles)
	for i, path := range files {
		g.Go(func() error {
			src := excel.NewDataReader(path, readerConfig)
			result, err := service.AnalyzeSource(ctx, core.DatasetID(datasetName(path)), src)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			reports[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, result := range reports {
		if err := render(w, format, result); err != nil {
			return err
		}
	}
	return nil
}

func render(w io.Writer, format string, result *app.AnalysisReport) error {
	switch format {
	case "markdown":
		_, err := io.WriteString(w, report.Markdown(result.Summary, result.Insights)+"\n")
		return err
	case "html":
		_, err := w.Write(report.HTML(result.Summary, result.Insights))
		return err
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
}

func checkFormat(format string) error {
	switch format {
	case "json", "markdown", "html":
		return nil
	}
	return fmt.Errorf("unsupported format %q (use json, markdown or html)", format)
}

func datasetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
