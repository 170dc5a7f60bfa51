package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trustscope/trustscope/internal/analysis"
	"github.com/trustscope/trustscope/internal/batch"
)

var analyzeTimeout time.Duration

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <request.json>...",
	Short: "Analyze one or more requests from JSON files",
	Long: `Analyze reads analysis requests from JSON files and prints the full results
as a JSON array, in the order the files were given.

Each file holds one request, for example:
  {"url": "https://example.com", "content": "<html>...</html>",
   "signals": {"domainAge": {"numericValue": 40}, "ssl": {"numericValue": 0}}}

Example:
  trustscope analyze site.json
  trustscope analyze postings/*.json --workers 8`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().Int("workers", 4, "number of concurrent analyses")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 5*time.Minute, "total timeout for all analyses")
	_ = viper.BindPFlag("workers", analyzeCmd.Flags().Lookup("workers"))
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	jobs, err := readJobs(args)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	outcomes := batch.New(a.analyses, a.cfg.Workers, a.logger).Run(ctx, jobs)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcomes); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	failed := 0
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d analyses failed", failed, len(outcomes))
	}
	return nil
}

// readJobs decodes one analysis.Request per file
func readJobs(paths []string) ([]batch.Job, error) {
	jobs := make([]batch.Job, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read request: %w", err)
		}

		var req analysis.Request
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("parse request %s: %w", path, err)
		}
		jobs = append(jobs, batch.Job{Source: path, Request: req})
	}
	return jobs, nil
}
