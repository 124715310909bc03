package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
	"github.com/hugo-lorenzo-mato/srip/internal/fsutil"
	"github.com/hugo-lorenzo-mato/srip/internal/service/pipeline"
	"github.com/hugo-lorenzo-mato/srip/internal/service/report"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file.yaml>",
	Short: "Run several analyses concurrently",
	Long: `Run every analysis listed in a YAML file and export each report.

The file holds a list of analyses:

  analyses:
    - name: cloud-storage
      query: Analyze the enterprise cloud storage market
      targets: Dropbox, Box, Google Drive
    - query: Assess the outlook for regional payment processors

Each analysis runs its own sequential pipeline; up to --concurrency
pipelines run at the same time.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

var (
	batchConcurrency int
	batchOutDir      string
)

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 0, "Maximum concurrent analyses (default: batch.concurrency)")
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "", "Directory for exported reports (default: report.dir)")
}

// batchItem is one analysis of a batch file.
type batchItem struct {
	Name    string `yaml:"name"`
	Query   string `yaml:"query"`
	Targets string `yaml:"targets"`
}

type batchFile struct {
	Analyses []batchItem `yaml:"analyses"`
}

// batchResult is the outcome of one batch item.
type batchResult struct {
	Item   batchItem
	Path   string
	Status string
	Err    error
}

// loadBatchFile reads and parses a batch file.
func loadBatchFile(path string) ([]batchItem, error) {
	data, err := fsutil.ReadFileScoped(path)
	if err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}
	var f batchFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing batch file: %w", err)
	}
	if len(f.Analyses) == 0 {
		return nil, fmt.Errorf("batch file %s lists no analyses", path)
	}
	for i := range f.Analyses {
		if strings.TrimSpace(f.Analyses[i].Name) == "" {
			f.Analyses[i].Name = fmt.Sprintf("analysis-%d", i+1)
		}
	}
	return f.Analyses, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	items, err := loadBatchFile(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	deps, err := initPipeline(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	limit := batchConcurrency
	if limit <= 0 {
		limit = deps.Config.Batch.Concurrency
	}
	dir := batchOutDir
	if dir == "" {
		dir = deps.Config.Report.Dir
	}
	format, err := report.ParseFormat(deps.Config.Report.Format)
	if err != nil {
		return err
	}
	writer := report.NewWriter(report.Config{
		Dir:     dir,
		Format:  format,
		Options: report.Options{IncludeMetrics: deps.Config.Report.IncludeMetrics},
	})

	deps.Logger.Info("starting batch", "analyses", len(items), "concurrency", limit, "out_dir", dir)

	results := make([]batchResult, len(items))
	var outMu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			res := runBatchItem(ctx, deps.Service, writer, dir, i, item)
			results[i] = res
			outMu.Lock()
			printBatchResult(cmd.OutOrStdout(), i, len(items), res)
			outMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d analyses failed", failed, len(items))
	}
	return ctx.Err()
}

func runBatchItem(ctx context.Context, svc *pipeline.Service, w *report.Writer, dir string, index int, item batchItem) batchResult {
	res := batchResult{Item: item}
	r, _, err := svc.Analyze(ctx, item.Query, item.Targets)
	if err != nil {
		_, res.Status = svc.ValidationReport(err)
		res.Err = err
		return res
	}
	_, res.Status = svc.Render(r)

	// Prefix the index so identical queries finishing in the same second
	// do not overwrite each other.
	path := filepath.Join(dir, fmt.Sprintf("%02d-%s", index+1, w.Filename(r)))
	if err := w.WriteTo(path, r); err != nil {
		res.Err = err
		return res
	}
	res.Path = path
	if r.Metadata.Status == core.StatusFailed {
		res.Err = core.ErrService(fmt.Sprintf("analysis %s failed: too many agents fell back", item.Name))
	}
	return res
}

func printBatchResult(w io.Writer, index, total int, res batchResult) {
	fmt.Fprintf(w, "[%d/%d] %s: %s\n", index+1, total, res.Item.Name, res.Status)
	if res.Path != "" {
		fmt.Fprintf(w, "        %s\n", res.Path)
	}
	if res.Err != nil && res.Path == "" {
		fmt.Fprintf(w, "        error: %v\n", res.Err)
	}
}
