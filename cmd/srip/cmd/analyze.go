package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/srip/internal/clip"
	"github.com/hugo-lorenzo-mato/srip/internal/core"
	"github.com/hugo-lorenzo-mato/srip/internal/service/report"
	"github.com/hugo-lorenzo-mato/srip/internal/tui"
)

// Output formats accepted by --output.
const (
	outputAuto     = "auto"
	outputMarkdown = "markdown"
	outputPlain    = "plain"
	outputJSON     = "json"
	outputYAML     = "yaml"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [query]",
	Short: "Run a complete four-agent analysis",
	Long: `Run the market, competitive, risk and strategy agents over a business
question and print the assembled report.

Progress is written to stderr and the report to stdout, so the report can be
piped or redirected. A question that fails input validation prints the
validation report and exits with an error.`,
	Example: `  srip analyze "Analyze the enterprise cloud storage market" -t "Dropbox, Box"
  srip analyze -f question.txt --output json > report.json
  srip analyze "..." --out reports/cloud.md --copy`,
	RunE: runAnalyze,
}

var (
	analyzeTargets string
	analyzeFile    string
	analyzeOutput  string
	analyzeOut     string
	analyzeCopy    bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analyzeTargets, "targets", "t", "", "Comma-separated companies or products to analyze")
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Read the query from a file")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", outputAuto,
		"Report format on stdout (auto, markdown, plain, json, yaml)")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "Also export the report to this file; format follows the extension")
	analyzeCmd.Flags().BoolVar(&analyzeCopy, "copy", false, "Copy the markdown report to the clipboard")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	query, err := getQuery(args, analyzeFile)
	if err != nil {
		return err
	}
	if err := validateOutput(analyzeOutput); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	deps, err := initPipeline(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	detector := tui.NewDetector().NoColor(noColor)
	mode := detector.Detect()
	if quiet {
		mode = tui.ModeQuiet
	}
	progress := tui.NewProgress(cmd.ErrOrStderr(), mode, detector.ShouldUseColor(), deps.Config.Scoring.Threshold)

	ch := deps.Bus.Subscribe()
	watchDone := make(chan struct{})
	go func() {
		progress.Watch(ctx, ch)
		close(watchDone)
	}()

	r, run, err := deps.Service.Analyze(ctx, query, analyzeTargets)
	deps.Bus.Unsubscribe(ch)
	<-watchDone

	if err != nil {
		text, status := deps.Service.ValidationReport(err)
		fmt.Fprint(cmd.OutOrStdout(), text)
		progress.Status(status, core.StatusFailed)
		return err
	}

	text, status := deps.Service.Render(r)
	out, err := formatReport(r, text, analyzeOutput, mode, deps.Config.Report.WordWrap, detector.ShouldUseColor(),
		report.Options{IncludeMetrics: deps.Config.Report.IncludeMetrics})
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)

	if analyzeOut != "" {
		if err := exportReport(analyzeOut, r, deps.Config.Report.IncludeMetrics); err != nil {
			return err
		}
		deps.Logger.Info("report exported", "path", analyzeOut, "run_id", run.ID)
	}

	if analyzeCopy {
		res, err := clip.NewCopier().Copy(text)
		if err != nil {
			deps.Logger.Warn("copying report", "error", err)
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), res.Describe())
		}
	}

	progress.Status(status, run.Status)
	return ctx.Err()
}

func validateOutput(output string) error {
	switch output {
	case outputAuto, outputMarkdown, outputPlain, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("invalid --output %q: use auto, markdown, plain, json or yaml", output)
	}
}

// formatReport renders r for stdout. "auto" renders styled markdown in a
// rich terminal and raw markdown otherwise.
func formatReport(r *core.Report, markdown, output string, mode tui.OutputMode, wrap int, color bool, opts report.Options) (string, error) {
	switch output {
	case outputJSON, outputYAML:
		f, err := report.ParseFormat(output)
		if err != nil {
			return "", err
		}
		data, err := report.Encode(r, f, opts)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case outputPlain:
		return renderMarkdown(markdown, wrap, false)
	case outputAuto:
		if mode == tui.ModeRich {
			return renderMarkdown(markdown, wrap, color)
		}
	}
	return markdown, nil
}

func renderMarkdown(markdown string, wrap int, color bool) (string, error) {
	if wrap <= 0 {
		wrap = tui.TerminalWidth(tui.DefaultWordWrap)
	}
	renderer, err := tui.NewRenderer(wrap, color)
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}
	return renderer.Render(markdown)
}

// exportReport writes r to path in the format implied by its extension.
func exportReport(path string, r *core.Report, includeMetrics bool) error {
	format, err := report.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}
	w := report.NewWriter(report.Config{
		Dir:     filepath.Dir(path),
		Format:  format,
		Options: report.Options{IncludeMetrics: includeMetrics},
	})
	return w.WriteTo(path, r)
}
