package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/RishiKendai/codesim/internal/assignment"
	"github.com/RishiKendai/codesim/internal/models"
	"github.com/RishiKendai/codesim/internal/plagiarism"
	"github.com/RishiKendai/codesim/internal/repository"
	"github.com/RishiKendai/codesim/internal/summary"
	"github.com/spf13/cobra"
)

var (
	analyzeAssignment string
	analyzeReference  string
	analyzeThreshold  int
	analyzeBatchSize  int
	analyzeNoEarly    bool
	analyzeJSON       bool
	analyzeBaseScore  float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <student-dir>...",
	Short: "Compare submissions stored as one directory per student",
	Long: `Compare every pair of submissions and check each one against the
reference implementation.

Each argument is a student's submission directory; the directory name is
the student ID. Without --assignment every file found in the directories
is compared with equal weight.

Examples:
  codesim analyze submissions/*
  codesim analyze --assignment hw3.yaml --reference starter/ submissions/*
  codesim analyze --json --threshold 70 alice bob carol`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeAssignment, "assignment", "a", "", "assignment definition (YAML)")
	analyzeCmd.Flags().StringVarP(&analyzeReference, "reference", "r", "", "reference implementation directory")
	analyzeCmd.Flags().IntVarP(&analyzeThreshold, "threshold", "t", 0, "high similarity threshold (default 80)")
	analyzeCmd.Flags().IntVar(&analyzeBatchSize, "batch-size", 0, "pairs compared per batch (default 50)")
	analyzeCmd.Flags().BoolVar(&analyzeNoEarly, "no-early-exit", false, "compare every pair even after an identical match")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the report as JSON")
	analyzeCmd.Flags().Float64Var(&analyzeBaseScore, "base-score", 0, "print each student's adjusted score from this base grade")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	def := &assignment.Assignment{ID: "adhoc"}
	if analyzeAssignment != "" {
		loaded, err := assignment.Load(analyzeAssignment)
		if err != nil {
			return err
		}
		def = loaded
	}

	students, err := repository.NewDirectoryStore(args...)
	if err != nil {
		return fmt.Errorf("load submissions: %w", err)
	}

	req := plagiarism.Request{
		AssignmentID:  def.ID,
		StudentIDs:    students.IDs(),
		Files:         def.Files,
		ReferenceFile: def.ReferenceFile,
		Functions:     def.Functions,
		Threshold:     firstPositive(analyzeThreshold, def.Threshold),
	}

	var reference plagiarism.ContentProvider
	if analyzeReference != "" {
		refStore, err := repository.NewDirectoryStore(analyzeReference)
		if err != nil {
			return fmt.Errorf("load reference: %w", err)
		}
		req.ReferenceID = filepath.Base(filepath.Clean(analyzeReference))
		for _, id := range req.StudentIDs {
			if id == req.ReferenceID {
				return fmt.Errorf("reference directory name %q collides with a student directory", id)
			}
		}
		reference = refStore
	}

	batchSize := firstPositive(analyzeBatchSize, def.BatchSize, plagiarism.DefaultBatchSize)
	pool := plagiarism.NewWorkerPool(ctx, batchSize)
	defer pool.Close()

	engine := plagiarism.NewEngine(students, reference, pool, batchSize, earlyExit(cmd, def))
	report, err := engine.Analyze(ctx, req)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if err := summary.Print(out, report); err != nil {
		return err
	}
	if analyzeBaseScore > 0 {
		return printAdjustments(cmd, report, req.StudentIDs)
	}
	return nil
}

// earlyExit resolves the early-exit setting. A --no-early-exit given on the
// command line overrides the assignment file.
func earlyExit(cmd *cobra.Command, def *assignment.Assignment) bool {
	if cmd.Flags().Changed("no-early-exit") {
		noEarly, _ := cmd.Flags().GetBool("no-early-exit")
		return !noEarly
	}
	return def.EarlyExitOr(true)
}

func printAdjustments(cmd *cobra.Command, report *models.SimilarityReport, ids []string) error {
	best := make(map[string]models.ComparisonResult)
	for _, result := range plagiarism.FindHighestSimilarityPerStudent(report.Comparisons) {
		for _, id := range []string{result.StudentA, result.StudentB} {
			if current, ok := best[id]; !ok || result.Score > current.Score {
				best[id] = result
			}
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nAdjusted scores")
	for _, id := range ids {
		var pair *models.ComparisonResult
		if result, ok := best[id]; ok {
			pair = &result
		}
		var finding *models.DefaultImplementationFinding
		if f, ok := report.DefaultImplementations[id]; ok {
			finding = &f
		}

		adj := plagiarism.ScoreAdjustment(analyzeBaseScore, pair, finding, report.Threshold)
		fmt.Fprintf(out, "  %-20s %6.1f -> %6.1f", id, adj.Base, adj.Final)
		for _, d := range adj.Deductions {
			fmt.Fprintf(out, "  (-%.1f %s)", d.Points, d.Reason)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
