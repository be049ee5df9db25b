// Package summary renders a similarity report for the terminal.
package summary

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/RishiKendai/codesim/internal/models"
	"github.com/RishiKendai/codesim/internal/plagiarism"
	"github.com/charmbracelet/lipgloss"
)

var bandColors = map[plagiarism.Band]lipgloss.Color{
	plagiarism.BandVeryLow:  lipgloss.Color("#6C6C6C"), // gray
	plagiarism.BandLow:      lipgloss.Color("#5FAFD7"), // light blue
	plagiarism.BandMedium:   lipgloss.Color("#D7AF00"), // amber
	plagiarism.BandHigh:     lipgloss.Color("#FF8700"), // orange
	plagiarism.BandVeryHigh: lipgloss.Color("#FF005F"), // red
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")).Italic(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF005F")).Bold(true)
)

func scoreStyle(score int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(bandColors[plagiarism.SimilarityBand(score)])
}

// FormatScore renders a score coloured by its similarity band
func FormatScore(score int) string {
	return scoreStyle(score).Render(fmt.Sprintf("%3d%%", score))
}

// Print writes a human readable summary of report to w
func Print(w io.Writer, report *models.SimilarityReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", titleStyle.Render("Similarity report "+report.AssignmentID))
	fmt.Fprintf(&b, "%s\n\n", hintStyle.Render("run "+report.RunID))

	fmt.Fprintf(&b, "Pairs evaluated:  %d of %d\n", report.EvaluatedPairs, report.TotalPairs)
	fmt.Fprintf(&b, "Comparable pairs: %d\n", report.ComparableCount)
	fmt.Fprintf(&b, "Average:          %.1f%% (stddev %.1f)\n", report.AverageSimilarity, report.SimilarityStdDev)

	if report.EarlyExit && report.EarlyExitPair != nil {
		fmt.Fprintf(&b, "%s\n", warnStyle.Render(fmt.Sprintf(
			"Stopped early: %s and %s are identical", report.EarlyExitPair.A, report.EarlyExitPair.B)))
	}

	fmt.Fprintf(&b, "\n%s\n", titleStyle.Render(fmt.Sprintf("High similarity (>= %d%%)", report.Threshold)))
	if len(report.HighSimilarity) == 0 {
		fmt.Fprintf(&b, "%s\n", hintStyle.Render("none"))
	}
	for _, result := range report.HighSimilarity {
		fmt.Fprintf(&b, "  %s  %s - %s  [%s]\n",
			FormatScore(result.Score), result.StudentA, result.StudentB,
			plagiarism.ClassifyIntegrity(result.Score, report.Threshold))
	}

	writeFindings(&b, report.DefaultImplementations)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeFindings(b *strings.Builder, findings map[string]models.DefaultImplementationFinding) {
	ids := make([]string, 0, len(findings))
	for id, finding := range findings {
		if finding.WholeFile || len(finding.MatchedFunctions) > 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}
	sort.Strings(ids)

	fmt.Fprintf(b, "\n%s\n", titleStyle.Render("Unmodified starter code"))
	for _, id := range ids {
		finding := findings[id]
		if finding.WholeFile {
			fmt.Fprintf(b, "  %s  %s  whole file\n", FormatScore(finding.Score), id)
			continue
		}
		fmt.Fprintf(b, "  %s  %s  %s\n", FormatScore(finding.Score), id, strings.Join(finding.MatchedFunctions, ", "))
	}
}
