// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/techieRahul17/intervuex/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of failing cases to display
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to a terminal; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintChallenge outputs the challenge being evaluated.
func (p *Printer) PrintChallenge(ch *types.Challenge) {
	if ch == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:      %s\n", ch.Title))
	sb.WriteString(fmt.Sprintf("Language:   %s\n", ch.Language))
	if ch.Difficulty != "" {
		sb.WriteString(fmt.Sprintf("Difficulty: %s\n", ch.Difficulty))
	}
	if ch.FunctionName != "" {
		sb.WriteString(fmt.Sprintf("Function:   %s\n", ch.FunctionName))
	}
	sb.WriteString(fmt.Sprintf("Test cases: %d", len(ch.TestCases)))

	p.printBox("CHALLENGE", sb.String())
}

// PrintRunReport outputs the score and the first failing cases.
func (p *Printer) PrintRunReport(report *types.RunReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Passed: %d/%d    Score: %d%%\n", report.Passed, report.Total, report.Score))

	var failed []types.TestResult
	for _, r := range report.Results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	if len(failed) == 0 {
		sb.WriteString("\n✅ ALL TEST CASES PASSED")
		p.printBox("RESULTS", sb.String())
		return
	}

	sb.WriteString("\nFailing cases:\n")
	count := min(len(failed), maxItemsToShow)
	for i := 0; i < count; i++ {
		r := failed[i]
		sb.WriteString(fmt.Sprintf("✗ %s\n", r.TestCase))
		sb.WriteString(fmt.Sprintf("  expected: %s\n", r.Expected))
		sb.WriteString(fmt.Sprintf("  got:      %s\n", r.Result))
	}
	if len(failed) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(failed)-maxItemsToShow))
	}

	p.printBox("RESULTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSubmitReport outputs the run report followed by the submission figures.
func (p *Printer) PrintSubmitReport(report *types.SubmitReport) {
	if report == nil {
		return
	}
	p.PrintRunReport(&report.RunReport)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Average time: %.2f ms\n", report.AverageExecutionTime))
	sb.WriteString(fmt.Sprintf("Memory:       %s\n", report.MemoryUsage))
	sb.WriteString(fmt.Sprintf("Submitted:    %s", report.SubmittedAt.Format("2006-01-02 15:04:05 MST")))

	p.printBox("SUBMISSION", sb.String())
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
