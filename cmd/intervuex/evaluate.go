package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/techieRahul17/intervuex/internal/evaluator"
	"github.com/techieRahul17/intervuex/internal/export"
	"github.com/techieRahul17/intervuex/internal/observability"
	"github.com/techieRahul17/intervuex/internal/schemas"
	"github.com/techieRahul17/intervuex/internal/types"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a solution against a challenge file",
	Long: `Evaluate a solution file against the test cases of a challenge JSON file and print
the report as JSON. With --submit the report carries the submission figures, and
--xlsx additionally writes it as an Excel workbook.`,
	RunE: runEvaluate,
}

var (
	evalChallengeFile string
	evalCodeFile      string
	evalLanguage      string
	evalSubmit        bool
	evalXLSX          string
	evalCandidate     string
	evalVerbose       bool
)

func init() {
	evaluateCmd.Flags().StringVar(&evalChallengeFile, "challenge", "", "Path to challenge JSON file (required)")
	evaluateCmd.Flags().StringVar(&evalCodeFile, "code", "", "Path to solution source file (required)")
	evaluateCmd.Flags().StringVarP(&evalLanguage, "language", "l", "", "Submission language (defaults to the challenge language)")
	evaluateCmd.Flags().BoolVar(&evalSubmit, "submit", false, "Produce a final submission report")
	evaluateCmd.Flags().StringVar(&evalXLSX, "xlsx", "", "Write the submission report to this .xlsx path (implies --submit)")
	evaluateCmd.Flags().StringVar(&evalCandidate, "candidate", "", "Candidate name recorded in the workbook")
	evaluateCmd.Flags().BoolVarP(&evalVerbose, "verbose", "v", false, "Print a readable summary to stderr")

	if err := evaluateCmd.MarkFlagRequired("challenge"); err != nil {
		panic(fmt.Sprintf("failed to mark challenge flag as required: %v", err))
	}
	if err := evaluateCmd.MarkFlagRequired("code"); err != nil {
		panic(fmt.Sprintf("failed to mark code flag as required: %v", err))
	}

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	if err := schemas.ValidateChallengeFile(evalChallengeFile); err != nil {
		return err
	}
	raw, err := os.ReadFile(evalChallengeFile)
	if err != nil {
		return fmt.Errorf("failed to read challenge file: %w", err)
	}
	var ch types.Challenge
	if err := json.Unmarshal(raw, &ch); err != nil {
		return fmt.Errorf("failed to parse challenge file: %w", err)
	}
	if err := ch.Validate(); err != nil {
		return fmt.Errorf("invalid challenge: %w", err)
	}

	code, err := os.ReadFile(evalCodeFile)
	if err != nil {
		return fmt.Errorf("failed to read code file: %w", err)
	}

	lang := types.Language(evalLanguage)
	if lang != "" && !lang.Valid() {
		return &evaluator.UnsupportedLanguageError{Language: lang}
	}

	printer := observability.NewPrinter(io.Discard)
	if evalVerbose {
		printer = observability.NewPrinter(cmd.ErrOrStderr())
	}
	printer.PrintChallenge(&ch)

	ev := newEvaluator(appConfig)
	sub := evaluator.SubmissionFor(&ch, string(code), lang)
	ctx := cmd.Context()

	var report any
	if evalSubmit || evalXLSX != "" {
		submitted, err := ev.Submit(ctx, sub)
		if err != nil {
			return err
		}
		if evalXLSX != "" {
			path, err := export.WriteXLSX(submitted, export.ReportMeta{Challenge: ch.Title, Candidate: evalCandidate}, evalXLSX)
			if err != nil {
				return err
			}
			appLogger.Info("wrote submission workbook", zap.String("path", path))
		}
		printer.PrintSubmitReport(submitted)
		report = submitted
	} else {
		run, err := ev.Run(ctx, sub)
		if err != nil {
			return err
		}
		printer.PrintRunReport(run)
		report = run
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
