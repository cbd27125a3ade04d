// Package evaluator runs coding-challenge submissions against their test cases.
//
// JavaScript submissions are executed in an embedded runtime. Python, Java and C++
// submissions are judged by a source-pattern heuristic and never executed.
package evaluator

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/techieRahul17/intervuex/internal/types"
	"golang.org/x/sync/errgroup"
)

// Source is the submitted program.
type Source struct {
	Code         string
	FunctionName string
	EntryPoint   string // named by the starter code; tried before the first declared binding
}

// Case is one test case: comma-joined JSON arguments and a JSON expected output.
type Case struct {
	Input    string
	Expected string
}

// Executor produces the verdict for one case. Failures are reported inside the result.
type Executor interface {
	Execute(ctx context.Context, src Source, tc Case) types.TestResult
}

// Submission is everything needed for one evaluation run.
type Submission struct {
	Code            string
	Language        types.Language
	FunctionName    string
	EntryPoint      string
	TestCases       []string
	ExpectedOutputs []string
}

// SubmissionFor builds a submission for a stored challenge. An empty language uses the
// challenge language. The challenge function name and starter code only apply when the
// submission is in the challenge language.
func SubmissionFor(ch *types.Challenge, code string, lang types.Language) Submission {
	if lang == "" {
		lang = ch.Language
	}
	sub := Submission{
		Code:            code,
		Language:        lang,
		TestCases:       ch.TestCases,
		ExpectedOutputs: ch.ExpectedOutputs,
	}
	if lang == ch.Language {
		sub.FunctionName = ch.FunctionName
		if lang == types.LanguageJavaScript {
			sub.EntryPoint = declaredName(ch.StarterCode)
		}
	}
	return sub
}

// Options configures an Evaluator.
type Options struct {
	Concurrency      int           // cases evaluated at once; <= 0 means 4
	ExecutionTimeout time.Duration // per-case safety timeout for executed languages
	Latency          Latency       // synthetic latency for heuristic languages
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Concurrency:      4,
		ExecutionTimeout: 5 * time.Second,
		Latency:          Latency{Min: 100 * time.Millisecond, Max: 600 * time.Millisecond},
	}
}

// ResultFunc is called once per finished case with the case index.
type ResultFunc func(index int, result types.TestResult)

// Evaluator dispatches submissions to the executor for their language.
type Evaluator struct {
	executors   map[types.Language]Executor
	concurrency int
}

// New creates an Evaluator with executors for every supported language.
func New(opts Options) *Evaluator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	e := &Evaluator{
		executors:   make(map[types.Language]Executor),
		concurrency: opts.Concurrency,
	}
	e.Register(types.LanguageJavaScript, &JavaScriptExecutor{Timeout: opts.ExecutionTimeout})
	for lang, markers := range DefaultMarkers() {
		e.Register(lang, &HeuristicExecutor{Markers: markers, Latency: opts.Latency})
	}
	return e
}

// Register installs or replaces the executor for a language.
func (e *Evaluator) Register(lang types.Language, exec Executor) {
	e.executors[lang] = exec
}

// Run evaluates every case. The error is non-nil only for a malformed submission.
func (e *Evaluator) Run(ctx context.Context, sub Submission) (*types.RunReport, error) {
	return e.RunWithProgress(ctx, sub, nil)
}

// RunWithProgress is Run with a callback invoked as each case finishes.
// Callbacks are serialized but arrive in completion order.
func (e *Evaluator) RunWithProgress(ctx context.Context, sub Submission, onResult ResultFunc) (*types.RunReport, error) {
	exec, ok := e.executors[sub.Language]
	if !ok {
		return nil, &UnsupportedLanguageError{Language: sub.Language}
	}
	if len(sub.TestCases) != len(sub.ExpectedOutputs) {
		return nil, &SubmissionError{
			Message: fmt.Sprintf("%d test cases but %d expected outputs", len(sub.TestCases), len(sub.ExpectedOutputs)),
		}
	}

	src := Source{Code: sub.Code, FunctionName: sub.FunctionName, EntryPoint: sub.EntryPoint}
	results := make([]types.TestResult, len(sub.TestCases))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i := range sub.TestCases {
		tc := Case{Input: sub.TestCases[i], Expected: sub.ExpectedOutputs[i]}
		g.Go(func() error {
			r := exec.Execute(ctx, src, tc)
			results[i] = r
			if onResult != nil {
				mu.Lock()
				onResult(i, r)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &types.RunReport{
		Language: sub.Language,
		Results:  results,
		Total:    len(results),
	}
	for _, r := range results {
		if r.Passed {
			report.Passed++
		}
	}
	report.Score = Score(report.Passed, report.Total)
	return report, nil
}

// Submit runs the submission and adds the average execution time and a memory figure.
func (e *Evaluator) Submit(ctx context.Context, sub Submission) (*types.SubmitReport, error) {
	report, err := e.Run(ctx, sub)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, r := range report.Results {
		total += r.ExecutionTime
	}
	avg := 0.0
	if len(report.Results) > 0 {
		avg = roundTo(total/float64(len(report.Results)), 2)
	}

	return &types.SubmitReport{
		RunReport:            *report,
		AverageExecutionTime: avg,
		MemoryUsage:          fmt.Sprintf("%.1f MB", 10+rand.Float64()*40),
		SubmittedAt:          time.Now().UTC(),
	}, nil
}

// Score is the percentage of passed cases rounded down.
func Score(passed, total int) int {
	if total <= 0 {
		return 0
	}
	return passed * 100 / total
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
