package evaluator

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/techieRahul17/intervuex/internal/types"
)

// Markers are the source idioms a heuristic executor looks for.
type Markers struct {
	HashMap     []string
	Loop        []string
	ArrayReturn []string // returns shaped like an array
	Return      []string // any return
}

// DefaultMarkers returns the idiom table for the languages evaluated without execution.
func DefaultMarkers() map[types.Language]Markers {
	cLoops := []string{"for (", "for(", "while (", "while("}
	return map[types.Language]Markers{
		types.LanguagePython: {
			HashMap:     []string{"dict(", "{}"},
			Loop:        []string{"for ", "while "},
			ArrayReturn: []string{"return [", "return ("},
			Return:      []string{"return "},
		},
		types.LanguageJava: {
			HashMap:     []string{"HashMap", "Map<"},
			Loop:        cLoops,
			ArrayReturn: []string{"return new ", "return List.of(", "return Arrays.asList("},
			Return:      []string{"return "},
		},
		types.LanguageCPP: {
			HashMap:     []string{"unordered_map", "map<"},
			Loop:        cLoops,
			ArrayReturn: []string{"return {", "return vector", "return std::vector"},
			Return:      []string{"return "},
		},
	}
}

// LooksCorrect reports whether code carries all three markers. arrayShaped selects
// which return idioms count.
func (m Markers) LooksCorrect(code string, arrayShaped bool) bool {
	returns := m.Return
	if arrayShaped {
		returns = m.ArrayReturn
	}
	return containsAny(code, m.HashMap) && containsAny(code, m.Loop) && containsAny(code, returns)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// Latency is a range of synthetic execution times.
type Latency struct {
	Min time.Duration
	Max time.Duration
}

func (l Latency) sample() time.Duration {
	if l.Max <= l.Min {
		return l.Min
	}
	return l.Min + rand.N(l.Max-l.Min)
}

// HeuristicExecutor decides a verdict from source-text pattern matching; the code is never run.
type HeuristicExecutor struct {
	Markers Markers
	Latency Latency
}

// Execute parses the case for shape, waits out the synthetic latency and reports either
// the expected output or a fabricated wrong one.
func (e *HeuristicExecutor) Execute(ctx context.Context, src Source, tc Case) types.TestResult {
	result := types.TestResult{TestCase: tc.Input, Expected: tc.Expected}

	if _, err := ParseArguments(tc.Input); err != nil {
		result.Result = errorResult(err)
		return result
	}
	expected, err := ParseExpected(tc.Expected)
	if err != nil {
		result.Result = errorResult(err)
		return result
	}

	delay := e.Latency.sample()
	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			result.Result = errorResult(ctx.Err())
			return result
		case <-timer.C:
		}
	}
	result.ExecutionTime = millis(delay)

	if e.Markers.LooksCorrect(src.Code, isArray(expected)) {
		result.Result = tc.Expected
	} else {
		result.Result = Fabricate(expected)
	}
	result.Passed = Equal(result.Result, tc.Expected)
	return result
}
