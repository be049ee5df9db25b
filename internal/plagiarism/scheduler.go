package plagiarism

import (
	"context"
	"fmt"
	"sort"

	"github.com/RishiKendai/codesim/internal/metrics"
	"github.com/RishiKendai/codesim/internal/models"
	"github.com/rs/zerolog/log"
)

const DefaultBatchSize = 50

// Pair represents a pair of submissions to compare
type Pair struct {
	A models.Submission
	B models.Submission
}

// Accumulator carries the running state of a scheduling run. It is threaded
// through the batch loop by value and returned to the caller.
type Accumulator struct {
	Results    []models.ComparisonResult
	Sum        float64
	Comparable int
	Evaluated  int
	TotalPairs int
	Batches    int
	EarlyExit  bool
	Trigger    *models.PairKey
}

// Fold adds one finished batch. Only comparable results enter the running
// sum. The first comparable 100 is kept as Trigger; EarlyExit is set by the
// scheduler when it acts on it.
func (a Accumulator) Fold(batch []models.ComparisonResult) Accumulator {
	a.Results = append(a.Results, batch...)
	a.Evaluated += len(batch)
	a.Batches++

	for _, result := range batch {
		if !result.Comparable {
			continue
		}
		a.Sum += float64(result.Score)
		a.Comparable++

		if result.Score == 100 && a.Trigger == nil {
			key := result.Key()
			a.Trigger = &key
		}
	}

	return a
}

// Average is the mean score over comparable results, 0 if there are none
func (a Accumulator) Average() float64 {
	if a.Comparable == 0 {
		return 0.0
	}
	return a.Sum / float64(a.Comparable)
}

// Scheduler runs all pairwise comparisons in fixed-size batches. Inside a
// batch comparisons run concurrently on the pool; between batches it waits.
type Scheduler struct {
	pool      *WorkerPool
	batchSize int
	earlyExit bool
}

func NewScheduler(pool *WorkerPool, batchSize int, earlyExit bool) *Scheduler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Scheduler{
		pool:      pool,
		batchSize: batchSize,
		earlyExit: earlyExit,
	}
}

// EnumeratePairs lists every unordered pair {i, j}, i < j, ordered by
// submission ID. Only the first submission seen for an ID takes part, so
// each pair of students appears once.
func EnumeratePairs(submissions []models.Submission) []Pair {
	seen := make(map[string]bool, len(submissions))
	unique := make([]models.Submission, 0, len(submissions))
	for _, submission := range submissions {
		if seen[submission.ID] {
			continue
		}
		seen[submission.ID] = true
		unique = append(unique, submission)
	}
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].ID < unique[j].ID
	})

	pairs := make([]Pair, 0, len(unique)*(len(unique)-1)/2)
	for i := 0; i < len(unique); i++ {
		for j := i + 1; j < len(unique); j++ {
			pairs = append(pairs, Pair{A: unique[i], B: unique[j]})
		}
	}

	return pairs
}

// Run compares all pairs of submissions. Cancellation is only checked between
// batches: a batch that has started always finishes. On cancellation the
// partial accumulator is returned along with the context error.
func (s *Scheduler) Run(ctx context.Context, submissions []models.Submission, files []models.FileSpec) (Accumulator, error) {
	pairs := EnumeratePairs(submissions)
	acc := Accumulator{
		Results:    make([]models.ComparisonResult, 0, len(pairs)),
		TotalPairs: len(pairs),
	}

	for start := 0; start < len(pairs); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return acc, fmt.Errorf("comparison cancelled after %d of %d pairs: %w", acc.Evaluated, acc.TotalPairs, err)
		}

		end := min(start+s.batchSize, len(pairs))
		batch := RunBatch(s.pool, comparisons(pairs[start:end], files))
		for _, result := range batch {
			metrics.ObserveComparison(result.Comparable)
		}
		metrics.BatchCount.Inc()

		acc = acc.Fold(batch)

		log.Debug().
			Int("batch", acc.Batches).
			Int("evaluated", acc.Evaluated).
			Int("total", acc.TotalPairs).
			Msg("Comparison batch completed")

		if s.earlyExit && acc.Trigger != nil {
			acc.EarlyExit = true
			metrics.EarlyExitCount.Inc()
			log.Info().
				Str("pair", acc.Trigger.String()).
				Int("evaluated", acc.Evaluated).
				Int("total", acc.TotalPairs).
				Msg("Perfect match found, stopping further batches")
			break
		}
	}

	return acc, nil
}

func comparisons(pairs []Pair, files []models.FileSpec) []func() models.ComparisonResult {
	fns := make([]func() models.ComparisonResult, len(pairs))
	for i, pair := range pairs {
		fns[i] = func() models.ComparisonResult {
			return CompareFiles(pair.A, pair.B, files)
		}
	}
	return fns
}
