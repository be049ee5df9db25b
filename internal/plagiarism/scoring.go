package plagiarism

import (
	"github.com/RishiKendai/codesim/internal/models"
)

// Band is a presentation-only similarity bucket. Never use it for decisions.
type Band string

const (
	BandVeryLow  Band = "very-low"
	BandLow      Band = "low"
	BandMedium   Band = "medium"
	BandHigh     Band = "high"
	BandVeryHigh Band = "very-high"
)

// SimilarityBand returns the display band for a 0-100 score
func SimilarityBand(score int) Band {
	if score < 21 {
		return BandVeryLow
	} else if score <= 40 {
		return BandLow
	} else if score <= 60 {
		return BandMedium
	} else if score <= 80 {
		return BandHigh
	}
	return BandVeryHigh
}

type IntegrityClass string

const (
	IntegrityClear     IntegrityClass = "clear"
	IntegrityReview    IntegrityClass = "review"
	IntegrityViolation IntegrityClass = "violation"
)

const (
	DefaultHighSimilarityThreshold = 80
	IntegrityViolationThreshold    = 95
)

// ClassifyIntegrity labels a pair score. The label is advisory: applying a
// penalty is the grading layer's job.
func ClassifyIntegrity(score, highThreshold int) IntegrityClass {
	if highThreshold <= 0 {
		highThreshold = DefaultHighSimilarityThreshold
	}
	if score >= IntegrityViolationThreshold {
		return IntegrityViolation
	} else if score >= highThreshold {
		return IntegrityReview
	}
	return IntegrityClear
}

// Penalty policy applied by ScoreAdjustment
const (
	HighSimilarityPenalty      = 20.0
	PerFunctionPenalty         = 10.0
	MaxFunctionPenalty         = 30.0
	FullCreditFunctionsFlagged = 5
)

// Deduction is one line item of a score adjustment
type Deduction struct {
	Reason string  `json:"reason"`
	Points float64 `json:"points"`
}

// Adjustment is the outcome of applying the similarity policy to a grade
type Adjustment struct {
	Base       float64     `json:"base"`
	Final      float64     `json:"final"`
	Deductions []Deduction `json:"deductions"`
}

// ScoreAdjustment applies the similarity and starter-code policy to a base
// grade. bestPair is the student's highest comparable pairing (nil if none),
// finding their reference check (nil if none).
//
// A pair at or above IntegrityViolationThreshold zeroes the grade. A finding
// with the whole file or FullCreditFunctionsFlagged functions copied zeroes
// it too; fewer functions cost PerFunctionPenalty each up to
// MaxFunctionPenalty. A pair at or above highThreshold costs
// HighSimilarityPenalty.
func ScoreAdjustment(base float64, bestPair *models.ComparisonResult, finding *models.DefaultImplementationFinding, highThreshold int) Adjustment {
	if highThreshold <= 0 {
		highThreshold = DefaultHighSimilarityThreshold
	}

	adj := Adjustment{Base: base, Final: base, Deductions: []Deduction{}}
	zero := func(reason string) Adjustment {
		adj.Deductions = append(adj.Deductions, Deduction{Reason: reason, Points: adj.Final})
		adj.Final = 0
		return adj
	}

	if bestPair != nil && bestPair.Comparable {
		switch ClassifyIntegrity(bestPair.Score, highThreshold) {
		case IntegrityViolation:
			return zero("near-identical submission")
		case IntegrityReview:
			adj.Deductions = append(adj.Deductions, Deduction{Reason: "high similarity", Points: HighSimilarityPenalty})
			adj.Final -= HighSimilarityPenalty
		}
	}

	if finding != nil {
		flagged := len(finding.MatchedFunctions)
		if finding.WholeFile || flagged >= FullCreditFunctionsFlagged {
			return zero("unmodified reference implementation")
		}
		if flagged > 0 {
			points := min(float64(flagged)*PerFunctionPenalty, MaxFunctionPenalty)
			adj.Deductions = append(adj.Deductions, Deduction{Reason: "unmodified reference functions", Points: points})
			adj.Final -= points
		}
	}

	if adj.Final < 0 {
		adj.Final = 0
	}
	return adj
}
