// Package edgecase holds the non-blocking risk detectors run before a transaction is posted.
// Every detector is a pure function of its input and the company's thresholds.
package edgecase

import (
	"time"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
)

// Input is everything a detector may look at.
type Input struct {
	Lines       []domain.TransactionLine
	Accounts    map[string]domain.Account
	Date        time.Time
	Description string

	// Projected is the balance of each touched account after the transaction, in normal terms.
	Projected map[string]int64
	Now       time.Time
}

// Detector inspects one aspect of a transaction and returns zero or more flags.
type Detector func(in Input, th domain.EdgeCaseThresholds) []domain.EdgeCaseFlag

// Detectors is the fixed list run by Detect, in order.
var Detectors = []Detector{
	DetectTiming,
	DetectAmount,
	DetectAccountType,
	DetectDocumentation,
	DetectBalanceImpact,
}

// Detect runs every detector and merges their flags.
func Detect(in Input, th domain.EdgeCaseThresholds) domain.EdgeCaseDetectionResult {
	return Run(Detectors, in, th)
}

// Run folds the given detectors into one result.
func Run(detectors []Detector, in Input, th domain.EdgeCaseThresholds) domain.EdgeCaseDetectionResult {
	result := domain.EdgeCaseDetectionResult{Flags: []domain.EdgeCaseFlag{}}
	for _, d := range detectors {
		result = result.Merge(domain.EdgeCaseDetectionResult{Flags: d(in, th)})
	}
	return result
}

func totalDebits(lines []domain.TransactionLine) int64 {
	var sum int64
	for _, l := range lines {
		if l.Side == domain.Debit {
			sum += l.Amount.Cents
		}
	}
	return sum
}
