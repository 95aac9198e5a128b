package engine

import (
	"fmt"

	"github.com/isometry/groupops/internal/report"
)

// Verdict is the job-level aggregation of all outcome rows. Created once at
// the end of batch processing and never mutated afterward.
type Verdict struct {
	SuccessCount int
	SkippedCount int
	FailCount    int
	Warning      bool
	DryRun       bool
}

// Fold derives the verdict from a row sequence. Exactly one counter is
// incremented per row; WOULD_DO counts toward success (a successful preview),
// so len(rows) == SuccessCount + SkippedCount + FailCount always holds.
func Fold(rows []OutcomeRow, dryRun bool) Verdict {
	v := Verdict{DryRun: dryRun}

	for _, row := range rows {
		switch row.Status {
		case StatusSuccess, StatusWouldDo:
			v.SuccessCount++
		case StatusSkipped:
			v.SkippedCount++
		default:
			v.FailCount++
		}
	}

	v.Warning = v.FailCount > 0 && v.SuccessCount+v.SkippedCount > 0
	return v
}

// Code maps the verdict onto an envelope severity code. Cross-product
// operations downgrade even a total per-item failure to WARNING: the target
// groups were valid, only member units failed. Elsewhere, a batch where every
// unit failed is an error and any partial failure is a warning; a batch with
// a real mutation failure is never plain success.
func (v Verdict) Code(crossProduct bool) int {
	if v.FailCount == 0 {
		return report.CodeSuccess
	}
	if crossProduct || v.SuccessCount+v.SkippedCount > 0 {
		return report.CodeWarning
	}
	return report.CodeError
}

// Counts converts the verdict counters into the envelope form.
func (v Verdict) Counts() report.Counts {
	return report.Counts{
		Success: v.SuccessCount,
		Skipped: v.SkippedCount,
		Failed:  v.FailCount,
	}
}

// Describe renders the one-line, mode-aware human caption for an operation.
func (v Verdict) Describe(operation string) string {
	if v.DryRun {
		return fmt.Sprintf("%s (dry-run): %d would change, %d skipped, %d failed",
			operation, v.SuccessCount, v.SkippedCount, v.FailCount)
	}
	return fmt.Sprintf("%s: %d succeeded, %d skipped, %d failed",
		operation, v.SuccessCount, v.SkippedCount, v.FailCount)
}
