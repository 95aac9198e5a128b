// Package engine implements the batch-operation execution core: identity
// resolution against the directory, single-axis and cross-product fan-out
// with per-item isolation, and aggregation of per-item outcomes into one
// job-level verdict.
package engine

import (
	"fmt"

	"github.com/isometry/groupops/internal/directory"
)

// Status classifies the outcome of one unit of work.
type Status string

const (
	// StatusSuccess marks an executed mutation (or read) that succeeded.
	StatusSuccess Status = "success"
	// StatusWouldDo marks a dry-run preview: the pre-checks passed and the
	// mutation would have been issued. Labeled distinctly from an executed
	// success.
	StatusWouldDo Status = "would_do"
	// StatusSkipped marks a unit where the pre-check found nothing to do.
	StatusSkipped Status = "skipped"
	// StatusFailed marks a unit that failed to resolve or mutate.
	StatusFailed Status = "failed"
)

// Outcome is the tagged result of one unit of work. Units report outcomes as
// values; the executor never depends on intercepting panics or sentinel errors
// to classify a unit.
type Outcome struct {
	Status Status
	Detail string
}

// Succeeded builds an executed-success outcome.
func Succeeded(format string, args ...any) Outcome {
	return Outcome{Status: StatusSuccess, Detail: fmt.Sprintf(format, args...)}
}

// WouldDo builds a dry-run preview outcome.
func WouldDo(format string, args ...any) Outcome {
	return Outcome{Status: StatusWouldDo, Detail: fmt.Sprintf(format, args...)}
}

// Skipped builds a no-op outcome.
func Skipped(format string, args ...any) Outcome {
	return Outcome{Status: StatusSkipped, Detail: fmt.Sprintf(format, args...)}
}

// Failed builds a failed outcome. The underlying error text is preserved
// verbatim for operator diagnosis.
func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Detail: err.Error()}
}

// Failedf builds a failed outcome from a formatted message.
func Failedf(format string, args ...any) Outcome {
	return Outcome{Status: StatusFailed, Detail: fmt.Sprintf(format, args...)}
}

// OutcomeRow records one unit of work within a batch. Rows are appended in
// processing order and never reordered or deduplicated.
type OutcomeRow struct {
	Index   int    `json:"index"`
	Subject string `json:"subject"`           // the member or target the unit acted on
	Context string `json:"context,omitempty"` // the group a cross-product unit acted within
	Status  Status `json:"status"`
	Detail  string `json:"detail"`
}

// ResolvedTarget is the immutable result of resolving one target identity.
// Success is true exactly when Object is non-nil.
type ResolvedTarget struct {
	Identity string
	Object   *directory.Group
	Success  bool
	Err      string
}

// resolvedTarget builds a successful resolution.
func resolvedTarget(identity string, group *directory.Group) ResolvedTarget {
	return ResolvedTarget{Identity: identity, Object: group, Success: true}
}

// unresolvedTarget builds a failed resolution.
func unresolvedTarget(identity, reason string) ResolvedTarget {
	return ResolvedTarget{Identity: identity, Err: reason}
}

// Label returns the best display name for the target: the resolved group name
// when available, the raw identity otherwise.
func (t *ResolvedTarget) Label() string {
	if t.Object != nil && t.Object.Name != "" {
		return t.Object.Name
	}
	return t.Identity
}
