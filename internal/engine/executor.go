package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// GateError is the job-fatal failure of the pre-validation gate: one or more
// target groups of a cross-product operation failed to resolve, so no member
// mutation may be attempted.
type GateError struct {
	Unresolved []ResolvedTarget
}

func (e *GateError) Error() string {
	names := make([]string, 0, len(e.Unresolved))
	for _, t := range e.Unresolved {
		names = append(names, fmt.Sprintf("%s (%s)", t.Identity, t.Err))
	}
	return fmt.Sprintf("%d target group(s) failed to resolve, no changes attempted: %s",
		len(e.Unresolved), strings.Join(names, "; "))
}

// UnitFunc applies one mutation to one resolved target. A returned error is
// absorbed into a FAILED row; it never aborts the batch.
type UnitFunc func(ctx context.Context, target *ResolvedTarget) (Outcome, error)

// CellFunc applies one mutation for one (member, group) pair.
type CellFunc func(ctx context.Context, member string, group *ResolvedTarget) (Outcome, error)

// Executor fans one operation out across a resolved target set, recording one
// OutcomeRow per unit of work. The contract is best-effort completion with
// per-item isolation: a failure on item i becomes a FAILED row for item i and
// processing continues with item i+1. Loops are strictly sequential; row order
// equals processing order.
type Executor struct {
	log zerolog.Logger
}

// NewExecutor creates a batch executor.
func NewExecutor(log zerolog.Logger) *Executor {
	return &Executor{log: log.With().Str("component", "executor").Logger()}
}

// RunSingle applies fn once per target: one resolved target, one outcome row.
// Unresolved targets fail their own row without disturbing the rest.
func (e *Executor) RunSingle(ctx context.Context, targets []ResolvedTarget, span Span, fn UnitFunc) []OutcomeRow {
	rows := make([]OutcomeRow, 0, len(targets))

	for i := range targets {
		target := &targets[i]
		span.Step(i, len(targets), fmt.Sprintf("processing %s", target.Label()))

		var outcome Outcome
		if !target.Success {
			outcome = Failedf("%s", target.Err)
		} else {
			outcome = e.runUnit(ctx, target, fn)
		}

		rows = e.appendRow(rows, target.Label(), "", outcome)
	}

	span.Emit(1, "processing complete")
	return rows
}

// RunCrossProduct applies cell for every (member, group) pair: outer loop over
// members, inner loop over groups, members×groups rows. Before any cell runs,
// the pre-validation gate requires every target group to have resolved; a gate
// failure aborts the whole operation with zero rows.
func (e *Executor) RunCrossProduct(ctx context.Context, members []string, groups []ResolvedTarget, span Span, cell CellFunc) ([]OutcomeRow, error) {
	var unresolved []ResolvedTarget
	for _, g := range groups {
		if !g.Success {
			unresolved = append(unresolved, g)
		}
	}
	if len(unresolved) > 0 {
		return nil, &GateError{Unresolved: unresolved}
	}

	total := len(members) * len(groups)
	rows := make([]OutcomeRow, 0, total)

	for mi, member := range members {
		for gi := range groups {
			group := &groups[gi]
			span.Step(mi*len(groups)+gi, total, fmt.Sprintf("processing %s in %s", member, group.Label()))

			outcome := e.runCell(ctx, member, group, cell)
			rows = e.appendRow(rows, member, group.Label(), outcome)
		}
	}

	span.Emit(1, "processing complete")
	return rows, nil
}

// runUnit and runCell absorb unit errors into FAILED outcomes, preserving the
// underlying error text verbatim for operator diagnosis.
func (e *Executor) runUnit(ctx context.Context, target *ResolvedTarget, fn UnitFunc) Outcome {
	outcome, err := fn(ctx, target)
	if err != nil {
		return Failed(err)
	}
	return outcome
}

func (e *Executor) runCell(ctx context.Context, member string, group *ResolvedTarget, cell CellFunc) Outcome {
	outcome, err := cell(ctx, member, group)
	if err != nil {
		return Failed(err)
	}
	return outcome
}

func (e *Executor) appendRow(rows []OutcomeRow, subject, context string, outcome Outcome) []OutcomeRow {
	row := OutcomeRow{
		Index:   len(rows),
		Subject: subject,
		Context: context,
		Status:  outcome.Status,
		Detail:  outcome.Detail,
	}

	evt := e.log.Debug().
		Int("index", row.Index).
		Str("subject", row.Subject).
		Str("status", string(row.Status))
	if row.Context != "" {
		evt = evt.Str("context", row.Context)
	}
	evt.Msg(row.Detail)

	return append(rows, row)
}
