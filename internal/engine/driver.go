package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/isometry/groupops/internal/directory"
	"github.com/isometry/groupops/internal/job"
	"github.com/isometry/groupops/internal/report"
)

// State tracks a job through the driver's lifecycle.
type State int

const (
	StateReceived State = iota
	StateValidatingPrereqs
	StateDispatching
	StateExecuting
	StateReporting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateValidatingPrereqs:
		return "validating_prereqs"
	case StateDispatching:
		return "dispatching"
	case StateExecuting:
		return "executing"
	case StateReporting:
		return "reporting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Driver processes one job start to finish: confirm the gateway is reachable,
// dispatch to the named operation, delegate to resolver/executor, and emit the
// final envelope. A job runs single-threaded to completion or fails outright;
// no state survives across jobs.
type Driver struct {
	gw       directory.Gateway
	resolver *Resolver
	executor *Executor
	emitter  report.Emitter
	log      zerolog.Logger
	state    State
}

// NewDriver creates a job driver.
func NewDriver(gw directory.Gateway, emitter report.Emitter, log zerolog.Logger) *Driver {
	return &Driver{
		gw:       gw,
		resolver: NewResolver(gw, log),
		executor: NewExecutor(log),
		emitter:  emitter,
		log:      log.With().Str("component", "driver").Logger(),
		state:    StateReceived,
	}
}

// State returns the driver's current lifecycle state.
func (d *Driver) State() State {
	return d.state
}

func (d *Driver) transition(next State) {
	d.log.Debug().Stringer("from", d.state).Stringer("to", next).Msg("state transition")
	d.state = next
}

// Run executes the job and emits exactly one terminal result envelope. The
// returned result carries the exit-code mapping for the caller.
func (d *Driver) Run(ctx context.Context, j *job.Job) *report.Result {
	span := NewSpan(d.emitter)

	d.transition(StateValidatingPrereqs)
	span.Emit(0, "checking directory availability")
	if err := d.gw.Ping(ctx); err != nil {
		return d.fail(j.Operation, fmt.Sprintf(
			"directory is unavailable: %v; verify the directory URL, network reachability, and credentials", err))
	}

	d.transition(StateDispatching)
	spec, dryRun, err := j.Mode()
	if err != nil {
		return d.fail(j.Operation, err.Error())
	}

	handler, ok := handlers[spec.Name]
	if !ok {
		return d.fail(j.Operation, fmt.Sprintf("operation %s has no handler", spec.Name))
	}

	d.transition(StateExecuting)
	d.log.Info().
		Str("operation", spec.Name.String()).
		Bool("dry_run", dryRun).
		Int("targets", len(j.TargetGroups)).
		Int("members", len(j.Members)).
		Msg("executing job")

	rows, affected, err := handler(d, ctx, j, dryRun, span.Sub(0.05, 0.95))
	if err != nil {
		// Gate and precondition failures are job-fatal: one error envelope,
		// no partial table.
		return d.fail(spec.Name.String(), err.Error())
	}

	d.transition(StateReporting)
	verdict := Fold(rows, dryRun)
	code := verdict.Code(spec.Shape == job.ShapeCrossProduct)

	result := &report.Result{
		Code:        code,
		Operation:   spec.Name.String(),
		Success:     code != report.CodeError,
		DryRun:      dryRun,
		Counts:      verdict.Counts(),
		Affected:    affected,
		Description: verdict.Describe(spec.Name.String()),
		Table:       buildTable(spec, rows, verdict),
	}

	span.Emit(1, "done")
	if err := d.emitter.Result(result); err != nil {
		d.log.Error().Err(err).Msg("failed to emit result")
	}

	d.transition(StateDone)
	return result
}

// fail emits the sole error envelope for a job-fatal failure and parks the
// driver in its terminal failed state.
func (d *Driver) fail(operation, description string) *report.Result {
	d.transition(StateFailed)

	result := &report.Result{
		Code:        report.CodeError,
		Operation:   operation,
		Success:     false,
		Description: description,
	}
	if err := d.emitter.Result(result); err != nil {
		d.log.Error().Err(err).Msg("failed to emit error result")
	}

	return result
}

// buildTable converts the row sequence into the optional display table.
func buildTable(spec job.Spec, rows []OutcomeRow, verdict Verdict) *report.Table {
	if len(rows) == 0 {
		return nil
	}

	crossed := spec.Shape == job.ShapeCrossProduct || spec.Shape == job.ShapeReadOnly

	// copyGroup's per-member rows carry a context even though the operation is
	// single-target; the column is shown whenever any row has one.
	contextual := crossed
	for _, row := range rows {
		if row.Context != "" {
			contextual = true
			break
		}
	}

	t := &report.Table{Title: spec.Name.String()}
	switch {
	case crossed:
		t.Columns = []string{"#", "Member", "Group", "Status", "Detail"}
	case contextual:
		t.Columns = []string{"#", "Target", "Group", "Status", "Detail"}
	default:
		t.Columns = []string{"#", "Target", "Status", "Detail"}
	}

	for _, row := range rows {
		cells := []string{strconv.Itoa(row.Index + 1), row.Subject}
		if contextual {
			cells = append(cells, row.Context)
		}
		cells = append(cells, string(row.Status), row.Detail)
		t.Rows = append(t.Rows, cells)
	}

	t.Caption = verdict.Describe(spec.Name.String())
	if verdict.DryRun {
		t.Caption += "; no changes were made"
	}

	return t
}
