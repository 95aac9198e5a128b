// Package report defines the output protocol of a job: a stream of progress
// events followed by exactly one terminal result envelope, emitted either as
// JSON lines for machine consumption or rendered for a console.
package report

// Severity codes carried in the terminal envelope. Success and warning both
// exit 0; only an error exits nonzero.
const (
	CodeSuccess = 0
	CodeError   = 1
	CodeWarning = 2 // warning sentinel: completed with per-item failures
)

// Progress is one progress event: a fraction in [0,1] plus a status line.
type Progress struct {
	Fraction float64 `json:"fraction"`
	Status   string  `json:"status"`
}

// Counts aggregates per-status row totals for a job.
type Counts struct {
	Success int `json:"success"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// AffectedTarget identifies one directory object the job touched (or would
// touch, under dry-run).
type AffectedTarget struct {
	Identity          string `json:"identity"`
	ObjectGUID        string `json:"objectGUID,omitempty"`
	DistinguishedName string `json:"distinguishedName,omitempty"`
}

// Table is an optional display table for presentation layers.
type Table struct {
	Title   string     `json:"title,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Caption string     `json:"caption,omitempty"`
}

// Result is the single terminal envelope of a job.
type Result struct {
	Code        int              `json:"code"`
	Operation   string           `json:"operation"`
	Success     bool             `json:"success"`
	DryRun      bool             `json:"dryRun"`
	Counts      Counts           `json:"counts"`
	Affected    []AffectedTarget `json:"affected,omitempty"`
	Description string           `json:"description"`
	Table       *Table           `json:"table,omitempty"`
}

// ExitCode maps the envelope severity onto the process exit code: success and
// warning exit 0, error exits 1.
func (r *Result) ExitCode() int {
	if r.Code == CodeError {
		return 1
	}
	return 0
}

// Emitter receives the output stream of one job. Implementations must emit
// progress events in order and exactly one result.
type Emitter interface {
	Progress(p Progress)
	Result(r *Result) error
}
