package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_ExitCode(t *testing.T) {
	assert.Equal(t, 0, (&Result{Code: CodeSuccess}).ExitCode())
	assert.Equal(t, 0, (&Result{Code: CodeWarning}).ExitCode())
	assert.Equal(t, 1, (&Result{Code: CodeError}).ExitCode())
}

func TestJSONLinesEmitter_OneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	e := NewJSONLinesEmitter(&buf)

	e.Progress(Progress{Fraction: 0.25, Status: "resolving targets"})
	e.Progress(Progress{Fraction: 1, Status: "done"})
	require.NoError(t, e.Result(&Result{
		Code:        CodeWarning,
		Operation:   "addMembers",
		Success:     true,
		Counts:      Counts{Success: 2, Failed: 1},
		Description: "addMembers: 2 succeeded, 0 skipped, 1 failed",
	}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	var progress struct {
		Event    string  `json:"event"`
		Fraction float64 `json:"fraction"`
		Status   string  `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &progress))
	assert.Equal(t, "progress", progress.Event)
	assert.Equal(t, 0.25, progress.Fraction)
	assert.Equal(t, "resolving targets", progress.Status)

	var result struct {
		Event     string `json:"event"`
		Code      int    `json:"code"`
		Operation string `json:"operation"`
		Success   bool   `json:"success"`
		Counts    Counts `json:"counts"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &result))
	assert.Equal(t, "result", result.Event)
	assert.Equal(t, CodeWarning, result.Code)
	assert.Equal(t, "addMembers", result.Operation)
	assert.True(t, result.Success)
	assert.Equal(t, Counts{Success: 2, Failed: 1}, result.Counts)
}

func TestJSONLinesEmitter_OmitsEmptyOptionalFields(t *testing.T) {
	var buf bytes.Buffer
	e := NewJSONLinesEmitter(&buf)

	require.NoError(t, e.Result(&Result{Code: CodeError, Operation: "deleteGroup", Description: "boom"}))

	line := buf.String()
	assert.NotContains(t, line, `"affected"`)
	assert.NotContains(t, line, `"table"`)
}

func TestConsoleEmitter_RendersVerdictAndTable(t *testing.T) {
	var buf bytes.Buffer
	e := NewConsoleEmitter(&buf)

	e.Progress(Progress{Fraction: 0.5, Status: "processing GrpA"})
	require.NoError(t, e.Result(&Result{
		Code:        CodeSuccess,
		Operation:   "deleteGroup",
		Success:     true,
		DryRun:      true,
		Description: "deleteGroup (dry-run): 1 would change, 0 skipped, 0 failed",
		Table: &Table{
			Title:   "deleteGroup",
			Columns: []string{"#", "Target", "Status", "Detail"},
			Rows:    [][]string{{"1", "GrpA", "would_do", "would delete group CN=GrpA,DC=x"}},
			Caption: "no changes were made",
		},
	}))

	out := buf.String()
	assert.Contains(t, out, "SUCCESS")
	assert.Contains(t, out, "processing GrpA")
	assert.Contains(t, out, "GrpA")
	assert.Contains(t, out, "would_do")
	assert.Contains(t, out, "no changes were made")
}

func TestConsoleEmitter_ErrorVerdict(t *testing.T) {
	var buf bytes.Buffer
	e := NewConsoleEmitter(&buf)

	require.NoError(t, e.Result(&Result{
		Code:        CodeError,
		Operation:   "addMembers",
		Description: "2 target group(s) failed to resolve, no changes attempted",
	}))

	out := buf.String()
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "no changes attempted")
}
