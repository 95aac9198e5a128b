package job

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitIdentityList(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected IdentityList
	}{
		{
			name:     "comma separated",
			raw:      "alice, bob,carol",
			expected: IdentityList{"alice", "bob", "carol"},
		},
		{
			name:     "semicolon separated",
			raw:      "alice; bob ;carol",
			expected: IdentityList{"alice", "bob", "carol"},
		},
		{
			name:     "newline separated",
			raw:      "alice\nbob\r\ncarol",
			expected: IdentityList{"alice", "bob", "carol"},
		},
		{
			name:     "mixed delimiters",
			raw:      "alice, bob; carol\ndave",
			expected: IdentityList{"alice", "bob", "carol", "dave"},
		},
		{
			name:     "empty entries dropped",
			raw:      "alice,,  ,bob",
			expected: IdentityList{"alice", "bob"},
		},
		{
			name:     "empty string",
			raw:      "",
			expected: IdentityList{},
		},
		{
			name:     "DN values keep internal commas out of scope",
			raw:      "alice",
			expected: IdentityList{"alice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitIdentityList(tt.raw))
		})
	}
}

func TestLoad_ScalarAndSequenceListsNormalizeIdentically(t *testing.T) {
	scalar := `
operation: addMembers
targetGroups: "Engineering; QA"
members: "alice, bob"
`
	sequence := `
operation: addMembers
targetGroups:
  - Engineering
  - QA
members:
  - " alice "
  - bob
`

	fromScalar, err := Load(strings.NewReader(scalar))
	require.NoError(t, err)

	fromSequence, err := Load(strings.NewReader(sequence))
	require.NoError(t, err)

	assert.Equal(t, fromScalar.TargetGroups, fromSequence.TargetGroups)
	assert.Equal(t, fromScalar.Members, fromSequence.Members)
	assert.Equal(t, IdentityList{"Engineering", "QA"}, fromScalar.TargetGroups)
	assert.Equal(t, IdentityList{"alice", "bob"}, fromScalar.Members)
}

func TestLoad_AcceptsJSON(t *testing.T) {
	input := `{"operation": "listMembers", "targetGroups": ["Engineering"], "recursive": true}`

	j, err := Load(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "listMembers", j.Operation)
	assert.Equal(t, IdentityList{"Engineering"}, j.TargetGroups)
	assert.True(t, j.Recursive)
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	input := `
operation: deleteGroup
targetGroups: Engineering
tragetPath: OU=Typo,DC=example,DC=com
`
	_, err := Load(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tragetPath")
}

func TestLoad_RejectsOversizedLists(t *testing.T) {
	names := make([]string, MaxListItems+1)
	for i := range names {
		names[i] = fmt.Sprintf("group-%d", i)
	}

	input := fmt.Sprintf("operation: deleteGroup\ntargetGroups: %q\n", strings.Join(names, ","))

	_, err := Load(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item cap")
}

func TestJob_Mode_DefaultSafeDryRun(t *testing.T) {
	tests := []struct {
		operation string
		dryRun    *bool
		expected  bool
	}{
		{operation: "deleteGroup", expected: true},
		{operation: "renameGroup", expected: true},
		{operation: "moveGroup", expected: true},
		{operation: "setGroupScope", expected: true},
		{operation: "setGroupCategory", expected: true},
		{operation: "removeMembers", expected: true},
		{operation: "addMembers", expected: false},
		{operation: "createGroup", expected: false},
		{operation: "setDescription", expected: false},
		{operation: "listMembers", expected: false},
		{operation: "deleteGroup", dryRun: new(bool), expected: false},
	}

	for _, tt := range tests {
		name := tt.operation
		if tt.dryRun != nil {
			name += " with explicit override"
		}
		t.Run(name, func(t *testing.T) {
			j := &Job{Operation: tt.operation, DryRun: tt.dryRun}
			spec, dryRun, err := j.Mode()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, dryRun)
			assert.Equal(t, Operation(tt.operation), spec.Name)
		})
	}
}

func TestJob_Mode_UnknownOperation(t *testing.T) {
	j := &Job{Operation: "fooBar"}
	_, _, err := j.Mode()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")
	assert.Contains(t, err.Error(), "addMembers")
}

func TestLookup_CaseInsensitive(t *testing.T) {
	spec, err := Lookup("DELETEGROUP")
	require.NoError(t, err)
	assert.Equal(t, OpDeleteGroup, spec.Name)
	assert.True(t, spec.Destructive)
	assert.True(t, spec.DefaultDryRun)
}

func TestOperationNames_SortedAndComplete(t *testing.T) {
	names := OperationNames()
	assert.Len(t, names, 11)
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "copyGroup")
	assert.Contains(t, names, "setGroupCategory")
}
