package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolvedFixture(name string) ResolvedTarget {
	return resolvedTarget(name, testGroup(name, "OU=Groups,DC=example,DC=com"))
}

func TestExecutor_RunSingle_PerItemIsolation(t *testing.T) {
	targets := []ResolvedTarget{
		resolvedFixture("A"),
		resolvedFixture("B"),
		resolvedFixture("C"),
	}

	e := NewExecutor(zerolog.Nop())
	rows := e.RunSingle(context.Background(), targets, NewSpan(nopEmitter{}), func(ctx context.Context, target *ResolvedTarget) (Outcome, error) {
		if target.Identity == "B" {
			return Outcome{}, errors.New("insufficient access rights")
		}
		return Succeeded("done %s", target.Identity), nil
	})

	require.Len(t, rows, 3)
	assert.Equal(t, StatusSuccess, rows[0].Status)
	assert.Equal(t, StatusFailed, rows[1].Status)
	assert.Equal(t, "insufficient access rights", rows[1].Detail)
	// The failure on B must not stop C from being processed.
	assert.Equal(t, StatusSuccess, rows[2].Status)
}

func TestExecutor_RunSingle_UnresolvedTargetFailsOwnRow(t *testing.T) {
	targets := []ResolvedTarget{
		resolvedFixture("A"),
		unresolvedTarget("Ghost", `group "Ghost" not found`),
	}

	calls := 0
	e := NewExecutor(zerolog.Nop())
	rows := e.RunSingle(context.Background(), targets, NewSpan(nopEmitter{}), func(ctx context.Context, target *ResolvedTarget) (Outcome, error) {
		calls++
		return Succeeded("done"), nil
	})

	require.Len(t, rows, 2)
	assert.Equal(t, StatusSuccess, rows[0].Status)
	assert.Equal(t, StatusFailed, rows[1].Status)
	assert.Equal(t, `group "Ghost" not found`, rows[1].Detail)
	// The unit function only runs for resolved targets.
	assert.Equal(t, 1, calls)
}

func TestExecutor_RunSingle_RowIndexesMatchProcessingOrder(t *testing.T) {
	var targets []ResolvedTarget
	for i := 0; i < 5; i++ {
		targets = append(targets, resolvedFixture(fmt.Sprintf("G%d", i)))
	}

	e := NewExecutor(zerolog.Nop())
	rows := e.RunSingle(context.Background(), targets, NewSpan(nopEmitter{}), func(ctx context.Context, target *ResolvedTarget) (Outcome, error) {
		return Succeeded("ok"), nil
	})

	require.Len(t, rows, 5)
	for i, row := range rows {
		assert.Equal(t, i, row.Index)
		assert.Equal(t, fmt.Sprintf("G%d", i), row.Subject)
	}
}

func TestExecutor_RunCrossProduct_MemberOuterGroupInner(t *testing.T) {
	groups := []ResolvedTarget{resolvedFixture("G1"), resolvedFixture("G2")}
	members := []string{"alice", "bob"}

	e := NewExecutor(zerolog.Nop())
	rows, err := e.RunCrossProduct(context.Background(), members, groups, NewSpan(nopEmitter{}),
		func(ctx context.Context, member string, group *ResolvedTarget) (Outcome, error) {
			return Succeeded("%s in %s", member, group.Label()), nil
		})

	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"alice", "alice", "bob", "bob"},
		[]string{rows[0].Subject, rows[1].Subject, rows[2].Subject, rows[3].Subject})
	assert.Equal(t, []string{"G1", "G2", "G1", "G2"},
		[]string{rows[0].Context, rows[1].Context, rows[2].Context, rows[3].Context})
}

func TestExecutor_RunCrossProduct_GateRejectsUnresolvedGroups(t *testing.T) {
	groups := []ResolvedTarget{
		resolvedFixture("G1"),
		unresolvedTarget("Ghost", `group "Ghost" not found`),
	}

	calls := 0
	e := NewExecutor(zerolog.Nop())
	rows, err := e.RunCrossProduct(context.Background(), []string{"alice"}, groups, NewSpan(nopEmitter{}),
		func(ctx context.Context, member string, group *ResolvedTarget) (Outcome, error) {
			calls++
			return Succeeded("ok"), nil
		})

	require.Error(t, err)
	assert.Empty(t, rows)
	// No mutation cell may run when any target group failed to resolve.
	assert.Equal(t, 0, calls)

	var gateErr *GateError
	require.ErrorAs(t, err, &gateErr)
	require.Len(t, gateErr.Unresolved, 1)
	assert.Contains(t, err.Error(), "no changes attempted")
	assert.Contains(t, err.Error(), "Ghost")
}

func TestExecutor_RunCrossProduct_CellErrorIsolated(t *testing.T) {
	groups := []ResolvedTarget{resolvedFixture("G1"), resolvedFixture("G2")}

	e := NewExecutor(zerolog.Nop())
	rows, err := e.RunCrossProduct(context.Background(), []string{"alice"}, groups, NewSpan(nopEmitter{}),
		func(ctx context.Context, member string, group *ResolvedTarget) (Outcome, error) {
			if group.Label() == "G1" {
				return Outcome{}, errors.New("entry already exists")
			}
			return Succeeded("ok"), nil
		})

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, StatusFailed, rows[0].Status)
	assert.Equal(t, "entry already exists", rows[0].Detail)
	assert.Equal(t, StatusSuccess, rows[1].Status)
}
