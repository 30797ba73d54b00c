package committer

import (
	"context"
	"testing"

	"cloud.google.com/go/spanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitPlan(t *testing.T) {
	plan := NewPlan()
	assert.True(t, plan.IsEmpty())

	plan.Add(nil)
	assert.True(t, plan.IsEmpty(), "nil mutations are ignored")

	plan.Add(spanner.Delete("records", spanner.Key{"r1"}))
	plan.AddMultiple([]*spanner.Mutation{
		spanner.Delete("records", spanner.Key{"r2"}),
		nil,
		spanner.Delete("records", spanner.Key{"r3"}),
	})

	assert.False(t, plan.IsEmpty())
	assert.Equal(t, 3, plan.Count())
	assert.Len(t, plan.Mutations(), 3)
}

func TestCommitter_EmptyPlanIsNoop(t *testing.T) {
	// A nil client would panic if the committer tried to talk to Spanner.
	c := NewCommitter(nil)

	require.NoError(t, c.Apply(context.Background(), NewPlan()))
	require.NoError(t, c.ApplyWithVersionCheck(context.Background(), VersionCheck{
		Table:         "records",
		Key:           spanner.Key{"r1"},
		VersionColumn: "version",
		Expected:      1,
	}, NewPlan()))
}

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, CheckVersion(3, 3))

	err := CheckVersion(3, 4)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Contains(t, err.Error(), "expected 3, got 4")
}
