// Package committer collects Spanner mutations produced by repositories and
// applies them in one transaction.
//
// Repositories never write on their own. A use case loads an aggregate, runs
// domain methods, asks the repositories for mutations, adds them to a
// CommitPlan together with the outbox rows for the aggregate's events, and
// hands the plan to a Committer:
//
//	plan := committer.NewPlan()
//	plan.Add(recordMut)
//	plan.AddMultiple(outboxMuts)
//	err := comm.ApplyWithVersionCheck(ctx, committer.VersionCheck{...}, plan)
//
// An empty plan is a successful no-op, so a clean record costs no round trip.
package committer

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/spanner"
)

// ErrVersionConflict is returned when the stored version no longer matches the
// version the aggregate was loaded with.
var ErrVersionConflict = errors.New("committer: version conflict")

// CommitPlan is an ordered list of mutations applied atomically.
type CommitPlan struct {
	mutations []*spanner.Mutation
}

// NewPlan creates a new empty CommitPlan.
func NewPlan() *CommitPlan {
	return &CommitPlan{
		mutations: make([]*spanner.Mutation, 0),
	}
}

// Add adds a mutation to the plan. Nil mutations are ignored.
func (cp *CommitPlan) Add(mut *spanner.Mutation) {
	if mut != nil {
		cp.mutations = append(cp.mutations, mut)
	}
}

// AddMultiple adds multiple mutations to the plan.
func (cp *CommitPlan) AddMultiple(muts []*spanner.Mutation) {
	for _, mut := range muts {
		cp.Add(mut)
	}
}

// Mutations returns all collected mutations.
func (cp *CommitPlan) Mutations() []*spanner.Mutation {
	return cp.mutations
}

// IsEmpty returns true if the plan has no mutations.
func (cp *CommitPlan) IsEmpty() bool {
	return len(cp.mutations) == 0
}

// Count returns the number of mutations in the plan.
func (cp *CommitPlan) Count() int {
	return len(cp.mutations)
}

// VersionCheck names the row whose version column guards a commit.
type VersionCheck struct {
	Table         string
	Key           spanner.Key
	VersionColumn string
	Expected      int64
}

// Committer executes CommitPlans against Spanner.
type Committer struct {
	client *spanner.Client
}

// NewCommitter creates a new Committer.
func NewCommitter(client *spanner.Client) *Committer {
	return &Committer{client: client}
}

// Apply executes the CommitPlan atomically.
func (c *Committer) Apply(ctx context.Context, plan *CommitPlan) error {
	if plan.IsEmpty() {
		return nil
	}

	if _, err := c.client.Apply(ctx, plan.Mutations()); err != nil {
		return fmt.Errorf("failed to apply commit plan: %w", err)
	}
	return nil
}

// ApplyWithVersionCheck executes the CommitPlan in a read-write transaction
// after verifying the guarded row still carries the expected version.
func (c *Committer) ApplyWithVersionCheck(ctx context.Context, check VersionCheck, plan *CommitPlan) error {
	if plan.IsEmpty() {
		return nil
	}

	_, err := c.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		row, err := txn.ReadRow(ctx, check.Table, check.Key, []string{check.VersionColumn})
		if err != nil {
			return fmt.Errorf("failed to read version: %w", err)
		}

		var current int64
		if err := row.Column(0, &current); err != nil {
			return fmt.Errorf("failed to parse version: %w", err)
		}

		if err := CheckVersion(check.Expected, current); err != nil {
			return err
		}

		return txn.BufferWrite(plan.Mutations())
	})
	if err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return err
		}
		return fmt.Errorf("failed to apply commit plan with version check: %w", err)
	}
	return nil
}

// CheckVersion returns ErrVersionConflict when current differs from expected.
func CheckVersion(expected, current int64) error {
	if current != expected {
		return fmt.Errorf("%w: expected %d, got %d", ErrVersionConflict, expected, current)
	}
	return nil
}
