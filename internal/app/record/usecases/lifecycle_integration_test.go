//go:build integration

package usecases_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dirtify-service/internal/app/record/domain"
	"github.com/light-bringer/dirtify-service/internal/app/record/queries/get_record"
	"github.com/light-bringer/dirtify-service/internal/app/record/queries/list_events"
	"github.com/light-bringer/dirtify-service/internal/app/record/repo"
	"github.com/light-bringer/dirtify-service/internal/app/record/usecases/archive_record"
	"github.com/light-bringer/dirtify-service/internal/app/record/usecases/create_record"
	"github.com/light-bringer/dirtify-service/internal/app/record/usecases/update_record"
	"github.com/light-bringer/dirtify-service/internal/models/m_outbox"
	"github.com/light-bringer/dirtify-service/internal/pkg/committer"
	"github.com/light-bringer/dirtify-service/internal/testutil"
)

type suite struct {
	create  *create_record.Interactor
	update  *update_record.Interactor
	archive *archive_record.Interactor
	get     *get_record.Query
	events  *list_events.Query
}

func setupSuite(t *testing.T) *suite {
	t.Helper()

	client, cleanup := testutil.SetupSpannerTest(t)
	t.Cleanup(cleanup)

	clk := testutil.NewMockClock()
	comm := committer.NewCommitter(client)
	recordRepo := repo.NewRecordRepo(client)
	outboxRepo := repo.NewOutboxRepo(clk)

	return &suite{
		create:  create_record.NewInteractor(recordRepo, outboxRepo, comm, clk),
		update:  update_record.NewInteractor(recordRepo, outboxRepo, comm, clk),
		archive: archive_record.NewInteractor(recordRepo, outboxRepo, comm, clk),
		get:     get_record.NewQuery(repo.NewReadModel(client)),
		events:  list_events.NewQuery(repo.NewEventsReadModel(client)),
	}
}

func TestRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	s := setupSuite(t)

	id, err := s.create.Execute(ctx, &create_record.Request{Document: testutil.SampleDocument()})
	require.NoError(t, err)

	resp, err := s.update.Execute(ctx, &update_record.Request{
		RecordID: id,
		Patch:    domain.Patch{{Kind: domain.OpSet, Path: "address.street", Value: "456 Oak St"}},
	})
	require.NoError(t, err)
	assert.True(t, resp.Changed)
	assert.Equal(t, int64(2), resp.Version)

	noop, err := s.update.Execute(ctx, &update_record.Request{
		RecordID: id,
		Patch:    domain.Patch{{Kind: domain.OpSet, Path: "name", Value: "Alice"}},
	})
	require.NoError(t, err)
	assert.False(t, noop.Changed)
	assert.Equal(t, int64(2), noop.Version)

	require.NoError(t, s.archive.Execute(ctx, &archive_record.Request{RecordID: id}))

	dto, err := s.get.Execute(ctx, &get_record.Request{RecordID: id})
	require.NoError(t, err)
	assert.Equal(t, int64(3), dto.Version)
	assert.NotNil(t, dto.ArchivedAt)
	assert.Equal(t, "456 Oak St", dto.Document["address"].(map[string]any)["street"])

	events, err := s.events.Execute(ctx, &list_events.Request{AggregateID: id})
	require.NoError(t, err)
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.EventType)
		assert.Equal(t, m_outbox.StatusPending, e.Status)
	}
	assert.ElementsMatch(t, []string{"record.created", "record.updated", "record.archived"}, types)

	_, err = s.update.Execute(ctx, &update_record.Request{
		RecordID: id,
		Patch:    domain.Patch{{Kind: domain.OpSet, Path: "name", Value: "Bob"}},
	})
	assert.ErrorIs(t, err, domain.ErrCannotModifyArchived)
}

func TestConcurrentUpdatesWithSameExpectedVersion(t *testing.T) {
	ctx := context.Background()
	s := setupSuite(t)

	id, err := s.create.Execute(ctx, &create_record.Request{Document: testutil.SampleDocument()})
	require.NoError(t, err)

	expected := int64(1)
	values := []string{"Bob", "Carol"}
	errs := make([]error, len(values))

	var wg sync.WaitGroup
	for i, name := range values {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			_, errs[i] = s.update.Execute(ctx, &update_record.Request{
				RecordID:        id,
				ExpectedVersion: &expected,
				Patch:           domain.Patch{{Kind: domain.OpSet, Path: "name", Value: name}},
			})
		}(i, name)
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, domain.ErrVersionConflict):
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)

	dto, err := s.get.Execute(ctx, &get_record.Request{RecordID: id})
	require.NoError(t, err)
	assert.Equal(t, int64(2), dto.Version)
}
