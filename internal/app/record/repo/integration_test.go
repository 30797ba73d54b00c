//go:build integration

package repo_test

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dirtify-service/internal/app/record/contracts"
	"github.com/light-bringer/dirtify-service/internal/app/record/domain"
	"github.com/light-bringer/dirtify-service/internal/app/record/queries/list_events"
	"github.com/light-bringer/dirtify-service/internal/app/record/repo"
	"github.com/light-bringer/dirtify-service/internal/models/m_outbox"
	"github.com/light-bringer/dirtify-service/internal/models/m_record"
	"github.com/light-bringer/dirtify-service/internal/testutil"
)

func TestRecordRepository_InsertAndGet(t *testing.T) {
	client, cleanup := testutil.SetupSpannerTest(t)
	defer cleanup()

	ctx := context.Background()
	repository := repo.NewRecordRepo(client)

	record, err := domain.NewRecord("rec-int-1", testutil.SampleDocument(), testutil.Epoch)
	require.NoError(t, err)

	mut, err := repository.InsertMut(record)
	require.NoError(t, err)
	_, err = client.Apply(ctx, []*spanner.Mutation{mut})
	require.NoError(t, err)

	testutil.AssertRowCount(t, client, m_record.TableName, 1)

	loaded, err := repository.GetByID(ctx, "rec-int-1")
	require.NoError(t, err)
	assert.Equal(t, testutil.SampleDocument(), loaded.Document())
	assert.Equal(t, int64(1), loaded.Version())
	assert.False(t, loaded.HasChanges())

	exists, err := repository.Exists(ctx, "rec-int-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRecordRepository_GetByIDNotFound(t *testing.T) {
	client, cleanup := testutil.SetupSpannerTest(t)
	defer cleanup()

	_, err := repo.NewRecordRepo(client).GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestRecordRepository_UpdateMutWritesOnlyDirtyRecords(t *testing.T) {
	client, cleanup := testutil.SetupSpannerTest(t)
	defer cleanup()

	ctx := context.Background()
	repository := repo.NewRecordRepo(client)
	recordID := testutil.CreateTestRecord(t, client, testutil.SampleDocument())

	loaded, err := repository.GetByID(ctx, recordID)
	require.NoError(t, err)

	clean, err := repository.UpdateMut(loaded)
	require.NoError(t, err)
	assert.Nil(t, clean, "an untouched record needs no mutation")

	_, err = loaded.Apply(domain.Patch{{Kind: domain.OpSet, Path: "address.city", Value: "New City"}}, testutil.Epoch.Add(time.Hour))
	require.NoError(t, err)

	mut, err := repository.UpdateMut(loaded)
	require.NoError(t, err)
	require.NotNil(t, mut)
	_, err = client.Apply(ctx, []*spanner.Mutation{mut})
	require.NoError(t, err)

	reloaded, err := repository.GetByID(ctx, recordID)
	require.NoError(t, err)
	assert.Equal(t, "New City", reloaded.Document()["address"].(map[string]any)["city"])
	assert.Equal(t, int64(2), reloaded.Version())

	dto, err := repo.NewReadModel(client).GetRecordByID(ctx, recordID)
	require.NoError(t, err)
	assert.Equal(t, []string{"city"}, dto.DirtyFields)
}

func TestReadModel_ListRecords(t *testing.T) {
	client, cleanup := testutil.SetupSpannerTest(t)
	defer cleanup()

	ctx := context.Background()
	repository := repo.NewRecordRepo(client)
	readModel := repo.NewReadModel(client)

	for i, id := range []string{"rec-a", "rec-b", "rec-c"} {
		record, err := domain.NewRecord(id, testutil.SampleDocument(), testutil.Epoch.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		mut, err := repository.InsertMut(record)
		require.NoError(t, err)
		_, err = client.Apply(ctx, []*spanner.Mutation{mut})
		require.NoError(t, err)
	}

	archived, err := repository.GetByID(ctx, "rec-a")
	require.NoError(t, err)
	require.NoError(t, archived.Archive(testutil.Epoch.Add(time.Hour)))
	mut, err := repository.UpdateMut(archived)
	require.NoError(t, err)
	_, err = client.Apply(ctx, []*spanner.Mutation{mut})
	require.NoError(t, err)

	active, err := readModel.ListRecords(ctx, &contracts.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), active.TotalCount)
	require.Len(t, active.Records, 2)
	assert.Equal(t, "rec-c", active.Records[0].RecordID)

	all, err := readModel.ListRecords(ctx, &contracts.ListFilter{IncludeArchived: true, Limit: 1, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.TotalCount)
	require.Len(t, all.Records, 1)
	assert.Equal(t, "rec-a", all.Records[0].RecordID)
	assert.NotNil(t, all.Records[0].ArchivedAt)
}

func TestOutboxRepository_InsertAndList(t *testing.T) {
	client, cleanup := testutil.SetupSpannerTest(t)
	defer cleanup()

	ctx := context.Background()
	outbox := repo.NewOutboxRepo(testutil.NewMockClock())

	record, err := domain.NewRecord("rec-events", testutil.SampleDocument(), testutil.Epoch)
	require.NoError(t, err)

	event := outbox.EnrichEvent(record.DomainEvents()[0], `{"record_id":"rec-events"}`)
	_, err = client.Apply(ctx, []*spanner.Mutation{outbox.InsertMut(event)})
	require.NoError(t, err)

	testutil.AssertRowCount(t, client, m_outbox.TableName, 1)

	events, err := repo.NewEventsReadModel(client).ListEvents(ctx, &list_events.Request{AggregateID: "rec-events", Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "record.created", events[0].EventType)
	assert.Equal(t, m_outbox.StatusPending, events[0].Status)
	assert.Equal(t, map[string]any{"record_id": "rec-events"}, events[0].Payload.Value)
}
