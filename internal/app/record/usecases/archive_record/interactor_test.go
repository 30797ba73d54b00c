package archive_record

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dirtify-service/internal/app/record/contracts"
	"github.com/light-bringer/dirtify-service/internal/app/record/domain"
	"github.com/light-bringer/dirtify-service/internal/app/record/usecases/create_record"
	"github.com/light-bringer/dirtify-service/internal/testutil"
)

func TestArchiveRecord(t *testing.T) {
	ctx := context.Background()
	clk := testutil.NewMockClock()
	store := testutil.NewMemoryStore(clk)

	id, err := create_record.NewInteractor(store, store.OutboxRepo(), store, clk).
		Execute(ctx, &create_record.Request{Document: testutil.SampleDocument()})
	require.NoError(t, err)

	interactor := NewInteractor(store, store.OutboxRepo(), store, clk)
	archivedAt := clk.Advance(time.Hour)

	require.NoError(t, interactor.Execute(ctx, &Request{RecordID: id}))

	dto, err := store.GetRecordByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, dto.ArchivedAt)
	assert.Equal(t, archivedAt, *dto.ArchivedAt)
	assert.Equal(t, int64(2), dto.Version)
	assert.Equal(t, []string{"address", "age", "name", "tags"}, dto.DirtyFields, "archiving keeps the last change set")
	assert.Equal(t, []string{"record.created", "record.archived"}, store.EventTypes())

	listed, err := store.ListRecords(ctx, &contracts.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed.Records)

	err = interactor.Execute(ctx, &Request{RecordID: id})
	assert.ErrorIs(t, err, domain.ErrAlreadyArchived)
}

func TestArchiveRecord_NotFound(t *testing.T) {
	clk := testutil.NewMockClock()
	store := testutil.NewMemoryStore(clk)
	interactor := NewInteractor(store, store.OutboxRepo(), store, clk)

	assert.ErrorIs(t, interactor.Execute(context.Background(), &Request{RecordID: "missing"}), domain.ErrRecordNotFound)
	assert.ErrorIs(t, interactor.Execute(context.Background(), &Request{}), domain.ErrEmptyID)
}
