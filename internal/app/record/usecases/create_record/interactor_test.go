package create_record

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dirtify-service/internal/app/record/domain"
	"github.com/light-bringer/dirtify-service/internal/testutil"
)

func setup() (*Interactor, *testutil.MemoryStore) {
	clk := testutil.NewMockClock()
	store := testutil.NewMemoryStore(clk)
	return NewInteractor(store, store.OutboxRepo(), store, clk), store
}

func TestCreateRecord_GeneratesID(t *testing.T) {
	ctx := context.Background()
	interactor, store := setup()

	id, err := interactor.Execute(ctx, &Request{Document: testutil.SampleDocument()})
	require.NoError(t, err)
	assert.Len(t, id, 36)

	record, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.Version())
	assert.Equal(t, "Alice", record.Document()["name"])
	assert.Equal(t, testutil.Epoch, record.CreatedAt())

	dto, err := store.GetRecordByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"address", "age", "name", "tags"}, dto.DirtyFields)

	assert.Equal(t, []string{"record.created"}, store.EventTypes())
	assert.Equal(t, 1, store.Commits)
}

func TestCreateRecord_WithID(t *testing.T) {
	ctx := context.Background()
	interactor, store := setup()

	id, err := interactor.Execute(ctx, &Request{RecordID: "rec-1", Document: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, "rec-1", id)

	_, err = interactor.Execute(ctx, &Request{RecordID: "rec-1", Document: map[string]any{}})
	assert.ErrorIs(t, err, domain.ErrRecordAlreadyExists)
	assert.Equal(t, 1, store.Commits)
}

func TestCreateRecord_NilDocument(t *testing.T) {
	interactor, store := setup()

	_, err := interactor.Execute(context.Background(), &Request{})

	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
	assert.Empty(t, store.Events())
}

func TestCreateRecord_CommitFailure(t *testing.T) {
	interactor, store := setup()
	store.ApplyErr = errors.New("unavailable")

	_, err := interactor.Execute(context.Background(), &Request{Document: testutil.SampleDocument()})

	assert.ErrorContains(t, err, "failed to commit transaction")
	assert.Empty(t, store.Events())
}
