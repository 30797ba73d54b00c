package testutil

import (
	"context"
	"testing"

	"cloud.google.com/go/spanner"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dirtify-service/internal/models/m_record"
)

// SampleDocument returns a fresh nested document for tests.
func SampleDocument() map[string]any {
	return map[string]any{
		"name": "Alice",
		"age":  float64(30),
		"address": map[string]any{
			"street": "123 Main St",
			"city":   "Wonderland",
		},
		"tags": []any{"vip"},
	}
}

// CreateTestRecord writes a record row directly and returns its ID.
func CreateTestRecord(t *testing.T, client *spanner.Client, doc map[string]any) string {
	t.Helper()

	recordID := uuid.New().String()
	data := &m_record.Data{
		RecordID:    recordID,
		Document:    spanner.NullJSON{Value: doc, Valid: true},
		DirtyFields: []string{},
		Version:     1,
		CreatedAt:   Epoch,
		UpdatedAt:   Epoch,
	}

	_, err := client.Apply(context.Background(), []*spanner.Mutation{m_record.NewModel().InsertMut(data)})
	require.NoError(t, err, "failed to create test record")

	return recordID
}
