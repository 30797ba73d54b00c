package m_record

import (
	"sort"

	"cloud.google.com/go/spanner"
)

// Model builds mutations for the records table.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a mutation inserting a full row.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(
		TableName,
		Columns,
		[]interface{}{
			data.RecordID,
			data.Document,
			data.DirtyFields,
			data.Version,
			data.CreatedAt,
			data.UpdatedAt,
			data.ArchivedAt,
		},
	)
}

// UpdateMut creates a mutation writing only the given columns.
// It returns nil when there is nothing to write.
func (m *Model) UpdateMut(recordID string, updates map[string]interface{}) *spanner.Mutation {
	if len(updates) == 0 {
		return nil
	}

	// Sorted so the same change set always produces the same mutation.
	cols := make([]string, 0, len(updates))
	for col := range updates {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	columns := make([]string, 0, len(updates)+1)
	values := make([]interface{}, 0, len(updates)+1)

	columns = append(columns, RecordID)
	values = append(values, recordID)

	for _, col := range cols {
		columns = append(columns, col)
		values = append(values, updates[col])
	}

	return spanner.Update(TableName, columns, values)
}

// DeleteMut creates a mutation hard-deleting a record.
func (m *Model) DeleteMut(recordID string) *spanner.Mutation {
	return spanner.Delete(TableName, spanner.Key{recordID})
}
