package m_record

// Column names for the records table.
const (
	TableName = "records"

	RecordID    = "record_id"
	Document    = "document"
	DirtyFields = "dirty_fields"
	Version     = "version"
	CreatedAt   = "created_at"
	UpdatedAt   = "updated_at"
	ArchivedAt  = "archived_at"
)

// Columns lists every column in table order.
var Columns = []string{
	RecordID,
	Document,
	DirtyFields,
	Version,
	CreatedAt,
	UpdatedAt,
	ArchivedAt,
}
