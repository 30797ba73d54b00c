package m_record

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents a row of the records table.
type Data struct {
	RecordID    string           `spanner:"record_id"`
	Document    spanner.NullJSON `spanner:"document"`
	DirtyFields []string         `spanner:"dirty_fields"`
	Version     int64            `spanner:"version"`
	CreatedAt   time.Time        `spanner:"created_at"`
	UpdatedAt   time.Time        `spanner:"updated_at"`
	ArchivedAt  spanner.NullTime `spanner:"archived_at"`
}
