package update_record

import (
	"cloud.google.com/go/spanner"

	"github.com/light-bringer/dirtify-service/internal/app/record/domain"
	"github.com/light-bringer/dirtify-service/internal/models/m_record"
	"github.com/light-bringer/dirtify-service/internal/pkg/committer"
)

func newPlan(muts ...*spanner.Mutation) *committer.CommitPlan {
	plan := committer.NewPlan()
	plan.AddMultiple(muts)
	return plan
}

func versionCheck(record *domain.Record) committer.VersionCheck {
	return committer.VersionCheck{
		Table:         m_record.TableName,
		Key:           spanner.Key{record.ID()},
		VersionColumn: m_record.Version,
		Expected:      record.Version(),
	}
}
