package memory

import (
	"context"

	"github.com/puzpuzpuz/xsync/v4"

	"bioguard/internal/domain/model"
)

type VerdictRepo struct {
	verdicts *xsync.Map[int64, model.UserBioVerdict]
}

func NewVerdictRepo() *VerdictRepo {
	return &VerdictRepo{verdicts: xsync.NewMap[int64, model.UserBioVerdict]()}
}

func (r *VerdictRepo) GetVerdict(_ context.Context, userID int64) (model.UserBioVerdict, bool, error) {
	verdict, ok := r.verdicts.Load(userID)
	return verdict, ok, nil
}

// UpsertVerdict overwrites the stored verdict unless the stored one was
// checked later than v.
func (r *VerdictRepo) UpsertVerdict(_ context.Context, v model.UserBioVerdict) error {
	r.verdicts.Compute(v.UserID, func(old model.UserBioVerdict, loaded bool) (model.UserBioVerdict, xsync.ComputeOp) {
		if loaded && old.LastChecked.After(v.LastChecked) {
			return old, xsync.CancelOp
		}
		return v, xsync.UpdateOp
	})
	return nil
}
