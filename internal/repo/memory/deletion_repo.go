package memory

import (
	"context"
	"sync"

	"bioguard/internal/domain/model"
)

type DeletionRepo struct {
	mu      sync.Mutex
	nextID  int64
	records []model.DeletionAuditRecord
}

func NewDeletionRepo() *DeletionRepo {
	return &DeletionRepo{}
}

func (r *DeletionRepo) Save(_ context.Context, record model.DeletionAuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	record.ID = r.nextID
	r.records = append(r.records, record)
	return nil
}

func (r *DeletionRepo) ListRecent(_ context.Context, limit int) ([]model.DeletionAuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > len(r.records) {
		limit = len(r.records)
	}
	result := make([]model.DeletionAuditRecord, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, r.records[i])
	}
	return result, nil
}

func (r *DeletionRepo) CountByChat(_ context.Context, chatID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, record := range r.records {
		if record.ChatID == chatID {
			count++
		}
	}
	return count, nil
}
