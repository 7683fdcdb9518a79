// Package biocache keeps the per-user bio verdicts. The durable copy lives in
// the repo; a bounded LRU in front of it serves the hot path.
package biocache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"bioguard/internal/domain/model"
)

const (
	defaultSize = 10000
	lockStripes = 64
)

type Repo interface {
	GetVerdict(context.Context, int64) (model.UserBioVerdict, bool, error)
	UpsertVerdict(context.Context, model.UserBioVerdict) error
}

type frontCache interface {
	Get(int64) (model.UserBioVerdict, bool)
	Add(int64, model.UserBioVerdict) bool
	Remove(int64) bool
	Len() int
}

type Options struct {
	Size int
	// TTL bounds how long a verdict is trusted. Zero keeps verdicts forever.
	TTL time.Duration
}

type Service struct {
	repo  Repo
	ttl   time.Duration
	front frontCache
	locks [lockStripes]sync.Mutex
	now   func() time.Time
}

func NewService(repo Repo, opts Options) (*Service, error) {
	size := opts.Size
	if size <= 0 {
		size = defaultSize
	}

	var front frontCache
	if opts.TTL > 0 {
		front = expirable.NewLRU[int64, model.UserBioVerdict](size, nil, opts.TTL)
	} else {
		c, err := lru.New[int64, model.UserBioVerdict](size)
		if err != nil {
			return nil, fmt.Errorf("create verdict cache: %w", err)
		}
		front = c
	}

	return &Service{
		repo:  repo,
		ttl:   opts.TTL,
		front: front,
		now:   time.Now,
	}, nil
}

// Lookup returns the cached verdict for userID. hit is false when there is no
// verdict or the stored one is stale.
func (s *Service) Lookup(ctx context.Context, userID int64) (model.UserBioVerdict, bool, error) {
	now := s.now()
	if v, ok := s.front.Get(userID); ok {
		if !v.IsStale(now, s.ttl) {
			return v, true, nil
		}
		s.front.Remove(userID)
	}

	if s.repo == nil {
		return model.UserBioVerdict{}, false, nil
	}

	v, ok, err := s.repo.GetVerdict(ctx, userID)
	if err != nil {
		return model.UserBioVerdict{}, false, fmt.Errorf("get verdict: %w", err)
	}
	if !ok || v.IsStale(now, s.ttl) {
		return model.UserBioVerdict{}, false, nil
	}

	s.remember(v)
	return v, true, nil
}

// Store persists v. A verdict older than the one already known for the same
// user is dropped from the front cache so readers never go back in time.
func (s *Service) Store(ctx context.Context, v model.UserBioVerdict) error {
	if v.LastChecked.IsZero() {
		v.LastChecked = s.now().UTC()
	}

	if s.repo != nil {
		if err := s.repo.UpsertVerdict(ctx, v); err != nil {
			return fmt.Errorf("upsert verdict: %w", err)
		}
	}

	s.remember(v)
	return nil
}

// Len reports how many verdicts the in-memory front cache holds.
func (s *Service) Len() int {
	return s.front.Len()
}

func (s *Service) remember(v model.UserBioVerdict) {
	mu := &s.locks[uint64(v.UserID)%lockStripes]
	mu.Lock()
	defer mu.Unlock()

	if cur, ok := s.front.Get(v.UserID); ok && cur.LastChecked.After(v.LastChecked) {
		return
	}
	s.front.Add(v.UserID, v)
}
