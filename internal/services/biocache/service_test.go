package biocache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bioguard/internal/domain/model"
	"bioguard/internal/repo/memory"
)

type failingRepo struct {
	err error
}

func (r *failingRepo) GetVerdict(_ context.Context, _ int64) (model.UserBioVerdict, bool, error) {
	return model.UserBioVerdict{}, false, r.err
}

func (r *failingRepo) UpsertVerdict(_ context.Context, _ model.UserBioVerdict) error {
	return r.err
}

func TestLookupMissThenHit(t *testing.T) {
	svc, err := NewService(memory.NewVerdictRepo(), Options{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	if _, hit, err := svc.Lookup(ctx, 7); err != nil || hit {
		t.Fatalf("expected miss, got hit=%v err=%v", hit, err)
	}

	stored := model.UserBioVerdict{UserID: 7, Username: "alice", HasLink: true, BioSnapshot: "t.me/x", LastChecked: time.Now().UTC()}
	if err := svc.Store(ctx, stored); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, hit, err := svc.Lookup(ctx, 7)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !hit || !got.HasLink || got.Username != "alice" {
		t.Fatalf("unexpected verdict: hit=%v %+v", hit, got)
	}
}

func TestLookupFallsBackToRepo(t *testing.T) {
	repo := memory.NewVerdictRepo()
	ctx := context.Background()
	_ = repo.UpsertVerdict(ctx, model.UserBioVerdict{UserID: 3, HasLink: false, LastChecked: time.Now()})

	svc, err := NewService(repo, Options{Size: 4})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, hit, _ := svc.Lookup(ctx, 3); !hit {
		t.Fatal("expected repo verdict to be a hit")
	}
	if svc.Len() != 1 {
		t.Fatalf("expected verdict to be promoted into front cache, len=%d", svc.Len())
	}
}

func TestStaleVerdictIsMiss(t *testing.T) {
	repo := memory.NewVerdictRepo()
	svc, err := NewService(repo, Options{TTL: time.Hour})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	old := model.UserBioVerdict{UserID: 9, HasLink: true, LastChecked: time.Now().Add(-2 * time.Hour)}
	_ = repo.UpsertVerdict(ctx, old)

	if _, hit, _ := svc.Lookup(ctx, 9); hit {
		t.Fatal("expected stale verdict to be a miss")
	}
}

func TestStoreNeverRegresses(t *testing.T) {
	svc, err := NewService(memory.NewVerdictRepo(), Options{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	now := time.Now().UTC()

	_ = svc.Store(ctx, model.UserBioVerdict{UserID: 1, HasLink: true, LastChecked: now})
	_ = svc.Store(ctx, model.UserBioVerdict{UserID: 1, HasLink: false, LastChecked: now.Add(-time.Minute)})

	got, _, _ := svc.Lookup(ctx, 1)
	if !got.HasLink {
		t.Fatalf("older verdict replaced newer one: %+v", got)
	}
}

func TestConcurrentStoreAndLookup(t *testing.T) {
	svc, err := NewService(memory.NewVerdictRepo(), Options{Size: 16})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	base := time.Now().UTC()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				hasLink := j%2 == 0
				snapshot := "plain"
				if hasLink {
					snapshot = "t.me/x"
				}
				_ = svc.Store(ctx, model.UserBioVerdict{
					UserID:      42,
					HasLink:     hasLink,
					BioSnapshot: snapshot,
					LastChecked: base.Add(time.Duration(i*100+j) * time.Millisecond),
				})
				v, hit, err := svc.Lookup(ctx, 42)
				if err != nil {
					t.Errorf("lookup: %v", err)
					return
				}
				if hit && v.HasLink != (v.BioSnapshot == "t.me/x") {
					t.Errorf("torn verdict: %+v", v)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestRepoErrorsAreWrapped(t *testing.T) {
	boom := errors.New("disk gone")
	svc, err := NewService(&failingRepo{err: boom}, Options{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	if _, _, err := svc.Lookup(ctx, 1); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped lookup error, got %v", err)
	}
	if err := svc.Store(ctx, model.UserBioVerdict{UserID: 1}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
