package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"bioguard/internal/domain/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestChatStateRepoEnableDisable(t *testing.T) {
	repo := NewChatStateRepo(setupTestDB(t))
	ctx := context.Background()
	now := time.Date(2026, time.April, 2, 9, 30, 0, 0, time.UTC)

	if _, ok, err := repo.Get(ctx, -1001); err != nil || ok {
		t.Fatalf("expected unknown chat, ok=%v err=%v", ok, err)
	}

	changed, err := repo.SetEnabled(ctx, model.ChatModerationState{ChatID: -1001, Enabled: false, UpdatedByTGID: 5, UpdatedAt: now})
	if err != nil || changed {
		t.Fatalf("disable unknown chat: changed=%v err=%v", changed, err)
	}

	changed, err = repo.SetEnabled(ctx, model.ChatModerationState{ChatID: -1001, Enabled: true, UpdatedByTGID: 5, UpdatedAt: now})
	if err != nil || !changed {
		t.Fatalf("enable: changed=%v err=%v", changed, err)
	}
	changed, err = repo.SetEnabled(ctx, model.ChatModerationState{ChatID: -1001, Enabled: true, UpdatedByTGID: 6, UpdatedAt: now.Add(time.Minute)})
	if err != nil || changed {
		t.Fatalf("second enable: changed=%v err=%v", changed, err)
	}

	state, ok, err := repo.Get(ctx, -1001)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if !state.Enabled || state.UpdatedByTGID != 5 || !state.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected state after no-op enable: %+v", state)
	}

	enabled, err := repo.ListEnabled(ctx)
	if err != nil || len(enabled) != 1 || enabled[0] != -1001 {
		t.Fatalf("list enabled: %v err=%v", enabled, err)
	}

	changed, err = repo.SetEnabled(ctx, model.ChatModerationState{ChatID: -1001, Enabled: false, UpdatedByTGID: 7, UpdatedAt: now.Add(2 * time.Minute)})
	if err != nil || !changed {
		t.Fatalf("disable: changed=%v err=%v", changed, err)
	}
	state, ok, _ = repo.Get(ctx, -1001)
	if !ok || state.Enabled {
		t.Fatalf("expected row kept with enabled=false, got ok=%v state=%+v", ok, state)
	}
}

func TestVerdictRepoUpsertIsMonotonic(t *testing.T) {
	repo := NewVerdictRepo(setupTestDB(t))
	ctx := context.Background()
	checked := time.Date(2026, time.April, 2, 9, 30, 0, 500, time.UTC)

	err := repo.UpsertVerdict(ctx, model.UserBioVerdict{
		UserID:      42,
		Username:    "spammer",
		HasLink:     true,
		BioSnapshot: "visit t.me/spam",
		LastChecked: checked,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	err = repo.UpsertVerdict(ctx, model.UserBioVerdict{UserID: 42, HasLink: false, LastChecked: checked.Add(-time.Second)})
	if err != nil {
		t.Fatalf("stale upsert: %v", err)
	}

	verdict, ok, err := repo.GetVerdict(ctx, 42)
	if err != nil || !ok {
		t.Fatalf("get verdict: ok=%v err=%v", ok, err)
	}
	if !verdict.HasLink || verdict.Username != "spammer" || verdict.BioSnapshot != "visit t.me/spam" {
		t.Fatalf("stale write overwrote verdict: %+v", verdict)
	}
	if !verdict.LastChecked.Equal(checked) {
		t.Fatalf("expected last_checked %s, got %s", checked, verdict.LastChecked)
	}

	err = repo.UpsertVerdict(ctx, model.UserBioVerdict{UserID: 42, HasLink: false, BioSnapshot: "clean now", LastChecked: checked.Add(time.Hour)})
	if err != nil {
		t.Fatalf("newer upsert: %v", err)
	}
	verdict, _, _ = repo.GetVerdict(ctx, 42)
	if verdict.HasLink || verdict.BioSnapshot != "clean now" {
		t.Fatalf("expected newer verdict, got %+v", verdict)
	}
}

func TestDeletionRepoAppendAndList(t *testing.T) {
	repo := NewDeletionRepo(setupTestDB(t))
	ctx := context.Background()
	at := time.Date(2026, time.April, 2, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		record := model.DeletionAuditRecord{UserID: int64(100 + i), ChatID: -5, CreatedAt: at.Add(time.Duration(i) * time.Second)}
		if err := repo.Save(ctx, record); err != nil {
			t.Fatalf("save #%d: %v", i, err)
		}
	}

	recent, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 2 || recent[0].UserID != 102 || recent[1].UserID != 101 {
		t.Fatalf("unexpected recent deletions: %+v", recent)
	}
	if !recent[0].CreatedAt.Equal(at.Add(2 * time.Second)) {
		t.Fatalf("unexpected created_at: %s", recent[0].CreatedAt)
	}

	count, err := repo.CountByChat(ctx, -5)
	if err != nil || count != 3 {
		t.Fatalf("count by chat: %d err=%v", count, err)
	}
}

func TestOpenCreatesDatabaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data", "bio_links.db")
	db, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	repo := NewChatStateRepo(db)
	if _, err := repo.SetEnabled(context.Background(), model.ChatModerationState{ChatID: 1, Enabled: true}); err != nil {
		t.Fatalf("write after open: %v", err)
	}
}
