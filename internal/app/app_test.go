package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bioguard/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenStoresFallsBackToMemory(t *testing.T) {
	st := openStores(context.Background(), config.StorageConfig{
		Driver:     config.StorageSQLite,
		SQLitePath: "/dev/null/nested/bio_links.db",
	}, quietLogger())

	if st.driver != config.StorageMemory || st.db != nil {
		t.Fatalf("expected in-memory fallback, got driver=%s", st.driver)
	}
	if st.chats == nil || st.verdicts == nil || st.deletions == nil {
		t.Fatal("fallback stores must be set")
	}
}

func TestOpenStoresSQLite(t *testing.T) {
	st := openStores(context.Background(), config.StorageConfig{
		Driver:     config.StorageSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "user_data", "bio_links.db"),
	}, quietLogger())
	defer func() { _ = st.db.Close() }()

	if st.driver != config.StorageSQLite || st.db == nil {
		t.Fatalf("expected sqlite storage, got %s", st.driver)
	}
}

func TestAppRunsInDryModeAndStops(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = config.StorageMemory
	cfg.ShutdownGrace = time.Second

	application, err := New(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	// Dry mode has no admin rights to check, so the command is refused but
	// still answered.
	application.routeUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: 7},
		Chat:      &tgbotapi.Chat{ID: -100, Type: "supergroup"},
		Text:      "/enable",
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 7}},
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after context cancellation")
	}
	if application.scheduler.Lanes() != 0 {
		t.Fatal("expected scheduler drained")
	}
}

func TestHealthReportsCachedVerdicts(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = config.StorageMemory
	cfg.HTTP.Addr = "127.0.0.1:0"

	application, err := New(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if application.server == nil {
		t.Fatal("expected admin http server")
	}

	rr := httptest.NewRecorder()
	application.server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if got, ok := body["cached_verdicts"].(float64); !ok || got != 0 {
		t.Fatalf("expected cached_verdicts 0, got %v", body["cached_verdicts"])
	}
}
