package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bioguard/internal/domain/model"
	"bioguard/internal/transport/http/dto"
)

type stubChats struct {
	ids []int64
	err error
}

func (s stubChats) ListEnabled(_ context.Context) ([]int64, error) {
	return s.ids, s.err
}

type stubDeletions struct {
	records   []model.DeletionAuditRecord
	lastLimit int
}

func (s *stubDeletions) ListRecent(_ context.Context, limit int) ([]model.DeletionAuditRecord, error) {
	s.lastLimit = limit
	return s.records, nil
}

type stubVerdicts map[int64]model.UserBioVerdict

func (s stubVerdicts) Lookup(_ context.Context, userID int64) (model.UserBioVerdict, bool, error) {
	v, ok := s[userID]
	return v, ok, nil
}

type stubLanes int

func (s stubLanes) Lanes() int { return int(s) }

type stubCount int

func (s stubCount) Len() int { return int(s) }

func newTestRouter(chats stubChats, deletions *stubDeletions, verdicts stubVerdicts) http.Handler {
	return NewRouter(NewHealthHandler(stubLanes(2), stubCount(7)), NewReportHandler(chats, deletions, verdicts, nil))
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(stubChats{}, &stubDeletions{}, stubVerdicts{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var resp dto.HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Lanes != 2 || resp.CachedVerdicts != 7 {
		t.Fatalf("unexpected health response: %+v", resp)
	}
}

func TestChatsEndpoint(t *testing.T) {
	router := newTestRouter(stubChats{ids: []int64{-2, -1}}, &stubDeletions{}, stubVerdicts{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/chats", nil))

	var resp dto.ChatsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Enabled) != 2 || resp.Enabled[0] != -2 {
		t.Fatalf("unexpected chats: %+v", resp)
	}

	failing := newTestRouter(stubChats{err: errors.New("db down")}, &stubDeletions{}, stubVerdicts{})
	rr = httptest.NewRecorder()
	failing.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/chats", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on storage error, got %d", rr.Code)
	}
}

func TestDeletionsEndpointLimit(t *testing.T) {
	deletions := &stubDeletions{records: []model.DeletionAuditRecord{
		{ID: 2, UserID: 5, ChatID: -1, CreatedAt: time.Now().UTC()},
	}}
	router := newTestRouter(stubChats{}, deletions, stubVerdicts{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/deletions?limit=10000", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	if deletions.lastLimit != maxDeletionsLimit {
		t.Fatalf("expected limit capped to %d, got %d", maxDeletionsLimit, deletions.lastLimit)
	}

	var resp dto.DeletionsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].UserID != 5 {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/deletions?limit=abc", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rr.Code)
	}
}

func TestVerdictEndpoint(t *testing.T) {
	router := newTestRouter(stubChats{}, &stubDeletions{}, stubVerdicts{
		5: {UserID: 5, HasLink: true, BioSnapshot: "t.me/spam"},
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/verdicts/5", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	var resp dto.VerdictResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.HasLink || resp.BioSnapshot != "t.me/spam" {
		t.Fatalf("unexpected verdict: %+v", resp)
	}

	for path, want := range map[string]int{
		"/verdicts/6":   http.StatusNotFound,
		"/verdicts/abc": http.StatusBadRequest,
	} {
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != want {
			t.Fatalf("%s: expected %d, got %d", path, want, rr.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(stubChats{}, &stubDeletions{}, stubVerdicts{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
}
