package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bioguard/internal/domain/model"
	"bioguard/internal/transport/http/dto"
)

const maxDeletionsLimit = 500

type ChatLister interface {
	ListEnabled(context.Context) ([]int64, error)
}

type DeletionLister interface {
	ListRecent(context.Context, int) ([]model.DeletionAuditRecord, error)
}

type VerdictReader interface {
	Lookup(context.Context, int64) (model.UserBioVerdict, bool, error)
}

// ReportHandler serves read-only views over chat state, deletions and cached
// verdicts.
type ReportHandler struct {
	chats     ChatLister
	deletions DeletionLister
	verdicts  VerdictReader
	log       *slog.Logger
}

func NewReportHandler(chats ChatLister, deletions DeletionLister, verdicts VerdictReader, log *slog.Logger) *ReportHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ReportHandler{chats: chats, deletions: deletions, verdicts: verdicts, log: log}
}

func (h *ReportHandler) Chats(w http.ResponseWriter, r *http.Request) {
	ids, err := h.chats.ListEnabled(r.Context())
	if err != nil {
		h.log.Error("list enabled chats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "STORAGE_ERROR", "could not list chats")
		return
	}
	Write(w, http.StatusOK, dto.ChatsResponse{Enabled: ids})
}

func (h *ReportHandler) Deletions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer")
			return
		}
		limit = min(n, maxDeletionsLimit)
	}

	records, err := h.deletions.ListRecent(r.Context(), limit)
	if err != nil {
		h.log.Error("list deletions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "STORAGE_ERROR", "could not list deletions")
		return
	}

	items := make([]dto.DeletionResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, dto.DeletionResponse{
			ID:        rec.ID,
			UserID:    rec.UserID,
			ChatID:    rec.ChatID,
			CreatedAt: rec.CreatedAt,
		})
	}
	Write(w, http.StatusOK, dto.DeletionsResponse{Items: items})
}

func (h *ReportHandler) Verdict(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "userID must be an integer")
		return
	}

	v, ok, err := h.verdicts.Lookup(r.Context(), userID)
	if err != nil {
		h.log.Error("lookup verdict failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "STORAGE_ERROR", "could not read verdict")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no verdict for user")
		return
	}

	Write(w, http.StatusOK, dto.VerdictResponse{
		UserID:      v.UserID,
		Username:    v.Username,
		HasLink:     v.HasLink,
		BioSnapshot: v.BioSnapshot,
		LastChecked: v.LastChecked,
	})
}
