package handlers

import (
	"net/http"

	"bioguard/internal/transport/http/dto"
)

type LaneCounter interface {
	Lanes() int
}

// VerdictCounter reports how many verdicts are held in memory.
type VerdictCounter interface {
	Len() int
}

type HealthHandler struct {
	lanes    LaneCounter
	verdicts VerdictCounter
}

func NewHealthHandler(lanes LaneCounter, verdicts VerdictCounter) *HealthHandler {
	return &HealthHandler{lanes: lanes, verdicts: verdicts}
}

func (h *HealthHandler) Get(w http.ResponseWriter, _ *http.Request) {
	resp := dto.HealthResponse{Status: "ok"}
	if h.lanes != nil {
		resp.Lanes = h.lanes.Lanes()
	}
	if h.verdicts != nil {
		resp.CachedVerdicts = h.verdicts.Len()
	}
	Write(w, http.StatusOK, resp)
}
