package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(health *HealthHandler, reports *ReportHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", health.Get)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/chats", reports.Chats)
	r.Get("/deletions", reports.Deletions)
	r.Get("/verdicts/{userID}", reports.Verdict)
	return r
}
