package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messageEvalDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "bioguard_message_eval_duration_sec",
	Help:    "Duration of per-message moderation evaluation",
	Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
}, []string{"decision"})

var messageEvalCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bioguard_messages_evaluated",
	Help: "Number of messages evaluated, by decision",
}, []string{"decision"})

var commandCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bioguard_commands_handled",
	Help: "Number of chat commands handled, by outcome",
}, []string{"outcome"})

var verdictCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bioguard_verdict_cache_lookups",
	Help: "Verdict cache lookups, by result",
}, []string{"result"})

var profileFetches = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bioguard_profile_fetches",
	Help: "Number of user profile reads (API calls)",
})

var profileFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bioguard_profile_fetch_errors",
	Help: "Number of failed user profile reads",
})

var adminCheckErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bioguard_admin_check_errors",
	Help: "Number of failed admin status checks",
})

var deleteAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bioguard_delete_attempts",
	Help: "Message delete calls, by result",
}, []string{"result"})

var rateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bioguard_rate_limit_waits",
	Help: "Number of times a chat was paused after a rate limit",
})

var notificationsSent = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bioguard_permission_notifications",
	Help: "Number of missing-permission notices posted to chats",
})
