// Package moderation decides, per message, whether the author's bio carries a
// link and removes the message when the chat asked for it.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"bioguard/internal/domain/enums"
	"bioguard/internal/domain/model"
	"bioguard/internal/ui"
)

const (
	defaultMaxInFlight      = 16
	defaultNotifyCooldown   = time.Hour
	defaultMaxRateLimitWait = time.Minute
	minRateLimitWait        = time.Second
)

var (
	errProfileLookup = errors.New("profile lookup failed")
	errVerdictStore  = errors.New("verdict store failed")
)

// Platform is the chat platform as seen by the engine.
type Platform interface {
	GetAdminStatus(ctx context.Context, chatID, userID int64) (enums.AdminStatus, error)
	GetUserProfile(ctx context.Context, userID int64) (model.UserProfile, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	NotifyChat(ctx context.Context, chatID int64, text string) error
}

type Registry interface {
	IsEnabled(context.Context, int64) (bool, error)
	Enable(context.Context, int64, int64) (bool, error)
	Disable(context.Context, int64, int64) (bool, error)
}

type VerdictCache interface {
	Lookup(context.Context, int64) (model.UserBioVerdict, bool, error)
	Store(context.Context, model.UserBioVerdict) error
}

type AuditLog interface {
	RecordDeletion(ctx context.Context, userID, chatID int64, at time.Time) error
	CountByChat(context.Context, int64) (int64, error)
}

type CooldownStore interface {
	TryAcquire(ctx context.Context, chatID int64, window time.Duration) (bool, error)
}

type Classifier interface {
	Match(text string) (enums.LinkKind, string, bool)
}

// resolution is a verdict plus, when the bio was classified by this call,
// the kind and text of the link found. A cached verdict carries no kind.
type resolution struct {
	verdict model.UserBioVerdict
	cached  bool
	kind    enums.LinkKind
	token   string
}

type Deps struct {
	Registry   Registry
	Cache      VerdictCache
	Audit      AuditLog
	Platform   Platform
	Cooldown   CooldownStore
	Classifier Classifier
}

type Options struct {
	MaxInFlight      int64
	NotifyCooldown   time.Duration
	MaxRateLimitWait time.Duration
	Logger           *slog.Logger
}

type Engine struct {
	registry   Registry
	cache      VerdictCache
	audit      AuditLog
	platform   Platform
	cooldown   CooldownStore
	classifier Classifier

	notifyCooldown   time.Duration
	maxRateLimitWait time.Duration
	logger           *slog.Logger

	inflight *semaphore.Weighted
	profiles singleflight.Group
	// chat id -> instant before which no delete is sent to that chat
	gates *xsync.Map[int64, time.Time]

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func NewEngine(deps Deps, opts Options) *Engine {
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = defaultMaxInFlight
	}
	if opts.NotifyCooldown <= 0 {
		opts.NotifyCooldown = defaultNotifyCooldown
	}
	if opts.MaxRateLimitWait <= 0 {
		opts.MaxRateLimitWait = defaultMaxRateLimitWait
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Engine{
		registry:         deps.Registry,
		cache:            deps.Cache,
		audit:            deps.Audit,
		platform:         deps.Platform,
		cooldown:         deps.Cooldown,
		classifier:       deps.Classifier,
		notifyCooldown:   opts.NotifyCooldown,
		maxRateLimitWait: opts.MaxRateLimitWait,
		logger:           opts.Logger,
		inflight:         semaphore.NewWeighted(opts.MaxInFlight),
		gates:            xsync.NewMap[int64, time.Time](),
		now:              time.Now,
		sleep:            sleepContext,
	}
}

// HandleMessage runs the moderation pipeline for one message. It never
// returns an error: every failure ends in a Decision with a safe default.
func (e *Engine) HandleMessage(ctx context.Context, ev model.MessageEvent) model.Evaluation {
	start := e.now()
	res := model.Evaluation{
		ChatID:    ev.ChatID,
		MessageID: ev.MessageID,
		UserID:    ev.AuthorUserID,
	}

	enabled, err := e.registry.IsEnabled(ctx, ev.ChatID)
	if err != nil {
		res.Decision, res.Err = enums.DecisionStorageError, err
		return e.finish(res, start)
	}
	if !enabled {
		res.Decision = enums.DecisionIgnoredDisabled
		return e.finish(res, start)
	}
	if ev.IsServiceEvent || ev.AuthorUserID == 0 {
		res.Decision = enums.DecisionIgnoredNoAuthor
		return e.finish(res, start)
	}

	check := e.checkAdmin(ctx, ev.ChatID, ev.AuthorUserID)
	if check.Err != nil {
		e.logger.Warn("admin check failed, moderating as member",
			"chat_id", ev.ChatID,
			"user_id", ev.AuthorUserID,
			"error", check.Err,
		)
	}
	if check.IsPrivileged() {
		res.Decision = enums.DecisionExemptAdmin
		return e.finish(res, start)
	}

	resolved, err := e.resolveVerdict(ctx, ev.AuthorUserID, ev.AuthorUsername)
	res.CacheHit = resolved.cached
	switch {
	case errors.Is(err, errProfileLookup):
		res.Decision, res.Err = enums.DecisionLookupFailed, err
		return e.finish(res, start)
	case err != nil:
		res.Decision, res.Err = enums.DecisionStorageError, err
		return e.finish(res, start)
	}
	if !resolved.verdict.HasLink {
		res.Decision = enums.DecisionClean
		return e.finish(res, start)
	}
	res.LinkKind, res.LinkToken = resolved.kind, resolved.token

	err = e.deleteMessage(ctx, ev.ChatID, ev.MessageID)
	switch {
	case err == nil:
		res.Decision = enums.DecisionDeleted
		if aerr := e.audit.RecordDeletion(ctx, ev.AuthorUserID, ev.ChatID, e.now()); aerr != nil {
			res.Err = aerr
		}
	case errors.Is(err, model.ErrPermissionDenied):
		res.Decision, res.Err = enums.DecisionPermissionDenied, err
		res.Notified = e.notifyMissingRight(ctx, ev.ChatID)
	case isRateLimited(err):
		res.Decision, res.Err = enums.DecisionRateLimited, err
	default:
		res.Decision, res.Err = enums.DecisionDeleteFailed, err
	}
	return e.finish(res, start)
}

// HandleCommand applies a chat command. Only owners and administrators may
// change or read the chat state; an admin check that errors denies the
// command.
func (e *Engine) HandleCommand(ctx context.Context, ev model.CommandEvent) model.CommandResult {
	res := model.CommandResult{ChatID: ev.ChatID}

	switch ev.Command {
	case enums.CommandUnknown:
		res.Outcome = enums.CommandOutcomeIgnored
		return e.finishCommand(res, ev)
	case enums.CommandHelp:
		res.Outcome, res.Reply = enums.CommandOutcomeHelp, ui.HelpMessage()
		return e.finishCommand(res, ev)
	}

	if !ev.IsGroup {
		res.Outcome, res.Reply = enums.CommandOutcomeGroupOnly, ui.GroupOnlyMessage()
		return e.finishCommand(res, ev)
	}

	check := e.checkAdmin(ctx, ev.ChatID, ev.IssuerUserID)
	if !check.IsPrivileged() {
		res.Outcome, res.Reply, res.Err = enums.CommandOutcomeUnauthorized, ui.UnauthorizedMessage(), check.Err
		return e.finishCommand(res, ev)
	}

	switch ev.Command {
	case enums.CommandEnable:
		changed, err := e.registry.Enable(ctx, ev.ChatID, ev.IssuerUserID)
		switch {
		case err != nil:
			res.Outcome, res.Reply, res.Err = enums.CommandOutcomeFailed, ui.CommandFailedMessage(), err
		case changed:
			res.Outcome, res.Reply = enums.CommandOutcomeEnabled, ui.EnabledMessage()
		default:
			res.Outcome, res.Reply = enums.CommandOutcomeAlreadyEnabled, ui.AlreadyEnabledMessage()
		}
	case enums.CommandDisable:
		changed, err := e.registry.Disable(ctx, ev.ChatID, ev.IssuerUserID)
		switch {
		case err != nil:
			res.Outcome, res.Reply, res.Err = enums.CommandOutcomeFailed, ui.CommandFailedMessage(), err
		case changed:
			res.Outcome, res.Reply = enums.CommandOutcomeDisabled, ui.DisabledMessage()
		default:
			res.Outcome, res.Reply = enums.CommandOutcomeAlreadyDisabled, ui.AlreadyDisabledMessage()
		}
	case enums.CommandStatus:
		enabled, err := e.registry.IsEnabled(ctx, ev.ChatID)
		if err != nil {
			res.Outcome, res.Reply, res.Err = enums.CommandOutcomeFailed, ui.CommandFailedMessage(), err
			break
		}
		count, err := e.audit.CountByChat(ctx, ev.ChatID)
		if err != nil {
			e.logger.Warn("count deletions failed", "chat_id", ev.ChatID, "error", err)
		}
		res.Outcome, res.Reply = enums.CommandOutcomeStatus, ui.StatusMessage(enabled, count)
	}
	return e.finishCommand(res, ev)
}

func (e *Engine) checkAdmin(ctx context.Context, chatID, userID int64) model.AdminCheck {
	var status enums.AdminStatus
	err := e.call(ctx, func(ctx context.Context) error {
		var err error
		status, err = e.platform.GetAdminStatus(ctx, chatID, userID)
		return err
	})
	if err != nil {
		adminCheckErrors.Inc()
		return model.AdminCheck{Status: enums.AdminStatusUnknown, Err: err}
	}
	return model.AdminCheck{Status: status}
}

func (e *Engine) resolveVerdict(ctx context.Context, userID int64, username string) (resolution, error) {
	verdict, hit, err := e.cache.Lookup(ctx, userID)
	if err != nil {
		return resolution{}, err
	}
	if hit {
		verdictCacheLookups.WithLabelValues("hit").Inc()
		return resolution{verdict: verdict, cached: true}, nil
	}
	verdictCacheLookups.WithLabelValues("miss").Inc()

	// Concurrent misses for one user share a single profile read.
	v, err, _ := e.profiles.Do(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		return e.classifyUser(ctx, userID, username)
	})
	resolved, _ := v.(resolution)
	return resolved, err
}

func (e *Engine) classifyUser(ctx context.Context, userID int64, username string) (resolution, error) {
	// A flight that finished just before this one started has already
	// stored the verdict.
	verdict, hit, err := e.cache.Lookup(ctx, userID)
	if err != nil {
		return resolution{}, err
	}
	if hit {
		return resolution{verdict: verdict, cached: true}, nil
	}

	var profile model.UserProfile
	profileFetches.Inc()
	err = e.call(ctx, func(ctx context.Context) error {
		var err error
		profile, err = e.platform.GetUserProfile(ctx, userID)
		return err
	})
	if err != nil {
		profileFetchErrors.Inc()
		return resolution{}, fmt.Errorf("%w: %w", errProfileLookup, err)
	}

	if profile.Username == "" {
		profile.Username = username
	}
	kind, token, hasLink := e.classifier.Match(profile.BioText)
	resolved := resolution{
		verdict: model.UserBioVerdict{
			UserID:      userID,
			Username:    profile.Username,
			HasLink:     hasLink,
			BioSnapshot: profile.BioText,
			LastChecked: e.now().UTC(),
		},
		kind:  kind,
		token: token,
	}
	if err := e.cache.Store(ctx, resolved.verdict); err != nil {
		return resolved, fmt.Errorf("%w: %w", errVerdictStore, err)
	}
	return resolved, nil
}

// deleteMessage sends the delete, honouring the chat's rate-limit gate. A
// rate-limited call is retried once after the advised wait; a second limit
// is returned to the caller.
func (e *Engine) deleteMessage(ctx context.Context, chatID int64, messageID int) error {
	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		if werr := e.waitGate(ctx, chatID); werr != nil {
			return werr
		}

		err = e.call(ctx, func(ctx context.Context) error {
			return e.platform.DeleteMessage(ctx, chatID, messageID)
		})
		advised, limited := model.RetryAfter(err)
		if !limited {
			deleteAttempts.WithLabelValues(deleteResult(err)).Inc()
			return err
		}
		deleteAttempts.WithLabelValues("rate_limited").Inc()

		wait := e.clampWait(advised)
		e.pause(chatID, wait)
		rateLimitWaits.Inc()
		e.logger.Warn("delete rate limited",
			"chat_id", chatID,
			"message_id", messageID,
			"attempt", attempt,
			"retry_after", wait,
		)
	}
	return err
}

func (e *Engine) waitGate(ctx context.Context, chatID int64) error {
	until, ok := e.gates.Load(chatID)
	if !ok {
		return nil
	}
	wait := until.Sub(e.now())
	if wait <= 0 {
		e.gates.Compute(chatID, func(old time.Time, loaded bool) (time.Time, xsync.ComputeOp) {
			if loaded && old.Equal(until) {
				return old, xsync.DeleteOp
			}
			return old, xsync.CancelOp
		})
		return nil
	}
	return e.sleep(ctx, wait)
}

func (e *Engine) pause(chatID int64, wait time.Duration) {
	until := e.now().Add(wait)
	e.gates.Compute(chatID, func(old time.Time, loaded bool) (time.Time, xsync.ComputeOp) {
		if loaded && old.After(until) {
			return old, xsync.CancelOp
		}
		return until, xsync.UpdateOp
	})
}

func (e *Engine) clampWait(advised time.Duration) time.Duration {
	if advised < minRateLimitWait {
		advised = minRateLimitWait
	}
	if advised > e.maxRateLimitWait {
		advised = e.maxRateLimitWait
	}
	return advised
}

func (e *Engine) notifyMissingRight(ctx context.Context, chatID int64) bool {
	if e.cooldown == nil {
		return false
	}

	ok, err := e.cooldown.TryAcquire(ctx, chatID, e.notifyCooldown)
	if err != nil {
		e.logger.Warn("notify cooldown unavailable", "chat_id", chatID, "error", err)
		return false
	}
	if !ok {
		return false
	}

	err = e.call(ctx, func(ctx context.Context) error {
		return e.platform.NotifyChat(ctx, chatID, ui.MissingDeleteRightMessage())
	})
	if err != nil {
		e.logger.Warn("notify chat failed", "chat_id", chatID, "error", err)
		return false
	}
	notificationsSent.Inc()
	return true
}

// call bounds the number of platform requests in flight.
func (e *Engine) call(ctx context.Context, fn func(context.Context) error) error {
	if err := e.inflight.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.inflight.Release(1)
	return fn(ctx)
}

func (e *Engine) finish(res model.Evaluation, start time.Time) model.Evaluation {
	res.Duration = e.now().Sub(start)
	decision := string(res.Decision)
	messageEvalCount.WithLabelValues(decision).Inc()
	messageEvalDuration.WithLabelValues(decision).Observe(res.Duration.Seconds())

	attrs := []any{
		"chat_id", res.ChatID,
		"message_id", res.MessageID,
		"user_id", res.UserID,
		"decision", decision,
		"cache_hit", res.CacheHit,
	}
	switch res.Decision {
	case enums.DecisionDeleted:
		if res.LinkKind != enums.LinkKindNone {
			attrs = append(attrs, "link_kind", string(res.LinkKind), "link_token", res.LinkToken)
		}
		if res.Err != nil {
			e.logger.Error("message deleted, audit append failed", append(attrs, "error", res.Err)...)
			break
		}
		e.logger.Info("message deleted", attrs...)
	case enums.DecisionStorageError, enums.DecisionRateLimited, enums.DecisionDeleteFailed:
		e.logger.Error("message left unmoderated", append(attrs, "error", res.Err)...)
	case enums.DecisionLookupFailed, enums.DecisionPermissionDenied:
		e.logger.Warn("message left unmoderated", append(attrs, "error", res.Err, "notified", res.Notified)...)
	default:
		e.logger.Debug("message evaluated", attrs...)
	}
	return res
}

func (e *Engine) finishCommand(res model.CommandResult, ev model.CommandEvent) model.CommandResult {
	commandCount.WithLabelValues(string(res.Outcome)).Inc()

	attrs := []any{
		"chat_id", ev.ChatID,
		"issuer_id", ev.IssuerUserID,
		"command", string(ev.Command),
		"outcome", string(res.Outcome),
	}
	if res.Err != nil {
		e.logger.Warn("command not applied", append(attrs, "error", res.Err)...)
		return res
	}
	if res.Outcome == enums.CommandOutcomeIgnored {
		e.logger.Debug("command ignored", attrs...)
		return res
	}
	e.logger.Info("command handled", attrs...)
	return res
}

func isRateLimited(err error) bool {
	_, ok := model.RetryAfter(err)
	return ok
}

func deleteResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrPermissionDenied):
		return "permission_denied"
	default:
		return "error"
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
