package orchestrators

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gymdash/internal/config"
	"gymdash/internal/domain/accesslog"
	"gymdash/internal/domain/validation"
	"gymdash/internal/logger"
	"gymdash/internal/metrics"
)

// AccessLogStore appends access decisions.
type AccessLogStore interface {
	Append(ctx context.Context, l accesslog.Log) error
}

// AccessAttemptInput carries one door or turnstile event.
type AccessAttemptInput struct {
	MemberID string `json:"member_id"`
	Area     string `json:"area"`
	Action   string `json:"action"` // entry or exit
}

// AccessAttemptDeps holds dependencies for AccessAttempt.
type AccessAttemptDeps struct {
	MemberStore    CheckInMemberStore
	AccessLogStore AccessLogStore
	Rules          []accesslog.Rule
	Logger         *zap.Logger
	Now            func() time.Time
}

// ExecuteAccessAttempt evaluates an entry or exit against the access rules
// and records the decision.
// PRE: MemberID names an existing member
// POST: exactly one AccessLog appended, granted or denied
func ExecuteAccessAttempt(ctx context.Context, input AccessAttemptInput, deps AccessAttemptDeps) (l accesslog.Log, err error) {
	defer func() { metrics.Event("access_attempt", err) }()

	var errs validation.Errors
	errs.Required("member_id", input.MemberID)
	errs.Required("area", input.Area)
	errs.OneOf("action", input.Action, accesslog.ActionEntry, accesslog.ActionExit)
	if err := errs.Err(); err != nil {
		return accesslog.Log{}, err
	}

	m, err := deps.MemberStore.GetByID(ctx, input.MemberID)
	if err != nil {
		return accesslog.Log{}, err
	}

	now := nowFrom(deps.Now)
	decision := accesslog.Evaluate(accesslog.Attempt{
		MemberActive:  m.IsActive(),
		MemberPackage: m.Package,
		Area:          input.Area,
		Action:        input.Action,
		At:            now,
	}, deps.Rules)

	l = accesslog.Log{
		ID:          generateID(),
		MemberID:    m.ID,
		Area:        input.Area,
		Action:      input.Action,
		Status:      decision.Status,
		RuleApplied: decision.RuleApplied,
		Timestamp:   now,
	}
	if err := deps.AccessLogStore.Append(ctx, l); err != nil {
		return accesslog.Log{}, err
	}

	logger.OrNop(deps.Logger).Info("access_event",
		zap.String("member_id", m.ID),
		zap.String("area", l.Area),
		zap.String("action", l.Action),
		zap.String("status", l.Status),
		zap.String("rule", l.RuleApplied),
	)
	return l, nil
}

// RulesFromConfig converts and validates the configured access rules.
func RulesFromConfig(cfg config.AccessConfig) ([]accesslog.Rule, error) {
	rules := make([]accesslog.Rule, 0, len(cfg.Rules))
	for i, rc := range cfg.Rules {
		r := accesslog.Rule{Name: rc.Name, Area: rc.Area, Packages: rc.Packages, From: rc.From, To: rc.To}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("access rule %d (%s): %w", i, rc.Name, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}
