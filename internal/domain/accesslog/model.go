// Package accesslog records entry and exit attempts at controlled areas.
// Logs are append-only: nothing updates or deletes a stored entry.
package accesslog

import (
	"fmt"
	"time"

	"gymdash/internal/domain/validation"
)

// Action values.
const (
	ActionEntry = "entry"
	ActionExit  = "exit"
)

// Status values.
const (
	StatusGranted = "granted"
	StatusDenied  = "denied"
)

// Rule names recorded when no configured rule decided the outcome.
const (
	RuleExitAlwaysAllowed = "exit-always-allowed"
	RuleMemberNotActive   = "member-not-active"
	RuleNoMatchingRule    = "no-matching-rule"
	RuleDefaultAllow      = "default-allow"
)

// Log is one access attempt.
type Log struct {
	ID          string    `json:"id"`
	MemberID    string    `json:"member_id"`
	Area        string    `json:"area"`
	Action      string    `json:"action"`
	Status      string    `json:"status"`
	RuleApplied string    `json:"rule_applied"`
	Timestamp   time.Time `json:"timestamp"`
}

// Validate checks if the Log has valid data.
// PRE: Log struct is initialized
// POST: Returns validation.Errors if invalid
func (l *Log) Validate() error {
	var errs validation.Errors
	errs.Required("member_id", l.MemberID)
	errs.Required("area", l.Area)
	errs.OneOf("action", l.Action, ActionEntry, ActionExit)
	errs.OneOf("status", l.Status, StatusGranted, StatusDenied)
	if l.Timestamp.IsZero() {
		errs.Add("timestamp", "is required")
	}
	return errs.Err()
}

// Granted reports whether the attempt was allowed.
func (l *Log) Granted() bool {
	return l.Status == StatusGranted
}

// Rule grants entry to one area for members on the listed packages during a
// daily time window. An empty Packages list admits every package; an empty
// window means all day.
type Rule struct {
	Name     string
	Area     string
	Packages []string
	From     string // HH:MM, inclusive
	To       string // HH:MM, exclusive
}

// Validate checks that the rule can be evaluated.
func (r Rule) Validate() error {
	var errs validation.Errors
	errs.Required("name", r.Name)
	errs.Required("area", r.Area)
	if (r.From == "") != (r.To == "") {
		errs.Add("window", "from and to must both be set or both be empty")
	}
	if r.From != "" {
		if _, err := time.Parse("15:04", r.From); err != nil {
			errs.Add("from", "must be HH:MM")
		}
		if _, err := time.Parse("15:04", r.To); err != nil {
			errs.Add("to", "must be HH:MM")
		}
	}
	return errs.Err()
}

func (r Rule) allowsPackage(pkg string) bool {
	if len(r.Packages) == 0 {
		return true
	}
	for _, p := range r.Packages {
		if p == pkg {
			return true
		}
	}
	return false
}

func (r Rule) inWindow(at time.Time) bool {
	if r.From == "" {
		return true
	}
	now := at.Format("15:04")
	if r.From <= r.To {
		return now >= r.From && now < r.To
	}
	// window wraps midnight, e.g. 22:00-06:00
	return now >= r.From || now < r.To
}

// Decision is the outcome of Evaluate.
type Decision struct {
	Status      string
	RuleApplied string
}

// Attempt describes who is trying to pass which door.
type Attempt struct {
	MemberActive  bool
	MemberPackage string
	Area          string
	Action        string
	At            time.Time
}

// Evaluate decides an access attempt.
// POST: exits are always granted; entries by non-active members are denied;
// otherwise the first rule for the area that admits the package and time
// grants entry. Areas without any rule are open to active members.
func Evaluate(a Attempt, rules []Rule) Decision {
	if a.Action == ActionExit {
		return Decision{Status: StatusGranted, RuleApplied: RuleExitAlwaysAllowed}
	}
	if !a.MemberActive {
		return Decision{Status: StatusDenied, RuleApplied: RuleMemberNotActive}
	}
	areaHasRules := false
	for _, r := range rules {
		if r.Area != a.Area {
			continue
		}
		areaHasRules = true
		if r.allowsPackage(a.MemberPackage) && r.inWindow(a.At) {
			return Decision{Status: StatusGranted, RuleApplied: r.Name}
		}
	}
	if areaHasRules {
		return Decision{Status: StatusDenied, RuleApplied: RuleNoMatchingRule}
	}
	return Decision{Status: StatusGranted, RuleApplied: RuleDefaultAllow}
}

// String formats a decision for logs.
func (d Decision) String() string {
	return fmt.Sprintf("%s (%s)", d.Status, d.RuleApplied)
}

// SearchFields returns the indexed fields used by the list filter.
func SearchFields() []func(Log) string {
	return []func(Log) string{
		func(l Log) string { return l.MemberID },
		func(l Log) string { return l.Area },
		func(l Log) string { return l.RuleApplied },
	}
}
