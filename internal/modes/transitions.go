package modes

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/quentin-h/embra/internal/config"
)

// SwitchFunc performs the actual mode switch when a rule fires.
type SwitchFunc func(toMode string, rule config.TransitionRule) error

// Engine evaluates the configured transition rules against inputs, context
// snapshots, and the clock. It never switches modes itself; firing rules
// are handed to the SwitchFunc.
type Engine struct {
	rules []config.TransitionRule
	fire  SwitchFunc

	cron *cron.Cron

	mu        sync.Mutex
	lastFired map[int]time.Time
	current   func() string
}

// NewEngine builds an engine over the rules. current reports the active
// mode at evaluation time.
func NewEngine(rules []config.TransitionRule, current func() string, fn SwitchFunc) *Engine {
	return &Engine{
		rules:     rules,
		fire:      fn,
		current:   current,
		lastFired: make(map[int]time.Time),
	}
}

// Start schedules the time-based rules. Rules without a cron spec are
// evaluated on demand via ObserveInput / ObserveContext.
func (e *Engine) Start() error {
	var timed []int
	for i, r := range e.rules {
		if r.Type == config.TransitionTimeBased && r.CronSpec != "" {
			timed = append(timed, i)
		}
	}
	if len(timed) == 0 {
		return nil
	}

	e.cron = cron.New()
	for _, i := range timed {
		rule := e.rules[i]
		idx := i
		if _, err := e.cron.AddFunc(rule.CronSpec, func() {
			e.tryFire(idx, rule)
		}); err != nil {
			return fmt.Errorf("schedule transition to %q: %w", rule.ToMode, err)
		}
	}
	e.cron.Start()
	return nil
}

// Stop halts the cron scheduler.
func (e *Engine) Stop() {
	if e.cron != nil {
		ctx := e.cron.Stop()
		<-ctx.Done()
		e.cron = nil
	}
}

// ObserveInput checks input-triggered rules against a fused input string.
// The highest-priority matching rule fires.
func (e *Engine) ObserveInput(text string) {
	if text == "" {
		return
	}
	lower := strings.ToLower(text)

	best := -1
	for i, r := range e.rules {
		if r.Type != config.TransitionInputTriggered {
			continue
		}
		if !e.applies(r) {
			continue
		}
		if !keywordMatch(lower, r.TriggerKeywords) {
			continue
		}
		if best < 0 || r.Priority > e.rules[best].Priority {
			best = i
		}
	}
	if best >= 0 {
		e.tryFire(best, e.rules[best])
	}
}

// ObserveContext checks context-aware rules against a context snapshot.
// Every condition key must be present and equal in the snapshot.
func (e *Engine) ObserveContext(snapshot map[string]any) {
	best := -1
	for i, r := range e.rules {
		if r.Type != config.TransitionContextAware {
			continue
		}
		if !e.applies(r) {
			continue
		}
		if !conditionsMet(snapshot, r.ContextConditions) {
			continue
		}
		if best < 0 || r.Priority > e.rules[best].Priority {
			best = i
		}
	}
	if best >= 0 {
		e.tryFire(best, e.rules[best])
	}
}

// applies reports whether the rule's from_mode matches the active mode and
// the switch would not be a no-op.
func (e *Engine) applies(r config.TransitionRule) bool {
	cur := e.current()
	if r.ToMode == cur {
		return false
	}
	return r.FromMode == "*" || r.FromMode == cur
}

// tryFire fires a rule unless it is still cooling down.
func (e *Engine) tryFire(idx int, rule config.TransitionRule) {
	e.mu.Lock()
	if cd := rule.CooldownSeconds; cd > 0 {
		if last, ok := e.lastFired[idx]; ok && time.Since(last) < time.Duration(cd*float64(time.Second)) {
			e.mu.Unlock()
			return
		}
	}
	e.lastFired[idx] = time.Now()
	e.mu.Unlock()

	if !e.applies(rule) {
		return
	}
	if err := e.fire(rule.ToMode, rule); err != nil {
		slog.Error("transition failed", "to_mode", rule.ToMode, "type", rule.Type, "error", err)
	}
}

func keywordMatch(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func conditionsMet(snapshot, conditions map[string]any) bool {
	if len(conditions) == 0 {
		return false
	}
	for k, want := range conditions {
		got, ok := snapshot[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
