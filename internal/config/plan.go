package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/iliyamo/stage-planner/internal/allocator"
)

// PlanConfig holds the allocation defaults and ceilings applied to every
// planning request, plus the switches for plan.completed events.
type PlanConfig struct {
	DefaultTurnover int              // PLAN_DEFAULT_TURNOVER, slots reserved after each show
	DefaultPolicy   allocator.Policy // PLAN_DEFAULT_POLICY
	MaxStages       int              // PLAN_MAX_STAGES, 0 = unlimited
	MaxPasses       int              // PLAN_MAX_PASSES, 0 = unlimited
	MaxHorizon      int              // PLAN_MAX_HORIZON, largest end slot accepted, 0 = unlimited
	PriorityMin     int              // PRIORITY_MIN, lowest accepted or sampled priority
	PriorityMax     int              // PRIORITY_MAX, highest accepted or sampled priority
	EventsEnabled   bool             // PLAN_EVENTS_ENABLED, publish plan.completed
	ConsumerEnabled bool             // PLAN_CONSUMER_ENABLED, run the consumer in the server
	LogDir          string           // PLAN_LOG_DIR, where the consumer writes plans.log
}

// LoadPlanConfig reads the planner settings.  Unlike Load it returns an error
// instead of exiting so a bad turnover or policy can be reported by the caller.
func LoadPlanConfig() (PlanConfig, error) {
	turnover := 0
	if v := strings.TrimSpace(os.Getenv("PLAN_DEFAULT_TURNOVER")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return PlanConfig{}, fmt.Errorf("PLAN_DEFAULT_TURNOVER=%q: %w", v, allocator.ErrInvalidTurnover)
		}
		turnover = n
	}
	if err := allocator.ValidateTurnover(turnover); err != nil {
		return PlanConfig{}, fmt.Errorf("PLAN_DEFAULT_TURNOVER: %w", err)
	}

	policy, err := allocator.ParsePolicy(envStr("PLAN_DEFAULT_POLICY", "dense"))
	if err != nil {
		return PlanConfig{}, fmt.Errorf("PLAN_DEFAULT_POLICY: %w", err)
	}

	cfg := PlanConfig{
		DefaultTurnover: turnover,
		DefaultPolicy:   policy,
		MaxStages:       max(envInt("PLAN_MAX_STAGES", 0), 0),
		MaxPasses:       max(envInt("PLAN_MAX_PASSES", 0), 0),
		MaxHorizon:      max(envInt("PLAN_MAX_HORIZON", 100000), 0),
		PriorityMin:     envInt("PRIORITY_MIN", 1),
		PriorityMax:     envInt("PRIORITY_MAX", 10),
		EventsEnabled:   envBool("PLAN_EVENTS_ENABLED", true),
		ConsumerEnabled: envBool("PLAN_CONSUMER_ENABLED", false),
		LogDir:          envStr("PLAN_LOG_DIR", "logs"),
	}
	if cfg.PriorityMin > cfg.PriorityMax {
		return PlanConfig{}, fmt.Errorf("PRIORITY_MIN %d exceeds PRIORITY_MAX %d", cfg.PriorityMin, cfg.PriorityMax)
	}
	return cfg, nil
}
