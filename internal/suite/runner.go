package suite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/petfriends/internal/domain"
	"github.com/samvad-hq/petfriends/internal/logger"
)

// Runner executes scenarios one after another against a single Env.
type Runner struct {
	env *Env
	log logger.Logger
	now func() time.Time
}

// NewRunner builds a runner. A nil logger falls back to the env's logger.
func NewRunner(env *Env, log logger.Logger) *Runner {
	if log == nil && env != nil {
		log = env.log()
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Runner{env: env, log: log, now: time.Now}
}

// Run executes every scenario in order and never retries. A failing scenario
// does not stop the ones after it. When ctx is cancelled the remaining
// scenarios are reported as failed with the context error.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) domain.RunReport {
	if ctx == nil {
		ctx = context.Background()
	}
	report := domain.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: r.now().UTC(),
		Results:   make([]domain.ScenarioResult, 0, len(scenarios)),
	}
	if r.env != nil {
		report.Strict = r.env.Strict
		if r.env.Client != nil {
			report.BaseURL = r.env.Client.BaseURL()
		}
	}

	envErr := r.env.validate()
	r.log.InfoObj("scenario run started", "run_meta", map[string]any{
		"run_id":    report.RunID,
		"base_url":  report.BaseURL,
		"strict":    report.Strict,
		"scenarios": len(scenarios),
	})

	for _, sc := range scenarios {
		var res domain.ScenarioResult
		switch {
		case envErr != nil:
			res = domain.ScenarioResult{Name: sc.Name, Error: envErr.Error()}
		case ctx.Err() != nil:
			res = domain.ScenarioResult{Name: sc.Name, Error: ctx.Err().Error()}
		default:
			res = r.runOne(ctx, sc)
		}
		report.Add(res)
	}

	report.FinishedAt = r.now().UTC()
	r.log.InfoObj("scenario run finished", "run_meta", map[string]any{
		"run_id":     report.RunID,
		"passed":     report.Passed,
		"failed":     report.Failed,
		"failures":   report.FailedNames(),
		"elapsed_ms": report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	})
	return report
}

func (r *Runner) runOne(ctx context.Context, sc Scenario) (res domain.ScenarioResult) {
	res.Name = sc.Name
	start := r.now()
	defer func() {
		if p := recover(); p != nil {
			res.Passed = false
			res.Error = fmt.Sprintf("panic: %v", p)
		}
		res.DurationMs = r.now().Sub(start).Milliseconds()
		if res.Passed {
			r.log.DebugObj("scenario passed", "scenario", map[string]any{
				"name":        res.Name,
				"duration_ms": res.DurationMs,
			})
			return
		}
		r.log.WarnObj("scenario failed", "scenario", map[string]any{
			"name":        res.Name,
			"error":       res.Error,
			"duration_ms": res.DurationMs,
		})
	}()

	if sc.Run == nil {
		res.Error = "scenario has no body"
		return res
	}
	if err := sc.Run(ctx, r.env); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Passed = true
	return res
}
