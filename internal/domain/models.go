package domain

import "time"

// Domain contains the records shared between the scenario runner and the
// report publishers.

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Name       string `json:"name"`
	Passed     bool   `json:"passed"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// RunReport summarizes one pass of the scenario suite.
type RunReport struct {
	RunID      string           `json:"run_id"`
	BaseURL    string           `json:"base_url"`
	Strict     bool             `json:"strict"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Results    []ScenarioResult `json:"results"`
	Passed     int              `json:"passed"`
	Failed     int              `json:"failed"`
}

// OK reports whether every scenario passed.
func (r RunReport) OK() bool { return r.Failed == 0 }

// Add appends a result and updates the counters.
func (r *RunReport) Add(res ScenarioResult) {
	r.Results = append(r.Results, res)
	if res.Passed {
		r.Passed++
	} else {
		r.Failed++
	}
}

// FailedNames lists the scenarios that failed, in run order.
func (r RunReport) FailedNames() []string {
	var out []string
	for _, res := range r.Results {
		if !res.Passed {
			out = append(out, res.Name)
		}
	}
	return out
}
