package publishers

import (
	"time"

	"github.com/samvad-hq/petfriends/internal/domain"
)

const (
	OutcomePassed = "passed"
	OutcomeFailed = "failed"
)

// Event represents the payload published downstream after a scenario run.
type Event struct {
	Source      string           `json:"source"`
	Outcome     string           `json:"outcome"`
	Report      domain.RunReport `json:"report"`
	PublishedAt time.Time        `json:"published_at"`
}

// NewEvent wraps a finished run report.
func NewEvent(source string, report domain.RunReport) Event {
	outcome := OutcomePassed
	if !report.OK() {
		outcome = OutcomeFailed
	}
	return Event{
		Source:      source,
		Outcome:     outcome,
		Report:      report,
		PublishedAt: time.Now().UTC(),
	}
}

// attributes are the message attributes queue-based publishers attach.
// Empty values are skipped since SQS and SNS reject them.
func (e Event) attributes() map[string]string {
	out := make(map[string]string, 3)
	for k, v := range map[string]string{
		"run_id":  e.Report.RunID,
		"outcome": e.Outcome,
		"source":  e.Source,
	} {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
