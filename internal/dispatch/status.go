package dispatch

import "time"

// State tracks a lead through a single dispatch run.
type State string

const (
	StatePending State = "pending"
	StateSending State = "sending"
	StateSent    State = "sent"
	StateFailed  State = "failed"
	StateSkipped State = "skipped"
)

// SkipReason explains why a lead was excluded before any send attempt.
type SkipReason string

const (
	SkipMissingPhone   SkipReason = "missing_phone"
	SkipMissingMessage SkipReason = "missing_message"
	SkipAlreadySent    SkipReason = "already_sent"
)

// Result is the per-lead outcome of a run.
type Result struct {
	LeadID     string     `json:"lead_id"`
	Company    string     `json:"company"`
	State      State      `json:"state"`
	SkipReason SkipReason `json:"skip_reason,omitempty"`
	Error      string     `json:"error,omitempty"`
	MessageID  string     `json:"message_id,omitempty"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
}

// Summary aggregates a full run.
type Summary struct {
	Total      int       `json:"total"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Cancelled  bool      `json:"cancelled,omitempty"`
	Results    []Result  `json:"results"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (s *Summary) record(res Result) {
	s.Results = append(s.Results, res)
	switch res.State {
	case StateSent:
		s.Sent++
	case StateFailed:
		s.Failed++
	case StateSkipped:
		s.Skipped++
	}
}
