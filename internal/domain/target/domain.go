package target

import "time"

type Status string

const (
	StatusUnknown Status = "unknown"
	StatusUp      Status = "up"
	StatusDown    Status = "down"
)

// Known reports whether s is a reachability verdict produced by a previous
// reconciliation. Unknown and empty statuses are treated as "never checked".
func (s Status) Known() bool { return s == StatusUp || s == StatusDown }

func (s Status) String() string { return string(s) }

func StatusFromAlive(alive bool) Status {
	if alive {
		return StatusUp
	}
	return StatusDown
}

type Target struct {
	Address       string         `json:"address"`
	Status        Status         `json:"status"`
	DowntimeCount int64          `json:"downtime_count"`
	LastDowntime  *time.Time     `json:"last_downtime,omitempty"`
	LastChecked   *time.Time     `json:"last_checked,omitempty"`
	ResponseTime  *time.Duration `json:"response_time,omitempty"`
}

// DowntimeEvent is one continuous unreachable interval. Duration stays nil
// while the interval is open.
type DowntimeEvent struct {
	ID        int64          `json:"id"`
	Address   string         `json:"address"`
	StartedAt time.Time      `json:"started_at"`
	Duration  *time.Duration `json:"duration,omitempty"`
}

func (e *DowntimeEvent) Open() bool { return e.Duration == nil }

type ProbeOutcome struct {
	Address string         `json:"address"`
	Alive   bool           `json:"alive"`
	Latency *time.Duration `json:"latency,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type StatusUpdate struct {
	Address      string
	Status       Status
	CheckedAt    time.Time
	ResponseTime *time.Duration
}
