package jobs

import "errors"

// RunKind names one scheduled job family. Each kind excludes concurrent
// runs of itself; different kinds may overlap.
type RunKind string

const (
	RunKindStats     RunKind = "stats"
	RunKindPlayers   RunKind = "players"
	RunKindSchedule  RunKind = "schedule"
	RunKindHeadshots RunKind = "headshots"
)

// Run statuses as persisted to the ledger.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrAlreadyRunning is returned when a run of the same kind is still in
// progress. The caller skips; nothing is queued.
var ErrAlreadyRunning = errors.New("a run of this kind is already in progress")

// Request describes one unit of work. Weeks apply to the stats and schedule
// kinds; the others ignore them.
type Request struct {
	Kind         RunKind `json:"kind" validate:"required,oneof=stats players schedule headshots"`
	Season       int     `json:"season" validate:"required,min=1990,max=2100"`
	StartWeek    int     `json:"start_week" validate:"omitempty,min=1,max=18"`
	EndWeek      int     `json:"end_week" validate:"omitempty,min=1,max=18,gtefield=StartWeek"`
	SeasonType   int     `json:"season_type" validate:"omitempty,oneof=1 2 3"`
	ForceRefresh bool    `json:"force_refresh"`
}

// usesWeeks reports whether the kind walks a week range.
func (k RunKind) usesWeeks() bool {
	return k == RunKindStats || k == RunKindSchedule
}
