package model

import "time"

const (
	SessionStatusRunning   = "running"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
)

// StudySession is one countdown run recorded for history.
type StudySession struct {
	ID                     string     `json:"id"`
	UserID                 string     `json:"userId"`
	PlannedDurationSeconds int        `json:"plannedDurationSeconds"`
	ActualDurationSeconds  int        `json:"actualDurationSeconds"`
	StartedAt              time.Time  `json:"startedAt"`
	EndedAt                *time.Time `json:"endedAt,omitempty"`
	Status                 string     `json:"status"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}
