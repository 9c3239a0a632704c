package models

import (
	"time"

	"gorm.io/gorm"
)

// Interview status values. A candidate may accumulate many interviews over
// time, but the unfinished-interview check keeps at most one of them
// in_progress or paused at once.
const (
	StatusInProgress = "in_progress"
	StatusPaused     = "paused"
	StatusCompleted  = "completed"
)

// Interview records one interview attempt. CompletedAt and Summary are set
// only on the transition to completed.
type Interview struct {
	ID          string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CandidateID string         `gorm:"type:uuid;not null;index" json:"candidate_id"`
	Status      string         `gorm:"not null;default:'in_progress';check:status IN ('in_progress', 'paused', 'completed')" json:"status"`
	StartedAt   time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Summary     string         `gorm:"type:text" json:"summary,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Candidate *Candidate `gorm:"foreignKey:CandidateID" json:"candidate,omitempty"`
	Questions []Question `gorm:"foreignKey:InterviewID" json:"questions,omitempty"`
}
