package models

import (
	"time"

	"gorm.io/gorm"
)

// Answer is the single scored response to a question, created exactly once
// when the candidate submits and immutable afterwards.
type Answer struct {
	ID         string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	QuestionID string         `gorm:"type:uuid;not null;uniqueIndex" json:"question_id"`
	AnswerText string         `gorm:"type:text;not null" json:"answer_text"`
	Score      float64        `gorm:"not null" json:"score"`      // 1.0 to 10.0
	TimeTaken  int            `gorm:"not null" json:"time_taken"` // seconds
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
