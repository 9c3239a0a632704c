package models

import (
	"time"

	"gorm.io/gorm"
)

// Difficulty of an interview question. The difficulty of a slot is a pure
// function of its question number: 1-2 easy, 3-4 medium, 5-6 hard.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// TotalQuestions is the fixed length of every interview.
const TotalQuestions = 6

// DifficultyForNumber maps a question number (1..6) to its difficulty.
func DifficultyForNumber(number int) Difficulty {
	switch {
	case number <= 2:
		return DifficultyEasy
	case number <= 4:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

// TimeLimit returns the answer time limit in seconds for a difficulty.
func (d Difficulty) TimeLimit() int {
	switch d {
	case DifficultyEasy:
		return 20
	case DifficultyMedium:
		return 60
	default:
		return 120
	}
}

// Question is one slot of an interview. Questions are created by the engine
// when the interview advances and are never mutated or deleted.
type Question struct {
	ID             string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InterviewID    string         `gorm:"type:uuid;not null;uniqueIndex:idx_interview_slot" json:"interview_id"`
	QuestionText   string         `gorm:"type:text;not null" json:"question_text"`
	Difficulty     Difficulty     `gorm:"type:varchar(20);not null;check:difficulty IN ('easy', 'medium', 'hard')" json:"difficulty"`
	QuestionNumber int            `gorm:"not null;uniqueIndex:idx_interview_slot" json:"question_number"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Answer *Answer `gorm:"foreignKey:QuestionID" json:"answer,omitempty"`
}
