package models

import (
	"time"

	"gorm.io/gorm"
)

// Candidate is created on the first interview start for a given email and is
// never updated afterwards; repeat uploads with the same email reuse the record.
type Candidate struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string         `gorm:"size:50" json:"phone"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Interviews []Interview `gorm:"foreignKey:CandidateID" json:"interviews,omitempty"`
}
