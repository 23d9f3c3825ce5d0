package models

import "time"

// Team is a group of learners that completes team targets together.
type Team struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Learner represents a student enrolled in a course, optionally on a team.
type Learner struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	TeamID    *uint     `gorm:"index" json:"team_id"`
	LevelID   uint      `gorm:"not null" json:"level_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Level     Level     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"level"`
	Team      *Team     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"team,omitempty"`
}
