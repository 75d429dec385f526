package models

import (
	"time"
)

// Rating is one user's review of a course. A user rates a course at most
// once; re-rating updates the existing row.
type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_rating_course_user" json:"tutor_courseID"`
	Course    Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_rating_course_user" json:"userID"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Score     int       `gorm:"not null" json:"rating"` // 1..5
	Review    string    `gorm:"type:text" json:"review"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserName string `gorm:"-" json:"user_name,omitempty"`
}
