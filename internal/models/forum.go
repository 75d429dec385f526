package models

import (
	"time"
)

// Thread is a top-level forum question scoped to one course.
type Thread struct {
	ID        uint      `gorm:"primaryKey" json:"forumID"`
	CourseID  uint      `gorm:"not null;index" json:"tutor_courseID"`
	Course    Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"userID"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Body      string    `gorm:"type:text;not null" json:"inner_body"`
	CreatedAt time.Time `json:"createDate"`

	// Filled on list/detail queries, not stored.
	Author   string `gorm:"-" json:"author,omitempty"`
	BodyHTML string `gorm:"-" json:"body_html,omitempty"`
}

// Answer is a reply to a Thread, or to another Answer when ParentID is set
// (a follow-up). The parent chain always terminates at a top-level answer
// of the same thread.
type Answer struct {
	ID        uint      `gorm:"primaryKey" json:"answerID"`
	ThreadID  uint      `gorm:"not null;index" json:"forumID"`
	Thread    Thread    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"userID"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ParentID  *uint     `gorm:"index" json:"parent_answerID"` // nil for top-level answers
	Parent    *Answer   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Body      string    `gorm:"type:text;not null" json:"answer_body"`
	CreatedAt time.Time `json:"createDate"`
}
