package models

import (
	"time"
)

const (
	OpenStateOpen       = "Open"       // anyone can enroll directly
	OpenStatePermission = "Permission" // enrollment goes through the waiting queue
	OpenStatePrivate    = "Private"    // hidden from the catalog
)

type Course struct {
	ID          uint      `gorm:"primaryKey" json:"tutor_courseID"`
	OwnerID     uint      `gorm:"not null;index" json:"ownerID"`
	Owner       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Title       string    `gorm:"not null" json:"course_title"`
	Description string    `gorm:"type:text" json:"description"`
	OpenState   string    `gorm:"size:20;default:'Open';not null" json:"open_state"`
	AvgRating   float64   `gorm:"default:0" json:"avg_rating"`
	RatingCount int       `gorm:"default:0" json:"rating_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Filled on list/detail queries, not stored.
	Tutor         string `gorm:"-" json:"tutor,omitempty"`
	EnrolledCount int    `gorm:"-" json:"enrolledCount"`
}

type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_course_user" json:"tutor_courseID"`
	Course    Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_enrollment_course_user" json:"userID"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RequestWaiting  = "Waiting"
	RequestApproved = "Approved"
	RequestRejected = "Rejected"
)

// EnrollmentRequest is the waiting queue for Permission courses.
type EnrollmentRequest struct {
	ID        uint      `gorm:"primaryKey" json:"requestID"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_enroll_req_course_user" json:"tutor_courseID"`
	Course    Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_enroll_req_course_user" json:"userID"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Status    string    `gorm:"size:20;default:'Waiting';not null" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	StudentName string `gorm:"-" json:"student_name,omitempty"`
}
