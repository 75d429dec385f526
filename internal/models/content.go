package models

import (
	"time"
)

type Chapter struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	CourseID uint   `gorm:"not null;uniqueIndex:idx_chapter_course_num" json:"tutor_courseID"`
	Course   Course `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Num      int    `gorm:"not null;uniqueIndex:idx_chapter_course_num" json:"chapter_num"`
	Name     string `gorm:"not null" json:"chapter_name"`
}

type Material struct {
	ID         uint      `gorm:"primaryKey" json:"materialID"`
	CourseID   uint      `gorm:"not null;index" json:"tutor_courseID"`
	Course     Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ChapterNum int       `gorm:"not null;index" json:"chapter_num"`
	Title      string    `gorm:"not null" json:"material_title"`
	Link       string    `gorm:"not null" json:"material_link"`
	Type       string    `gorm:"size:20;default:'PDF'" json:"type"` // PDF, Video, URL
	CreatedAt  time.Time `json:"created_at"`
}

// LibraryMaterial is a shared resource available outside any course.
type LibraryMaterial struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"material_name"`
	Link      string    `gorm:"not null" json:"material_link"`
	CreatedAt time.Time `json:"created_at"`
}

type ScheduleItem struct {
	ID        uint      `gorm:"primaryKey" json:"scheduleID"`
	CourseID  uint      `gorm:"not null;index" json:"tutor_courseID"`
	Course    Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Title     string    `gorm:"not null" json:"schedule_title"`
	Content   string    `gorm:"type:text" json:"schedule_content"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}
