package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeMaterial   NotificationType = "material"
	NotificationTypeSchedule   NotificationType = "schedule"
	NotificationTypeForum      NotificationType = "forum"
	NotificationTypeEnrollment NotificationType = "enrollment"
	NotificationTypeSystem     NotificationType = "system"
)

type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"notificationID"`
	UserID    uint             `gorm:"not null;index" json:"userID"` // recipient
	User      User             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CourseID  uint             `gorm:"index" json:"tutor_courseID"`
	Type      NotificationType `gorm:"type:varchar(20);not null" json:"notification_type"`
	Message   string           `gorm:"type:text" json:"message"`
	RelatedID *uint            `json:"related_id"`
	IsRead    bool             `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
