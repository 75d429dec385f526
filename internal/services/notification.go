package services

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"tutorlink/internal/models"
)

// NotificationService writes per-recipient notification rows and manages
// their read state. Fan-out is best effort: one recipient's failure never
// aborts the rest.
type NotificationService struct {
	db   *gorm.DB
	mail *MailService
}

func NewNotificationService(database *gorm.DB, mail *MailService) *NotificationService {
	return &NotificationService{db: database, mail: mail}
}

// FanoutResult reports how a broadcast went: the resolved audience size,
// how many rows were written, and the recipients whose insert failed.
type FanoutResult struct {
	Recipients int    `json:"recipients"`
	Delivered  int    `json:"delivered"`
	Failed     []uint `json:"failed,omitempty"`
}

// Notify inserts a single notification row and returns its ID.
func (s *NotificationService) Notify(ctx context.Context, userID, courseID uint, typ models.NotificationType, message string, relatedID *uint) (uint, error) {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	n := models.Notification{
		UserID:    userID,
		CourseID:  courseID,
		Type:      typ,
		Message:   message,
		RelatedID: relatedID,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return 0, fmt.Errorf("creating notification: %w", err)
	}
	s.emailRecipient(userID, message)
	return n.ID, nil
}

// NotifyEnrolled broadcasts one event to everyone enrolled in the course plus
// the course owner, deduplicated, skipping excludeUserID (0 excludes nobody).
// Per-recipient insert failures are logged and collected, never fatal.
func (s *NotificationService) NotifyEnrolled(ctx context.Context, courseID uint, typ models.NotificationType, message string, relatedID *uint, excludeUserID uint) (*FanoutResult, error) {
	resolveCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	var course models.Course
	if err := s.db.WithContext(resolveCtx).First(&course, courseID).Error; err != nil {
		return nil, trapNotFound(err, "loading course")
	}

	var enrolled []uint
	err := s.db.WithContext(resolveCtx).
		Model(&models.Enrollment{}).
		Where("course_id = ?", courseID).
		Order("user_id ASC").
		Pluck("user_id", &enrolled).Error
	if err != nil {
		return nil, fmt.Errorf("resolving course audience: %w", err)
	}

	seen := make(map[uint]bool, len(enrolled)+1)
	recipients := make([]uint, 0, len(enrolled)+1)
	for _, id := range append(enrolled, course.OwnerID) {
		if id == excludeUserID || seen[id] {
			continue
		}
		seen[id] = true
		recipients = append(recipients, id)
	}

	result := &FanoutResult{Recipients: len(recipients)}
	for _, userID := range recipients {
		n := models.Notification{
			UserID:    userID,
			CourseID:  courseID,
			Type:      typ,
			Message:   message,
			RelatedID: relatedID,
		}
		// Each insert gets its own deadline so a slow recipient cannot
		// starve the rest of the audience.
		insertCtx, cancelInsert := context.WithTimeout(ctx, storageTimeout)
		err := s.db.WithContext(insertCtx).Create(&n).Error
		cancelInsert()
		if err != nil {
			log.Printf("notification: failed to notify user %d for course %d: %v", userID, courseID, err)
			result.Failed = append(result.Failed, userID)
			continue
		}
		result.Delivered++
		s.emailRecipient(userID, message)
	}

	log.Printf("notification: %d/%d recipients notified for course %d (%s)", result.Delivered, result.Recipients, courseID, typ)
	return result, nil
}

// MarkRead flips a single notification to read. A missing row reports
// ErrNotFound.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID uint) error {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", notificationID).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("marking notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead flips every unread notification of the user and returns how
// many rows changed. Calling it again right away affects zero rows.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("marking all notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// UnreadCount returns the number of unread notifications for the user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

// ListUnread returns the user's unread notifications, newest first.
func (s *NotificationService) ListUnread(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.list(ctx, userID, limit, true)
}

// ListAll returns the user's notifications regardless of read state, newest
// first.
func (s *NotificationService) ListAll(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.list(ctx, userID, limit, false)
}

func (s *NotificationService) list(ctx context.Context, userID uint, limit int, unreadOnly bool) ([]models.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	notifications := []models.Notification{}
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return notifications, nil
}

// Delete removes a single notification row.
func (s *NotificationService) Delete(ctx context.Context, notificationID uint) error {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	res := s.db.WithContext(ctx).Delete(&models.Notification{}, notificationID)
	if res.Error != nil {
		return fmt.Errorf("deleting notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *NotificationService) emailRecipient(userID uint, message string) {
	if s.mail == nil || !s.mail.Enabled {
		return
	}
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		log.Printf("notification: user %d lookup for email failed: %v", userID, err)
		return
	}
	s.mail.SendNotificationEmail(user.Email, user.Name, message)
}
