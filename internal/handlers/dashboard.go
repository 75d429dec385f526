package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"tutorlink/internal/models"
	"tutorlink/internal/services"
	"tutorlink/internal/utils"
)

type DashboardHandler struct {
	db       *gorm.DB
	notifier *services.NotificationService
}

func NewDashboardHandler(database *gorm.DB, notifier *services.NotificationService) *DashboardHandler {
	return &DashboardHandler{db: database, notifier: notifier}
}

// upcomingEvent is one schedule row of an enrolled course, annotated with the
// course it belongs to.
type upcomingEvent struct {
	models.ScheduleItem
	CourseTitle string `json:"course_title"`
	Tutor       string `json:"tutor"`
}

// forumActivity is one recent thread in an enrolled course plus its reply
// count.
type forumActivity struct {
	models.Thread
	CourseTitle string `json:"course_title"`
	AnswerCount int64  `json:"answerCount"`
}

func (h *DashboardHandler) upcomingSchedule(userID uint, limit int) ([]upcomingEvent, error) {
	items := []models.ScheduleItem{}
	err := h.db.Preload("Course.Owner").
		Joins("JOIN enrollments ON enrollments.course_id = schedule_items.course_id").
		Where("enrollments.user_id = ? AND schedule_items.start_date >= ?", userID, time.Now()).
		Order("schedule_items.start_date ASC, schedule_items.end_date ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	events := make([]upcomingEvent, 0, len(items))
	for _, item := range items {
		events = append(events, upcomingEvent{
			ScheduleItem: item,
			CourseTitle:  item.Course.Title,
			Tutor:        item.Course.Owner.Name,
		})
	}
	return events, nil
}

func (h *DashboardHandler) recentForumActivity(userID uint, limit int) ([]forumActivity, error) {
	threads := []models.Thread{}
	err := h.db.Preload("Course").
		Joins("JOIN enrollments ON enrollments.course_id = threads.course_id").
		Where("enrollments.user_id = ?", userID).
		Order("threads.created_at DESC, threads.id DESC").
		Limit(limit).
		Find(&threads).Error
	if err != nil {
		return nil, err
	}
	if len(threads) == 0 {
		return []forumActivity{}, nil
	}

	threadIDs := make([]uint, len(threads))
	for i, thread := range threads {
		threadIDs[i] = thread.ID
	}
	type countResult struct {
		ThreadID uint
		Count    int64
	}
	var counts []countResult
	err = h.db.Model(&models.Answer{}).
		Select("thread_id, COUNT(*) as count").
		Where("thread_id IN ?", threadIDs).
		Group("thread_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	countMap := make(map[uint]int64, len(counts))
	for _, r := range counts {
		countMap[r.ThreadID] = r.Count
	}

	activity := make([]forumActivity, 0, len(threads))
	for _, thread := range threads {
		activity = append(activity, forumActivity{
			Thread:      thread,
			CourseTitle: thread.Course.Title,
			AnswerCount: countMap[thread.ID],
		})
	}
	return activity, nil
}

// Show handles GET /api/dashboard: the caller's enrolled courses, the courses
// they run, upcoming events, recent forum activity, and a notification
// digest.
func (h *DashboardHandler) Show(c *gin.Context) {
	user := CurrentUser(c)

	enrolled := []models.Course{}
	err := h.db.Preload("Owner").
		Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Where("enrollments.user_id = ?", user.ID).
		Order("enrollments.created_at DESC").
		Find(&enrolled).Error
	if err != nil {
		FailErr(c, "listing enrolled courses", err)
		return
	}
	for i := range enrolled {
		enrolled[i].Tutor = enrolled[i].Owner.Name
	}

	managed := []models.Course{}
	err = h.db.Where("owner_id = ?", user.ID).
		Order("id DESC").
		Find(&managed).Error
	if err != nil {
		FailErr(c, "listing managed courses", err)
		return
	}
	for i := range managed {
		managed[i].Tutor = user.Name
	}
	fillEnrolledCounts(h.db, managed)

	schedule, err := h.upcomingSchedule(user.ID, 5)
	if err != nil {
		FailErr(c, "listing upcoming schedule", err)
		return
	}
	activity, err := h.recentForumActivity(user.ID, 5)
	if err != nil {
		FailErr(c, "listing recent forum activity", err)
		return
	}

	unread, err := h.notifier.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		FailErr(c, "counting unread notifications", err)
		return
	}
	recent, err := h.notifier.ListAll(c.Request.Context(), user.ID, 5)
	if err != nil {
		FailErr(c, "listing recent notifications", err)
		return
	}

	OK(c, gin.H{
		"user":                 user,
		"enrolled_courses":     enrolled,
		"managed_courses":      managed,
		"upcoming_schedule":    schedule,
		"forum_activity":       activity,
		"unread_count":         unread,
		"recent_notifications": recent,
	})
}

// CourseProgress handles GET /api/course/:courseId/progress: how far the
// caller is through an enrolled course (chapter totals for now).
func (h *DashboardHandler) CourseProgress(c *gin.Context) {
	user := CurrentUser(c)
	courseID := utils.StringToUint(c.Param("courseId"))

	var course models.Course
	if err := h.db.First(&course, courseID).Error; err != nil {
		Fail(c, http.StatusNotFound, "course not found")
		return
	}

	var enrolledCount int64
	err := h.db.Model(&models.Enrollment{}).
		Where("course_id = ? AND user_id = ?", courseID, user.ID).
		Count(&enrolledCount).Error
	if err != nil {
		FailErr(c, "checking enrollment", err)
		return
	}
	if enrolledCount == 0 && course.OwnerID != user.ID && !user.IsAdmin() {
		Fail(c, http.StatusForbidden, "not enrolled in this course")
		return
	}

	var totalChapters int64
	err = h.db.Model(&models.Chapter{}).
		Where("course_id = ?", courseID).
		Count(&totalChapters).Error
	if err != nil {
		FailErr(c, "counting chapters", err)
		return
	}

	OK(c, gin.H{
		"course":         course,
		"total_chapters": totalChapters,
	})
}
