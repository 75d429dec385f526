package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"tutorlink/internal/models"
	"tutorlink/internal/services"
	"tutorlink/internal/utils"
)

const catalogCacheKey = "courses:catalog"

type CourseHandler struct {
	db       *gorm.DB
	notifier *services.NotificationService
}

func NewCourseHandler(database *gorm.DB, notifier *services.NotificationService) *CourseHandler {
	return &CourseHandler{db: database, notifier: notifier}
}

// fillEnrolledCounts batch-fills the enrollment count for a page of courses.
func fillEnrolledCounts(database *gorm.DB, courses []models.Course) {
	if len(courses) == 0 {
		return
	}

	courseIDs := make([]uint, len(courses))
	for i, course := range courses {
		courseIDs[i] = course.ID
	}

	type countResult struct {
		CourseID uint
		Count    int
	}
	var results []countResult
	database.Model(&models.Enrollment{}).
		Select("course_id, COUNT(*) as count").
		Where("course_id IN ?", courseIDs).
		Group("course_id").
		Scan(&results)

	countMap := make(map[uint]int)
	for _, r := range results {
		countMap[r.CourseID] = r.Count
	}

	for i := range courses {
		courses[i].EnrolledCount = countMap[courses[i].ID]
	}
}

func (h *CourseHandler) catalog() ([]models.Course, error) {
	if cached := utils.GetCache().Get(catalogCacheKey); cached != nil {
		if courses, ok := cached.([]models.Course); ok {
			return courses, nil
		}
	}

	courses := []models.Course{}
	err := h.db.Preload("Owner").
		Where("open_state <> ?", models.OpenStatePrivate).
		Order("id DESC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}

	for i := range courses {
		courses[i].Tutor = courses[i].Owner.Name
	}
	fillEnrolledCounts(h.db, courses)

	utils.GetCache().Set(catalogCacheKey, courses, 1*time.Minute)
	return courses, nil
}

// ListAll handles GET /api/all_courses
func (h *CourseHandler) ListAll(c *gin.Context) {
	courses, err := h.catalog()
	if err != nil {
		FailErr(c, "listing courses", err)
		return
	}
	OK(c, gin.H{"courses": courses})
}

// Home handles GET /api/courses/home: the first three catalog entries.
func (h *CourseHandler) Home(c *gin.Context) {
	courses, err := h.catalog()
	if err != nil {
		FailErr(c, "listing home courses", err)
		return
	}
	if len(courses) > 3 {
		courses = courses[:3]
	}
	OK(c, gin.H{"courses": courses})
}

// Get handles GET /api/courses/:courseId
func (h *CourseHandler) Get(c *gin.Context) {
	courseID := utils.StringToUint(c.Param("courseId"))

	var course models.Course
	if err := h.db.Preload("Owner").First(&course, courseID).Error; err != nil {
		Fail(c, http.StatusNotFound, "course not found")
		return
	}
	course.Tutor = course.Owner.Name
	fillEnrolledCounts(h.db, []models.Course{course})

	OK(c, gin.H{"course": course})
}

// Create handles POST /api/courses
func (h *CourseHandler) Create(c *gin.Context) {
	user := CurrentUser(c)

	var req struct {
		Title       string `json:"course_title"`
		Description string `json:"description"`
		OpenState   string `json:"open_state"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		Fail(c, http.StatusBadRequest, "course_title is required")
		return
	}

	openState := req.OpenState
	switch openState {
	case "":
		openState = models.OpenStateOpen
	case models.OpenStateOpen, models.OpenStatePermission, models.OpenStatePrivate:
	default:
		Fail(c, http.StatusBadRequest, "invalid open_state")
		return
	}

	course := models.Course{
		OwnerID:     user.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		OpenState:   openState,
	}
	if err := h.db.Create(&course).Error; err != nil {
		FailErr(c, "creating course", err)
		return
	}

	utils.GetCache().Delete(catalogCacheKey)
	OK(c, gin.H{"courseID": course.ID})
}

// Update handles PUT /api/courses/:courseId
func (h *CourseHandler) Update(c *gin.Context) {
	courseID := utils.StringToUint(c.Param("courseId"))
	course, ok := requireCourseOwner(c, h.db, courseID)
	if !ok {
		return
	}

	var req struct {
		Title       string `json:"course_title"`
		Description string `json:"description"`
		OpenState   string `json:"open_state"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		Fail(c, http.StatusBadRequest, "course_title is required")
		return
	}

	course.Title = strings.TrimSpace(req.Title)
	course.Description = req.Description
	if req.OpenState != "" {
		course.OpenState = req.OpenState
	}

	if err := h.db.Save(course).Error; err != nil {
		FailErr(c, "updating course", err)
		return
	}

	utils.GetCache().Delete(catalogCacheKey)
	OK(c, gin.H{"courseID": course.ID})
}

// CheckEnrollment handles GET /api/enrollment/:courseId/:userId
func (h *CourseHandler) CheckEnrollment(c *gin.Context) {
	courseID := utils.StringToUint(c.Param("courseId"))
	userID := utils.StringToUint(c.Param("userId"))

	var count int64
	err := h.db.Model(&models.Enrollment{}).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Count(&count).Error
	if err != nil {
		FailErr(c, "checking enrollment", err)
		return
	}
	OK(c, gin.H{"enrolled": count > 0})
}

// Enroll handles POST /api/enrol: direct enrollment into an Open course.
func (h *CourseHandler) Enroll(c *gin.Context) {
	user := CurrentUser(c)

	var req struct {
		CourseID uint `json:"courseId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.CourseID == 0 {
		Fail(c, http.StatusBadRequest, "courseId is required")
		return
	}

	var course models.Course
	if err := h.db.First(&course, req.CourseID).Error; err != nil {
		Fail(c, http.StatusNotFound, "course not found")
		return
	}
	if course.OpenState != models.OpenStateOpen {
		Fail(c, http.StatusBadRequest, "course requires an enrollment request")
		return
	}

	enrollment := models.Enrollment{CourseID: course.ID, UserID: user.ID}
	err := h.db.Where("course_id = ? AND user_id = ?", course.ID, user.ID).
		FirstOrCreate(&enrollment).Error
	if err != nil {
		FailErr(c, "enrolling user", err)
		return
	}

	utils.GetCache().Delete(catalogCacheKey)
	OK(c, gin.H{"enrolled": true})
}

// EnrollRequest handles POST /api/enroll-request: joins the waiting queue of
// a Permission course and pings the course owner.
func (h *CourseHandler) EnrollRequest(c *gin.Context) {
	user := CurrentUser(c)

	var req struct {
		CourseID uint `json:"courseId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.CourseID == 0 {
		Fail(c, http.StatusBadRequest, "courseId is required")
		return
	}

	var course models.Course
	if err := h.db.First(&course, req.CourseID).Error; err != nil {
		Fail(c, http.StatusNotFound, "course not found")
		return
	}

	request := models.EnrollmentRequest{CourseID: course.ID, UserID: user.ID}
	err := h.db.Where("course_id = ? AND user_id = ?", course.ID, user.ID).
		FirstOrCreate(&request).Error
	if err != nil {
		FailErr(c, "creating enrollment request", err)
		return
	}
	if request.Status != models.RequestWaiting {
		request.Status = models.RequestWaiting
		if err := h.db.Save(&request).Error; err != nil {
			FailErr(c, "updating enrollment request", err)
			return
		}
	}

	go func(ownerID, courseID, requestID uint, student, title string) {
		msg := fmt.Sprintf("%s requested to join %q", student, title)
		if _, err := h.notifier.Notify(context.Background(), ownerID, courseID, models.NotificationTypeEnrollment, msg, &requestID); err != nil {
			log.Printf("Failed to notify course owner %d: %v", ownerID, err)
		}
	}(course.OwnerID, course.ID, request.ID, user.Name, course.Title)

	OK(c, gin.H{"message": "Enrollment request sent"})
}

// ListEnrollRequests handles GET /api/course/:courseId/enroll-requests
func (h *CourseHandler) ListEnrollRequests(c *gin.Context) {
	courseID := utils.StringToUint(c.Param("courseId"))
	if _, ok := requireCourseOwner(c, h.db, courseID); !ok {
		return
	}

	requests := []models.EnrollmentRequest{}
	err := h.db.Preload("User").
		Where("course_id = ? AND status = ?", courseID, models.RequestWaiting).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		FailErr(c, "listing enrollment requests", err)
		return
	}
	for i := range requests {
		requests[i].StudentName = requests[i].User.Name
	}
	OK(c, gin.H{"requests": requests})
}

// ApproveEnrollRequest handles POST /api/enroll-requests/:id/approve
func (h *CourseHandler) ApproveEnrollRequest(c *gin.Context) {
	h.resolveEnrollRequest(c, true)
}

// RejectEnrollRequest handles POST /api/enroll-requests/:id/reject
func (h *CourseHandler) RejectEnrollRequest(c *gin.Context) {
	h.resolveEnrollRequest(c, false)
}

func (h *CourseHandler) resolveEnrollRequest(c *gin.Context, approve bool) {
	requestID := utils.StringToUint(c.Param("id"))

	var request models.EnrollmentRequest
	if err := h.db.Preload("Course").First(&request, requestID).Error; err != nil {
		Fail(c, http.StatusNotFound, "request not found")
		return
	}
	if _, ok := requireCourseOwner(c, h.db, request.CourseID); !ok {
		return
	}

	status := models.RequestRejected
	message := fmt.Sprintf("Your request to join %q was declined", request.Course.Title)
	if approve {
		status = models.RequestApproved
		message = fmt.Sprintf("You were accepted into %q", request.Course.Title)
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&request).Update("status", status).Error; err != nil {
			return err
		}
		if !approve {
			return nil
		}
		enrollment := models.Enrollment{CourseID: request.CourseID, UserID: request.UserID}
		return tx.Where("course_id = ? AND user_id = ?", request.CourseID, request.UserID).
			FirstOrCreate(&enrollment).Error
	})
	if err != nil {
		FailErr(c, "resolving enrollment request", err)
		return
	}

	go func(studentID, courseID uint) {
		if _, err := h.notifier.Notify(context.Background(), studentID, courseID, models.NotificationTypeEnrollment, message, nil); err != nil {
			log.Printf("Failed to notify student %d: %v", studentID, err)
		}
	}(request.UserID, request.CourseID)

	utils.GetCache().Delete(catalogCacheKey)
	OK(c, gin.H{"status": status})
}
