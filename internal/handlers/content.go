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

type ContentHandler struct {
	db       *gorm.DB
	notifier *services.NotificationService
}

func NewContentHandler(database *gorm.DB, notifier *services.NotificationService) *ContentHandler {
	return &ContentHandler{db: database, notifier: notifier}
}

// ListChapters handles GET /api/course/:courseId/chapters
func (h *ContentHandler) ListChapters(c *gin.Context) {
	courseID := utils.StringToUint(c.Param("courseId"))

	chapters := []models.Chapter{}
	err := h.db.Where("course_id = ?", courseID).
		Order("num ASC").
		Find(&chapters).Error
	if err != nil {
		FailErr(c, "listing chapters", err)
		return
	}
	OK(c, gin.H{"chapters": chapters})
}

// AddChapter handles POST /api/course/:courseId/chapters. Re-posting an
// existing chapter number renames it instead of failing.
func (h *ContentHandler) AddChapter(c *gin.Context) {
	courseID := utils.StringToUint(c.Param("courseId"))
	if _, ok := requireCourseOwner(c, h.db, courseID); !ok {
		return
	}

	var req struct {
		Num  int    `json:"chapter_num"`
		Name string `json:"chapter_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Num <= 0 || strings.TrimSpace(req.Name) == "" {
		Fail(c, http.StatusBadRequest, "chapter_num and chapter_name are required")
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	chapter := models.Chapter{CourseID: courseID, Num: req.Num}
	err := h.db.Where("course_id = ? AND num = ?", courseID, req.Num).
		FirstOrCreate(&chapter).Error
	if err != nil {
		FailErr(c, "creating chapter", err)
		return
	}
	if chapter.Name != req.Name {
		chapter.Name = req.Name
		if err := h.db.Save(&chapter).Error; err != nil {
			FailErr(c, "updating chapter", err)
			return
		}
	}
	OK(c, gin.H{"chapterID": chapter.ID})
}

// ListMaterials handles GET /api/course/:courseId/materials
func (h *ContentHandler) ListMaterials(c *gin.Context) {
	courseID := utils.StringToUint(c.Param("courseId"))

	materials := []models.Material{}
	err := h.db.Where("course_id = ?", courseID).
		Order("chapter_num ASC, id ASC").
		Find(&materials).Error
	if err != nil {
		FailErr(c, "listing materials", err)
		return
	}
	OK(c, gin.H{"materials": materials})
}

// AddMaterial handles POST /api/course/:courseId/materials and notifies
// every enrolled student about the new material.
func (h *ContentHandler) AddMaterial(c *gin.Context) {
	courseID := utils.StringToUint(c.Param("courseId"))
	course, ok := requireCourseOwner(c, h.db, courseID)
	if !ok {
		return
	}
	user := CurrentUser(c)

	var req struct {
		ChapterNum int    `json:"chapter_num"`
		Title      string `json:"material_title"`
		Link       string `json:"material_link"`
		Type       string `json:"material_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Link) == "" {
		Fail(c, http.StatusBadRequest, "material_title and material_link are required")
		return
	}

	material := models.Material{
		CourseID:   courseID,
		ChapterNum: req.ChapterNum,
		Title:      strings.TrimSpace(req.Title),
		Link:       strings.TrimSpace(req.Link),
		Type:       req.Type,
	}
	if err := h.db.Create(&material).Error; err != nil {
		FailErr(c, "creating material", err)
		return
	}

	go func(materialID uint) {
		msg := fmt.Sprintf("New material %q was added to %q", material.Title, course.Title)
		if _, err := h.notifier.NotifyEnrolled(context.Background(), courseID, models.NotificationTypeMaterial, msg, &materialID, user.ID); err != nil {
			log.Printf("Failed to fan out material notification for course %d: %v", courseID, err)
		}
	}(material.ID)

	OK(c, gin.H{"materialID": material.ID})
}

// DeleteMaterial handles DELETE /api/course/:courseId/materials. The original
// client identifies a material by its link rather than its id.
func (h *ContentHandler) DeleteMaterial(c *gin.Context) {
	courseID := utils.StringToUint(c.Param("courseId"))
	if _, ok := requireCourseOwner(c, h.db, courseID); !ok {
		return
	}

	var req struct {
		Link string `json:"material_link"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Link) == "" {
		Fail(c, http.StatusBadRequest, "material_link is required")
		return
	}

	result := h.db.Where("course_id = ? AND link = ?", courseID, strings.TrimSpace(req.Link)).
		Delete(&models.Material{})
	if result.Error != nil {
		FailErr(c, "deleting material", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		Fail(c, http.StatusNotFound, "material not found")
		return
	}
	OK(c, gin.H{"deleted": result.RowsAffected})
}

// ListLibraryMaterials handles GET /api/library-materials: the shared
// resource library, independent of any course.
func (h *ContentHandler) ListLibraryMaterials(c *gin.Context) {
	materials := []models.LibraryMaterial{}
	err := h.db.Order("name ASC").Find(&materials).Error
	if err != nil {
		FailErr(c, "listing library materials", err)
		return
	}
	OK(c, gin.H{"materials": materials})
}

// ListSchedule handles GET /api/course/:courseId/schedule
func (h *ContentHandler) ListSchedule(c *gin.Context) {
	courseID := utils.StringToUint(c.Param("courseId"))

	items := []models.ScheduleItem{}
	err := h.db.Where("course_id = ?", courseID).
		Order("start_date ASC, id ASC").
		Find(&items).Error
	if err != nil {
		FailErr(c, "listing schedule", err)
		return
	}
	OK(c, gin.H{"schedule": items})
}

// AddScheduleItem handles POST /api/course/:courseId/schedule and notifies
// every enrolled student about the new event.
func (h *ContentHandler) AddScheduleItem(c *gin.Context) {
	courseID := utils.StringToUint(c.Param("courseId"))
	course, ok := requireCourseOwner(c, h.db, courseID)
	if !ok {
		return
	}
	user := CurrentUser(c)

	var req struct {
		Title     string    `json:"schedule_title"`
		Content   string    `json:"content"`
		StartDate time.Time `json:"start_date"`
		EndDate   time.Time `json:"end_date"`
		Location  string    `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" || req.StartDate.IsZero() {
		Fail(c, http.StatusBadRequest, "schedule_title and start_date are required")
		return
	}
	if !req.EndDate.IsZero() && req.EndDate.Before(req.StartDate) {
		Fail(c, http.StatusBadRequest, "end_date must not precede start_date")
		return
	}

	item := models.ScheduleItem{
		CourseID:  courseID,
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Location:  req.Location,
	}
	if err := h.db.Create(&item).Error; err != nil {
		FailErr(c, "creating schedule item", err)
		return
	}

	go func(itemID uint) {
		msg := fmt.Sprintf("New event %q was scheduled for %q", item.Title, course.Title)
		if _, err := h.notifier.NotifyEnrolled(context.Background(), courseID, models.NotificationTypeSchedule, msg, &itemID, user.ID); err != nil {
			log.Printf("Failed to fan out schedule notification for course %d: %v", courseID, err)
		}
	}(item.ID)

	OK(c, gin.H{"scheduleID": item.ID})
}
