package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"tutorlink/internal/models"
	"tutorlink/internal/services"
	"tutorlink/internal/utils"
)

type ForumHandler struct {
	db  *gorm.DB
	svc *services.ForumService
}

func NewForumHandler(database *gorm.DB, notifier *services.NotificationService) *ForumHandler {
	return &ForumHandler{
		db:  database,
		svc: services.NewForumService(database, notifier),
	}
}

// ListThreads handles GET /api/course/:courseId/forum/threads
func (h *ForumHandler) ListThreads(c *gin.Context) {
	courseID := utils.StringToUint(c.Param("courseId"))
	if courseID == 0 {
		Fail(c, http.StatusBadRequest, "invalid course id")
		return
	}

	threads, err := h.svc.ListThreads(c.Request.Context(), courseID)
	if err != nil {
		FailErr(c, "listing forum threads", err)
		return
	}
	OK(c, gin.H{"threads": threads})
}

// ThreadDetail handles GET /api/course/:courseId/forum/threads/:threadId
func (h *ForumHandler) ThreadDetail(c *gin.Context) {
	threadID := utils.StringToUint(c.Param("threadId"))
	if threadID == 0 {
		Fail(c, http.StatusBadRequest, "invalid thread id")
		return
	}

	detail, err := h.svc.GetThreadDetail(c.Request.Context(), threadID)
	if err != nil {
		FailErr(c, "loading forum thread detail", err)
		return
	}

	detail.Thread.BodyHTML = utils.RenderMarkdown(detail.Thread.Body)
	renderAnswerBodies(detail.Answers)

	OK(c, gin.H{"data": detail})
}

func renderAnswerBodies(nodes []services.AnswerNode) {
	for i := range nodes {
		nodes[i].BodyHTML = utils.RenderMarkdown(nodes[i].Body)
		renderAnswerBodies(nodes[i].FollowUps)
	}
}

// CreateThread handles POST /api/course/:courseId/forum/threads
func (h *ForumHandler) CreateThread(c *gin.Context) {
	user := CurrentUser(c)
	courseID := utils.StringToUint(c.Param("courseId"))
	if courseID == 0 {
		Fail(c, http.StatusBadRequest, "invalid course id")
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "body is required")
		return
	}

	threadID, err := h.svc.CreateThread(c.Request.Context(), courseID, user.ID, req.Body)
	if err != nil {
		FailErr(c, "creating forum thread", err)
		return
	}
	OK(c, gin.H{"threadId": threadID})
}

// Reply handles POST /api/course/:courseId/forum/threads/:threadId/reply.
// Without parent_answerID the answer is top-level; with it, a follow-up.
func (h *ForumHandler) Reply(c *gin.Context) {
	user := CurrentUser(c)
	threadID := utils.StringToUint(c.Param("threadId"))
	if threadID == 0 {
		Fail(c, http.StatusBadRequest, "invalid thread id")
		return
	}

	var req struct {
		Body           string `json:"body"`
		ParentAnswerID *uint  `json:"parent_answerID"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "body is required")
		return
	}

	answerID, err := h.svc.AddAnswer(c.Request.Context(), threadID, user.ID, req.Body, req.ParentAnswerID)
	if err != nil {
		FailErr(c, "adding forum answer", err)
		return
	}
	OK(c, gin.H{"answerId": answerID})
}

// FollowUp handles POST /api/course/:courseId/forum/answers/:answerId/followup
func (h *ForumHandler) FollowUp(c *gin.Context) {
	user := CurrentUser(c)
	answerID := utils.StringToUint(c.Param("answerId"))
	if answerID == 0 {
		Fail(c, http.StatusBadRequest, "invalid answer id")
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "body is required")
		return
	}

	followUpID, err := h.svc.CreateFollowUp(c.Request.Context(), answerID, user.ID, req.Body)
	if err != nil {
		FailErr(c, "creating follow-up", err)
		return
	}
	OK(c, gin.H{"followUpId": followUpID})
}

// DeleteThread handles DELETE /api/course/:courseId/forum/threads/:threadId.
// Deleting a thread that is already gone still reports success.
func (h *ForumHandler) DeleteThread(c *gin.Context) {
	user := CurrentUser(c)
	threadID := utils.StringToUint(c.Param("threadId"))
	if threadID == 0 {
		Fail(c, http.StatusBadRequest, "invalid thread id")
		return
	}

	// A missing thread falls through to the idempotent service delete; any
	// other lookup failure must not bypass the ownership check.
	var thread models.Thread
	err := h.db.Preload("Course").First(&thread, threadID).Error
	switch {
	case err == nil:
		if thread.UserID != user.ID && thread.Course.OwnerID != user.ID && !user.IsAdmin() {
			Fail(c, http.StatusForbidden, "not allowed to delete this thread")
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		FailErr(c, "loading forum thread for delete", err)
		return
	}

	if err := h.svc.DeleteThread(c.Request.Context(), threadID); err != nil {
		FailErr(c, "deleting forum thread", err)
		return
	}
	OK(c, nil)
}

// DeleteAnswer handles DELETE /api/course/:courseId/forum/answers/:answerId
func (h *ForumHandler) DeleteAnswer(c *gin.Context) {
	user := CurrentUser(c)
	answerID := utils.StringToUint(c.Param("answerId"))
	if answerID == 0 {
		Fail(c, http.StatusBadRequest, "invalid answer id")
		return
	}

	var answer models.Answer
	err := h.db.Preload("Thread.Course").First(&answer, answerID).Error
	switch {
	case err == nil:
		if answer.UserID != user.ID && answer.Thread.Course.OwnerID != user.ID && !user.IsAdmin() {
			Fail(c, http.StatusForbidden, "not allowed to delete this answer")
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		FailErr(c, "loading forum answer for delete", err)
		return
	}

	if err := h.svc.DeleteAnswer(c.Request.Context(), answerID); err != nil {
		FailErr(c, "deleting forum answer", err)
		return
	}
	OK(c, nil)
}
