package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"tutorlink/internal/models"
)

// storageTimeout bounds every storage round-trip; a timeout surfaces as a
// wrapped storage error.
const storageTimeout = 5 * time.Second

// ForumService orchestrates thread/answer/follow-up creation, deletion and
// tree retrieval for course forums.
type ForumService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewForumService(database *gorm.DB, notifier *NotificationService) *ForumService {
	return &ForumService{db: database, notifier: notifier}
}

// ThreadDetail is a thread together with its fully assembled reply tree.
type ThreadDetail struct {
	Thread  models.Thread `json:"thread"`
	Answers []AnswerNode  `json:"answers"`
}

// ListThreads returns a course's threads, newest first, annotated with the
// author display name. An empty course yields an empty slice, not an error.
func (s *ForumService) ListThreads(ctx context.Context, courseID uint) ([]models.Thread, error) {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	threads := []models.Thread{}
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("course_id = ?", courseID).
		Order("created_at DESC, id DESC").
		Find(&threads).Error
	if err != nil {
		return nil, fmt.Errorf("listing forum threads: %w", err)
	}
	for i := range threads {
		threads[i].Author = threads[i].User.Name
	}
	return threads, nil
}

// GetThreadDetail loads the thread and all of its answers in one bulk fetch,
// then assembles the reply tree in memory.
func (s *ForumService) GetThreadDetail(ctx context.Context, threadID uint) (*ThreadDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	var thread models.Thread
	if err := s.db.WithContext(ctx).Preload("User").First(&thread, threadID).Error; err != nil {
		return nil, trapNotFound(err, "loading forum thread")
	}
	thread.Author = thread.User.Name

	var answers []models.Answer
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("thread_id = ?", thread.ID).
		Find(&answers).Error
	if err != nil {
		return nil, fmt.Errorf("loading forum answers: %w", err)
	}

	tree := BuildAnswerTree(answers)
	fillAuthors(tree)
	return &ThreadDetail{Thread: thread, Answers: tree}, nil
}

func fillAuthors(nodes []AnswerNode) {
	for i := range nodes {
		nodes[i].Author = nodes[i].User.Name
		fillAuthors(nodes[i].FollowUps)
	}
}

// CreateThread posts a new question in a course's forum and returns the new
// thread ID. The course owner is notified in the background.
func (s *ForumService) CreateThread(ctx context.Context, courseID, authorID uint, body string) (uint, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return 0, &ValidationError{Field: "inner_body", Reason: "must not be blank"}
	}

	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	thread := models.Thread{CourseID: courseID, UserID: authorID, Body: body}
	if err := s.db.WithContext(ctx).Create(&thread).Error; err != nil {
		return 0, fmt.Errorf("creating forum thread: %w", err)
	}

	if s.notifier != nil {
		go s.notifyCourseOwner(thread.ID, courseID, authorID)
	}
	return thread.ID, nil
}

func (s *ForumService) notifyCourseOwner(threadID, courseID, authorID uint) {
	var course models.Course
	if err := s.db.First(&course, courseID).Error; err != nil {
		log.Printf("forum: course %d lookup for notification failed: %v", courseID, err)
		return
	}
	if course.OwnerID == authorID {
		return
	}
	msg := fmt.Sprintf("A new question was posted in the forum of %q", course.Title)
	if _, err := s.notifier.Notify(context.Background(), course.OwnerID, courseID, models.NotificationTypeForum, msg, &threadID); err != nil {
		log.Printf("forum: failed to notify course owner %d: %v", course.OwnerID, err)
	}
}

// AddAnswer replies to a thread. With a parent answer ID the reply becomes a
// follow-up; the parent must exist and belong to the same thread.
func (s *ForumService) AddAnswer(ctx context.Context, threadID, authorID uint, body string, parentID *uint) (uint, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return 0, &ValidationError{Field: "answer_body", Reason: "must not be blank"}
	}

	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	var thread models.Thread
	if err := s.db.WithContext(ctx).First(&thread, threadID).Error; err != nil {
		return 0, trapNotFound(err, "loading forum thread")
	}

	recipientID := thread.UserID
	if parentID != nil {
		var parent models.Answer
		if err := s.db.WithContext(ctx).First(&parent, *parentID).Error; err != nil {
			return 0, trapNotFound(err, "loading parent answer")
		}
		if parent.ThreadID != thread.ID {
			return 0, ErrNotFound
		}
		recipientID = parent.UserID
	}

	answer := models.Answer{ThreadID: thread.ID, UserID: authorID, Body: body, ParentID: parentID}
	if err := s.db.WithContext(ctx).Create(&answer).Error; err != nil {
		return 0, fmt.Errorf("creating forum answer: %w", err)
	}

	s.notifyReply(recipientID, authorID, thread.CourseID, answer.ID)
	return answer.ID, nil
}

// CreateFollowUp replies to an existing answer, resolving the thread from the
// parent row.
func (s *ForumService) CreateFollowUp(ctx context.Context, parentAnswerID, authorID uint, body string) (uint, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return 0, &ValidationError{Field: "followup_body", Reason: "must not be blank"}
	}

	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	// Resolve and insert in one transaction so the parent cannot vanish
	// between the two steps.
	var parent models.Answer
	var followUp models.Answer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Thread").First(&parent, parentAnswerID).Error; err != nil {
			return trapNotFound(err, "loading parent answer")
		}
		followUp = models.Answer{ThreadID: parent.ThreadID, UserID: authorID, Body: body, ParentID: &parent.ID}
		if err := tx.Create(&followUp).Error; err != nil {
			return fmt.Errorf("creating follow-up: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.notifyReply(parent.UserID, authorID, parent.Thread.CourseID, followUp.ID)
	return followUp.ID, nil
}

func (s *ForumService) notifyReply(recipientID, actorID, courseID, answerID uint) {
	if s.notifier == nil || recipientID == actorID {
		return
	}
	go func() {
		var actor models.User
		if err := s.db.First(&actor, actorID).Error; err != nil {
			log.Printf("forum: actor %d lookup for notification failed: %v", actorID, err)
			return
		}
		msg := fmt.Sprintf("%s replied to your forum post", actor.Name)
		if _, err := s.notifier.Notify(context.Background(), recipientID, courseID, models.NotificationTypeForum, msg, &answerID); err != nil {
			log.Printf("forum: failed to notify user %d: %v", recipientID, err)
		}
	}()
}

// DeleteThread removes a thread and every answer belonging to it, children
// first, in one transaction. Deleting a missing thread is a no-op.
func (s *ForumService) DeleteThread(ctx context.Context, threadID uint) error {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread_id = ?", threadID).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Thread{}, threadID).Error
	})
	if err != nil {
		return fmt.Errorf("deleting forum thread: %w", err)
	}
	return nil
}

// DeleteAnswer removes an answer together with its whole follow-up subtree,
// mirroring DeleteThread's cascade, in one transaction.
func (s *ForumService) DeleteAnswer(ctx context.Context, answerID uint) error {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	var answer models.Answer
	if err := s.db.WithContext(ctx).First(&answer, answerID).Error; err != nil {
		return trapNotFound(err, "loading forum answer")
	}

	var rows []models.Answer
	err := s.db.WithContext(ctx).
		Select("id", "parent_id").
		Where("thread_id = ?", answer.ThreadID).
		Find(&rows).Error
	if err != nil {
		return fmt.Errorf("loading forum answers: %w", err)
	}

	ids := collectSubtreeIDs(rows, answer.ID)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("id IN ?", ids).Delete(&models.Answer{}).Error
	})
	if err != nil {
		return fmt.Errorf("deleting forum answer: %w", err)
	}
	return nil
}
