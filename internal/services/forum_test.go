package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tutorlink/internal/db"
	"tutorlink/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("getting sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return database
}

func seedUser(t *testing.T, database *gorm.DB, name string) models.User {
	t.Helper()
	user := models.User{Name: name, Email: name + "@example.com", Role: models.RoleStudent}
	if err := database.Create(&user).Error; err != nil {
		t.Fatalf("seeding user %s: %v", name, err)
	}
	return user
}

func seedCourse(t *testing.T, database *gorm.DB, ownerID uint) models.Course {
	t.Helper()
	course := models.Course{OwnerID: ownerID, Title: "Algorithms 101", OpenState: models.OpenStateOpen}
	if err := database.Create(&course).Error; err != nil {
		t.Fatalf("seeding course: %v", err)
	}
	return course
}

func TestForumThreadAndReplyTree(t *testing.T) {
	database := newTestDB(t)
	tutor := seedUser(t, database, "tutor")
	alice := seedUser(t, database, "alice")
	bob := seedUser(t, database, "bob")
	course := seedCourse(t, database, tutor.ID)

	svc := NewForumService(database, nil)
	ctx := context.Background()

	threadID, err := svc.CreateThread(ctx, course.ID, alice.ID, "How does quicksort pick a pivot?")
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}

	answerID, err := svc.AddAnswer(ctx, threadID, tutor.ID, "Usually the median of three.", nil)
	if err != nil {
		t.Fatalf("AddAnswer: %v", err)
	}
	followUpID, err := svc.CreateFollowUp(ctx, answerID, bob.ID, "What about random pivots?")
	if err != nil {
		t.Fatalf("CreateFollowUp: %v", err)
	}
	deeperID, err := svc.CreateFollowUp(ctx, followUpID, tutor.ID, "Also fine in practice.")
	if err != nil {
		t.Fatalf("nested CreateFollowUp: %v", err)
	}

	detail, err := svc.GetThreadDetail(ctx, threadID)
	if err != nil {
		t.Fatalf("GetThreadDetail: %v", err)
	}
	if detail.Thread.ID != threadID || detail.Thread.Author != "alice" {
		t.Fatalf("unexpected thread: %+v", detail.Thread)
	}
	if len(detail.Answers) != 1 {
		t.Fatalf("expected 1 top-level answer, got %d", len(detail.Answers))
	}
	root := detail.Answers[0]
	if root.ID != answerID || root.Author != "tutor" {
		t.Fatalf("unexpected root answer: %+v", root)
	}
	if len(root.FollowUps) != 1 || root.FollowUps[0].ID != followUpID {
		t.Fatalf("expected follow-up %d under root, got %+v", followUpID, root.FollowUps)
	}
	nested := root.FollowUps[0]
	if len(nested.FollowUps) != 1 || nested.FollowUps[0].ID != deeperID {
		t.Fatalf("expected follow-up %d at depth 2, got %+v", deeperID, nested.FollowUps)
	}
}

func TestCreateThreadBlankBody(t *testing.T) {
	database := newTestDB(t)
	alice := seedUser(t, database, "alice")
	course := seedCourse(t, database, alice.ID)

	svc := NewForumService(database, nil)
	_, err := svc.CreateThread(context.Background(), course.ID, alice.ID, "   \n\t ")
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	var count int64
	database.Model(&models.Thread{}).Count(&count)
	if count != 0 {
		t.Fatalf("blank thread was persisted")
	}
}

func TestAddAnswerMissingThread(t *testing.T) {
	database := newTestDB(t)
	alice := seedUser(t, database, "alice")

	svc := NewForumService(database, nil)
	_, err := svc.AddAnswer(context.Background(), 999, alice.ID, "hello", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddAnswerRejectsForeignParent(t *testing.T) {
	database := newTestDB(t)
	tutor := seedUser(t, database, "tutor")
	alice := seedUser(t, database, "alice")
	course := seedCourse(t, database, tutor.ID)

	svc := NewForumService(database, nil)
	ctx := context.Background()

	threadA, err := svc.CreateThread(ctx, course.ID, alice.ID, "thread A")
	if err != nil {
		t.Fatalf("CreateThread A: %v", err)
	}
	threadB, err := svc.CreateThread(ctx, course.ID, alice.ID, "thread B")
	if err != nil {
		t.Fatalf("CreateThread B: %v", err)
	}
	answerInB, err := svc.AddAnswer(ctx, threadB, tutor.ID, "answer in B", nil)
	if err != nil {
		t.Fatalf("AddAnswer: %v", err)
	}

	// Parent lives in thread B, so a reply in thread A must be rejected
	// without writing a row.
	_, err = svc.AddAnswer(ctx, threadA, alice.ID, "cross-thread reply", &answerInB)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	var count int64
	database.Model(&models.Answer{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected only the original answer, got %d rows", count)
	}

	_, err = svc.AddAnswer(ctx, threadA, alice.ID, "reply to ghost", uintPtr(999))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing parent, got %v", err)
	}
}

func TestCreateFollowUpMissingParent(t *testing.T) {
	database := newTestDB(t)
	alice := seedUser(t, database, "alice")
	seedCourse(t, database, alice.ID)

	svc := NewForumService(database, nil)
	_, err := svc.CreateFollowUp(context.Background(), 999, alice.ID, "orphan")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	var count int64
	database.Model(&models.Answer{}).Count(&count)
	if count != 0 {
		t.Fatalf("follow-up to a missing parent was persisted")
	}
}

func TestDeleteAnswerCascades(t *testing.T) {
	database := newTestDB(t)
	tutor := seedUser(t, database, "tutor")
	alice := seedUser(t, database, "alice")
	course := seedCourse(t, database, tutor.ID)

	svc := NewForumService(database, nil)
	ctx := context.Background()

	threadID, _ := svc.CreateThread(ctx, course.ID, alice.ID, "question")
	rootID, _ := svc.AddAnswer(ctx, threadID, tutor.ID, "root", nil)
	childID, _ := svc.CreateFollowUp(ctx, rootID, alice.ID, "child")
	grandchildID, _ := svc.CreateFollowUp(ctx, childID, tutor.ID, "grandchild")
	siblingID, _ := svc.AddAnswer(ctx, threadID, alice.ID, "sibling", nil)

	if err := svc.DeleteAnswer(ctx, childID); err != nil {
		t.Fatalf("DeleteAnswer: %v", err)
	}

	var remaining []models.Answer
	database.Find(&remaining)
	ids := make(map[uint]bool, len(remaining))
	for _, a := range remaining {
		ids[a.ID] = true
	}
	if !ids[rootID] || !ids[siblingID] {
		t.Fatalf("unrelated answers were deleted: %v", ids)
	}
	if ids[childID] || ids[grandchildID] {
		t.Fatalf("subtree was not fully removed: %v", ids)
	}

	if err := svc.DeleteAnswer(ctx, childID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted answer, got %v", err)
	}
}

func TestDeleteThreadCascadesAndIsIdempotent(t *testing.T) {
	database := newTestDB(t)
	tutor := seedUser(t, database, "tutor")
	alice := seedUser(t, database, "alice")
	course := seedCourse(t, database, tutor.ID)

	svc := NewForumService(database, nil)
	ctx := context.Background()

	threadID, _ := svc.CreateThread(ctx, course.ID, alice.ID, "question")
	answerID, _ := svc.AddAnswer(ctx, threadID, tutor.ID, "answer", nil)
	_, _ = svc.CreateFollowUp(ctx, answerID, alice.ID, "follow-up")

	otherThread, _ := svc.CreateThread(ctx, course.ID, alice.ID, "other question")
	_, _ = svc.AddAnswer(ctx, otherThread, tutor.ID, "other answer", nil)

	if err := svc.DeleteThread(ctx, threadID); err != nil {
		t.Fatalf("DeleteThread: %v", err)
	}
	if err := svc.DeleteThread(ctx, threadID); err != nil {
		t.Fatalf("repeated DeleteThread should be a no-op, got %v", err)
	}

	var threadCount, answerCount int64
	database.Model(&models.Thread{}).Count(&threadCount)
	database.Model(&models.Answer{}).Count(&answerCount)
	if threadCount != 1 || answerCount != 1 {
		t.Fatalf("expected the other thread untouched, got %d threads / %d answers", threadCount, answerCount)
	}

	if _, err := svc.GetThreadDetail(ctx, threadID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted thread, got %v", err)
	}
}

func TestListThreadsNewestFirst(t *testing.T) {
	database := newTestDB(t)
	alice := seedUser(t, database, "alice")
	course := seedCourse(t, database, alice.ID)

	svc := NewForumService(database, nil)
	ctx := context.Background()

	first, _ := svc.CreateThread(ctx, course.ID, alice.ID, "first")
	second, _ := svc.CreateThread(ctx, course.ID, alice.ID, "second")

	threads, err := svc.ListThreads(ctx, course.ID)
	if err != nil {
		t.Fatalf("ListThreads: %v", err)
	}
	if len(threads) != 2 {
		t.Fatalf("expected 2 threads, got %d", len(threads))
	}
	if threads[0].ID != second || threads[1].ID != first {
		t.Fatalf("expected newest first, got %d then %d", threads[0].ID, threads[1].ID)
	}

	empty, err := svc.ListThreads(ctx, 999)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty slice for unknown course, got %v / %v", empty, err)
	}
}
