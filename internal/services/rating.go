package services

import (
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"tutorlink/internal/models"
)

// RatingService recomputes a course's average rating asynchronously so the
// catalog can show it without aggregating on every read.
type RatingService struct {
	db      *gorm.DB
	queue   chan uint // course IDs awaiting recompute
	pending map[uint]bool
	mu      sync.Mutex
}

func NewRatingService(database *gorm.DB) *RatingService {
	s := &RatingService{
		db:      database,
		queue:   make(chan uint, 1000),
		pending: make(map[uint]bool),
	}
	go s.worker()
	return s
}

// ScheduleUpdate queues a course for aggregate recompute, deduplicating
// requests that arrive while one is already pending.
func (s *RatingService) ScheduleUpdate(courseID uint) {
	s.mu.Lock()
	if s.pending[courseID] {
		s.mu.Unlock()
		return
	}
	s.pending[courseID] = true
	s.mu.Unlock()

	select {
	case s.queue <- courseID:
	default:
		s.mu.Lock()
		delete(s.pending, courseID)
		s.mu.Unlock()
		log.Printf("rating update queue full, skipping course %d", courseID)
	}
}

func (s *RatingService) worker() {
	batch := make([]uint, 0, 50)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case courseID := <-s.queue:
			batch = append(batch, courseID)
			if len(batch) >= 50 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *RatingService) processBatch(courseIDs []uint) {
	for _, courseID := range courseIDs {
		s.UpdateCourseRating(courseID)

		s.mu.Lock()
		delete(s.pending, courseID)
		s.mu.Unlock()
	}
}

// UpdateCourseRating recomputes and stores one course's average and count.
func (s *RatingService) UpdateCourseRating(courseID uint) {
	type aggregate struct {
		Avg   float64
		Count int64
	}
	var agg aggregate
	err := s.db.Model(&models.Rating{}).
		Select("COALESCE(AVG(score), 0) as avg, COUNT(*) as count").
		Where("course_id = ?", courseID).
		Scan(&agg).Error
	if err != nil {
		log.Printf("rating aggregate for course %d failed: %v", courseID, err)
		return
	}

	err = s.db.Model(&models.Course{}).
		Where("id = ?", courseID).
		Updates(map[string]interface{}{
			"avg_rating":   agg.Avg,
			"rating_count": agg.Count,
		}).Error
	if err != nil {
		log.Printf("rating update for course %d failed: %v", courseID, err)
	}
}
