package services

import (
	"testing"
	"time"

	"tutorlink/internal/models"
)

func uintPtr(v uint) *uint { return &v }

func answerAt(id uint, parentID *uint, offset time.Duration) models.Answer {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return models.Answer{
		ID:        id,
		ThreadID:  1,
		UserID:    1,
		Body:      "body",
		ParentID:  parentID,
		CreatedAt: base.Add(offset),
	}
}

func TestBuildAnswerTreeNesting(t *testing.T) {
	answers := []models.Answer{
		answerAt(1, nil, 0),
		answerAt(2, nil, time.Minute),
		answerAt(3, uintPtr(1), 2*time.Minute),
		answerAt(4, uintPtr(3), 3*time.Minute),
		answerAt(5, uintPtr(1), 4*time.Minute),
	}

	tree := BuildAnswerTree(answers)
	if len(tree) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(tree))
	}
	if tree[0].ID != 1 || tree[1].ID != 2 {
		t.Fatalf("unexpected root order: %d, %d", tree[0].ID, tree[1].ID)
	}

	first := tree[0]
	if len(first.FollowUps) != 2 {
		t.Fatalf("expected 2 follow-ups under answer 1, got %d", len(first.FollowUps))
	}
	if first.FollowUps[0].ID != 3 || first.FollowUps[1].ID != 5 {
		t.Fatalf("unexpected follow-up order: %d, %d", first.FollowUps[0].ID, first.FollowUps[1].ID)
	}
	if len(first.FollowUps[0].FollowUps) != 1 || first.FollowUps[0].FollowUps[0].ID != 4 {
		t.Fatalf("expected answer 4 nested under answer 3")
	}
}

func TestBuildAnswerTreeOrderTieBreak(t *testing.T) {
	// Same timestamp: lower ID wins.
	answers := []models.Answer{
		answerAt(7, nil, 0),
		answerAt(3, nil, 0),
		answerAt(5, nil, 0),
	}

	tree := BuildAnswerTree(answers)
	if len(tree) != 3 {
		t.Fatalf("expected 3 roots, got %d", len(tree))
	}
	for i, want := range []uint{3, 5, 7} {
		if tree[i].ID != want {
			t.Fatalf("root %d: expected ID %d, got %d", i, want, tree[i].ID)
		}
	}
}

func TestBuildAnswerTreeEmptyFollowUps(t *testing.T) {
	tree := BuildAnswerTree([]models.Answer{answerAt(1, nil, 0)})
	if tree[0].FollowUps == nil {
		t.Fatal("leaf FollowUps should be an empty slice, not nil")
	}
}

func TestBuildAnswerTreeDeepChain(t *testing.T) {
	answers := []models.Answer{answerAt(1, nil, 0)}
	for i := uint(2); i <= 50; i++ {
		answers = append(answers, answerAt(i, uintPtr(i-1), time.Duration(i)*time.Second))
	}

	tree := BuildAnswerTree(answers)
	node := &tree[0]
	depth := 1
	for len(node.FollowUps) > 0 {
		node = &node.FollowUps[0]
		depth++
	}
	if depth != 50 {
		t.Fatalf("expected chain depth 50, got %d", depth)
	}
}

func TestBuildAnswerTreeSurvivesCycle(t *testing.T) {
	// Corrupt data: answer 3 is its own parent. The builder must terminate
	// and still emit the healthy part of the tree.
	answers := []models.Answer{
		answerAt(1, nil, 0),
		answerAt(2, uintPtr(1), time.Minute),
		answerAt(3, uintPtr(3), 2*time.Minute),
	}

	done := make(chan []AnswerNode, 1)
	go func() { done <- BuildAnswerTree(answers) }()

	select {
	case tree := <-done:
		total := 0
		var count func(nodes []AnswerNode)
		count = func(nodes []AnswerNode) {
			for _, n := range nodes {
				total++
				count(n.FollowUps)
			}
		}
		count(tree)
		if total != 2 {
			t.Fatalf("expected the 2 healthy answers, got %d nodes", total)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("BuildAnswerTree did not terminate on cyclic input")
	}
}

func TestCollectSubtreeIDs(t *testing.T) {
	answers := []models.Answer{
		answerAt(1, nil, 0),
		answerAt(2, uintPtr(1), time.Minute),
		answerAt(3, uintPtr(2), 2*time.Minute),
		answerAt(4, nil, 3*time.Minute),
		answerAt(5, uintPtr(4), 4*time.Minute),
	}

	ids := collectSubtreeIDs(answers, 1)
	got := make(map[uint]bool, len(ids))
	for _, id := range ids {
		got[id] = true
	}
	if len(ids) != 3 || !got[1] || !got[2] || !got[3] {
		t.Fatalf("expected subtree {1,2,3}, got %v", ids)
	}
}
