package services

import (
	"sort"

	"tutorlink/internal/models"
)

// AnswerNode is one node of the reply tree: an answer plus its follow-ups,
// nested to arbitrary depth.
type AnswerNode struct {
	models.Answer
	BodyHTML  string       `json:"body_html,omitempty"`
	Author    string       `json:"author,omitempty"`
	FollowUps []AnswerNode `json:"followUps"`
}

// BuildAnswerTree assembles the nested reply forest for one thread from its
// flat answer rows. Roots are the answers without a parent; every node's
// follow-ups are ordered by creation time, ties broken by ascending ID.
// No ordering is assumed from storage.
func BuildAnswerTree(answers []models.Answer) []AnswerNode {
	var roots []models.Answer
	children := make(map[uint][]models.Answer)
	for _, a := range answers {
		if a.ParentID == nil {
			roots = append(roots, a)
		} else {
			children[*a.ParentID] = append(children[*a.ParentID], a)
		}
	}
	sortAnswers(roots)
	for _, group := range children {
		sortAnswers(group)
	}

	// A malformed parent chain (an answer that is its own ancestor) must not
	// hang the traversal; visited edges are attached once and cycles dropped.
	visited := make(map[uint]bool, len(answers))

	var attach func(a models.Answer) AnswerNode
	attach = func(a models.Answer) AnswerNode {
		visited[a.ID] = true
		node := AnswerNode{Answer: a, FollowUps: []AnswerNode{}}
		for _, child := range children[a.ID] {
			if visited[child.ID] {
				continue
			}
			node.FollowUps = append(node.FollowUps, attach(child))
		}
		return node
	}

	forest := make([]AnswerNode, 0, len(roots))
	for _, root := range roots {
		forest = append(forest, attach(root))
	}
	return forest
}

func sortAnswers(answers []models.Answer) {
	sort.SliceStable(answers, func(i, j int) bool {
		if answers[i].CreatedAt.Equal(answers[j].CreatedAt) {
			return answers[i].ID < answers[j].ID
		}
		return answers[i].CreatedAt.Before(answers[j].CreatedAt)
	})
}

// collectSubtreeIDs returns the given answer ID plus the IDs of every answer
// whose parent chain resolves to it, walked over the flat row set.
func collectSubtreeIDs(answers []models.Answer, rootID uint) []uint {
	children := make(map[uint][]uint)
	for _, a := range answers {
		if a.ParentID != nil {
			children[*a.ParentID] = append(children[*a.ParentID], a.ID)
		}
	}

	ids := []uint{rootID}
	seen := map[uint]bool{rootID: true}
	for i := 0; i < len(ids); i++ {
		for _, child := range children[ids[i]] {
			if seen[child] {
				continue
			}
			seen[child] = true
			ids = append(ids, child)
		}
	}
	return ids
}
