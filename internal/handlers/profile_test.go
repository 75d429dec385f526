package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"tutorlink/internal/models"
)

func TestProfileUpdate(t *testing.T) {
	r, database := newTestServer(t)
	alice := seedUser(t, database, "alice", models.RoleStudent)
	bob := seedUser(t, database, "bob", models.RoleStudent)
	admin := seedUser(t, database, "root", models.RoleAdmin)

	path := fmt.Sprintf("/api/profile/%d", alice.ID)

	w, resp := doJSON(t, r, http.MethodPut, path,
		`{"name":"Alice B","current_role":"Tutor","email":"alice.b@example.com","more_detail":"TA for algorithms"}`, alice.ID)
	if w.Code != http.StatusOK || resp["success"] != true {
		t.Fatalf("self update failed: %d %v", w.Code, resp)
	}

	var updated models.User
	if err := database.First(&updated, alice.ID).Error; err != nil {
		t.Fatalf("reloading user: %v", err)
	}
	if updated.Name != "Alice B" || updated.Role != models.RoleTutor || updated.Email != "alice.b@example.com" {
		t.Fatalf("profile not persisted: %+v", updated)
	}

	// Someone else's profile is off limits.
	w, _ = doJSON(t, r, http.MethodPut, path,
		`{"name":"Mallory","current_role":"Student","email":"m@example.com"}`, bob.ID)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign profile, got %d", w.Code)
	}

	// Required fields.
	w, _ = doJSON(t, r, http.MethodPut, path, `{"name":"","current_role":"Student","email":"a@example.com"}`, alice.ID)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", w.Code)
	}

	// Self-promotion to admin is rejected; an admin may grant it.
	w, _ = doJSON(t, r, http.MethodPut, path,
		`{"name":"Alice B","current_role":"Admin","email":"alice.b@example.com"}`, alice.ID)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for self-promotion, got %d", w.Code)
	}
	w, _ = doJSON(t, r, http.MethodPut, path,
		`{"name":"Alice B","current_role":"Admin","email":"alice.b@example.com"}`, admin.ID)
	if w.Code != http.StatusOK {
		t.Fatalf("admin role grant failed: %d", w.Code)
	}
}

func TestProfileGet(t *testing.T) {
	r, database := newTestServer(t)
	alice := seedUser(t, database, "alice", models.RoleStudent)

	w, resp := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/profile/%d", alice.ID), "", 0)
	if w.Code != http.StatusOK {
		t.Fatalf("profile get failed: %d", w.Code)
	}
	user := resp["user"].(map[string]any)
	if user["name"] != "alice" || user["current_role"] != models.RoleStudent {
		t.Fatalf("unexpected profile: %v", user)
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/profile/999", "", 0)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing user, got %d", w.Code)
	}
}
