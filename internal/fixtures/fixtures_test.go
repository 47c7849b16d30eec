package fixtures

import (
	"testing"
	"time"

	"github.com/miyobam/myb/internal/model"
)

func TestDemoUsers_ContainsAdminAccount(t *testing.T) {
	users := DemoUsers()

	var admin *model.User
	for i := range users {
		if users[i].ID == "admin-001" {
			admin = &users[i]
			break
		}
	}
	if admin == nil {
		t.Fatal("admin-001 not found in demo users")
	}
	if admin.Email != "miyobamhamalila@gmail.com" {
		t.Errorf("admin email = %q, want %q", admin.Email, "miyobamhamalila@gmail.com")
	}
	if admin.Role != model.RoleAdmin {
		t.Errorf("admin role = %q, want %q", admin.Role, model.RoleAdmin)
	}
	if !admin.IsAdmin() {
		t.Error("IsAdmin() = false, want true")
	}
}

func TestDemoUsers_RegularAccountsAreNotAdmin(t *testing.T) {
	for _, u := range DemoUsers() {
		if u.ID == "admin-001" {
			continue
		}
		if u.IsAdmin() {
			t.Errorf("user %s is admin, want regular user", u.ID)
		}
	}
}

func TestDemoBooks_ReturnsSixBooks(t *testing.T) {
	books := DemoBooks()
	if len(books) != 6 {
		t.Fatalf("len(books) = %d, want 6", len(books))
	}

	featured := 0
	for _, b := range books {
		if b.ID == "" || b.Title == "" || b.Author == "" || b.Genre == "" {
			t.Errorf("book %q has empty required field", b.ID)
		}
		if b.Featured {
			featured++
		}
	}
	if featured != 2 {
		t.Errorf("featured count = %d, want 2", featured)
	}
}

func TestDemoBookOfWeek_PrefersFeaturedBook(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	books := DemoBooks()

	bow := DemoBookOfWeek(books, now)
	if bow == nil {
		t.Fatal("expected book of week, got nil")
	}
	if bow.BookID != "demo-1" {
		t.Errorf("BookID = %q, want %q (first featured book)", bow.BookID, "demo-1")
	}
	if bow.Description != DemoBookOfWeekDescription {
		t.Errorf("Description = %q, want %q", bow.Description, DemoBookOfWeekDescription)
	}
	if got := bow.WeekEnd.Sub(bow.WeekStart); got != 7*24*time.Hour {
		t.Errorf("week length = %v, want %v", got, 7*24*time.Hour)
	}
}

func TestDemoBookOfWeek_FallsBackToFirstBook(t *testing.T) {
	now := time.Now()
	books := []model.Book{
		{ID: "b-1", Title: "Plain", Featured: false},
		{ID: "b-2", Title: "Also Plain", Featured: false},
	}

	bow := DemoBookOfWeek(books, now)
	if bow == nil {
		t.Fatal("expected book of week, got nil")
	}
	if bow.BookID != "b-1" {
		t.Errorf("BookID = %q, want %q", bow.BookID, "b-1")
	}
}

func TestDemoBookOfWeek_EmptyCatalogReturnsNil(t *testing.T) {
	if bow := DemoBookOfWeek(nil, time.Now()); bow != nil {
		t.Errorf("expected nil for empty catalog, got %+v", bow)
	}
}
