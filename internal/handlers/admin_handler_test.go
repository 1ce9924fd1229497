package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"rootline/internal/database"
	"rootline/internal/docstore"
	"rootline/internal/models"
	"rootline/internal/repository"
	"rootline/internal/service"
)

type adminFixture struct {
	handler  *AdminHandler
	userRepo *repository.UserRepository
	store    docstore.Store
	admin    *models.User
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()

	dbPath := "test_admin_handler.db"
	db, err := database.Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	admin, err := userRepo.CreateUser("admin@example.com", "hash", "Admin")
	if err != nil {
		t.Fatalf("Failed to create admin: %v", err)
	}
	if !admin.IsAdmin {
		t.Fatal("first user should be admin")
	}

	store := docstore.NewMemStore()
	treeService := service.NewTreeService(store)
	handler := NewAdminHandler(service.NewBackupService(db), userRepo, treeService)

	return &adminFixture{handler: handler, userRepo: userRepo, store: store, admin: admin}
}

func (f *adminFixture) requestAsAdmin(method, target, body string) *http.Request {
	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, target, nil)
	} else {
		request = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return request.WithContext(context.WithValue(request.Context(), UserContextKey, f.admin))
}

func TestAdminListUsers(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping database-backed test in short mode")
	}
	f := newAdminFixture(t)

	if _, err := f.userRepo.CreateUser("member@example.com", "hash", "Member"); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	recorder := httptest.NewRecorder()
	f.handler.ListUsers(recorder, f.requestAsAdmin(http.MethodGet, "/admin/users", ""))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var resp struct {
		Users []adminUserResponse `json:"users"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(resp.Users))
	}

	emails := map[string]bool{}
	for _, u := range resp.Users {
		emails[u.Email] = u.IsAdmin
	}
	if !emails["admin@example.com"] {
		t.Error("admin account missing or not flagged admin")
	}
	if isAdmin, ok := emails["member@example.com"]; !ok || isAdmin {
		t.Error("member account missing or wrongly flagged admin")
	}
}

func TestAdminUpdateUser(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping database-backed test in short mode")
	}
	f := newAdminFixture(t)

	member, err := f.userRepo.CreateUser("member@example.com", "hash", "Member")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	recorder := httptest.NewRecorder()
	request := f.requestAsAdmin(http.MethodPut, "/admin/users/0", `{"name":"Promoted Member","isAdmin":true}`)
	request.SetPathValue("userId", fmt.Sprintf("%d", member.ID))
	f.handler.UpdateUser(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	updated, err := f.userRepo.GetUserByID(member.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error: %v", err)
	}
	if updated.Name != "Promoted Member" || !updated.IsAdmin {
		t.Errorf("user not updated: name=%q isAdmin=%v", updated.Name, updated.IsAdmin)
	}
	// Omitted email keeps its stored value
	if updated.Email != "member@example.com" {
		t.Errorf("email = %q, want unchanged", updated.Email)
	}
}

func TestAdminCannotDemoteSelf(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping database-backed test in short mode")
	}
	f := newAdminFixture(t)

	recorder := httptest.NewRecorder()
	request := f.requestAsAdmin(http.MethodPut, "/admin/users/0", `{"isAdmin":false}`)
	request.SetPathValue("userId", fmt.Sprintf("%d", f.admin.ID))
	f.handler.UpdateUser(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", recorder.Code, recorder.Body.String())
	}

	still, err := f.userRepo.GetUserByID(f.admin.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error: %v", err)
	}
	if !still.IsAdmin {
		t.Error("admin flag was removed despite the rejection")
	}
}

func TestAdminDeleteUserCascades(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping database-backed test in short mode")
	}
	f := newAdminFixture(t)
	ctx := context.Background()

	member, err := f.userRepo.CreateUser("member@example.com", "hash", "Member")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	memberID := userIDString(member.ID)

	trees := service.NewTreeService(f.store)
	tree, _ := trees.LoadTree(ctx, memberID)
	tree.Members = []models.FamilyMember{{ID: "m1", FullName: "M"}}
	if _, err := trees.SaveTree(ctx, memberID, tree); err != nil {
		t.Fatalf("SaveTree() error: %v", err)
	}

	recorder := httptest.NewRecorder()
	request := f.requestAsAdmin(http.MethodDelete, "/admin/users/0", "")
	request.SetPathValue("userId", fmt.Sprintf("%d", member.ID))
	f.handler.DeleteUser(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	gone, err := f.userRepo.GetUserByID(member.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error: %v", err)
	}
	if gone != nil {
		t.Error("user row survived deletion")
	}

	var doc models.FamilyTree
	if err := f.store.Get(ctx, "familyTrees", memberID, &doc); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("tree document survived deletion: %v", err)
	}
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping database-backed test in short mode")
	}
	f := newAdminFixture(t)

	recorder := httptest.NewRecorder()
	request := f.requestAsAdmin(http.MethodDelete, "/admin/users/0", "")
	request.SetPathValue("userId", fmt.Sprintf("%d", f.admin.ID))
	f.handler.DeleteUser(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", recorder.Code, recorder.Body.String())
	}
}
