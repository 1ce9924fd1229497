package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"rootline/internal/docstore"
	"rootline/internal/models"
)

func newTreeService() *TreeService {
	return NewTreeService(docstore.NewMemStore())
}

func TestLoadTreeSynthesizesSkeleton(t *testing.T) {
	s := newTreeService()

	tree, err := s.LoadTree(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("LoadTree() error: %v", err)
	}

	if tree.ID != "user-1" || tree.OwnerID != "user-1" {
		t.Errorf("skeleton ids = %s/%s, want user-1/user-1", tree.ID, tree.OwnerID)
	}
	if tree.Members == nil || len(tree.Members) != 0 {
		t.Errorf("skeleton members = %v, want empty non-nil slice", tree.Members)
	}
	if tree.Edges == nil || len(tree.Edges) != 0 {
		t.Errorf("skeleton edges = %v, want empty non-nil slice", tree.Edges)
	}
	if tree.Version.Current != 1 {
		t.Errorf("skeleton version = %d, want 1", tree.Version.Current)
	}
	if tree.Settings.Theme == "" {
		t.Error("skeleton should carry default settings")
	}
}

func TestSaveTreeRejectsMalformedPayload(t *testing.T) {
	s := newTreeService()
	ctx := context.Background()

	tests := []struct {
		name string
		tree *models.FamilyTree
	}{
		{"nil tree", nil},
		{"nil members", &models.FamilyTree{Edges: []models.FamilyEdge{}}},
		{"nil edges", &models.FamilyTree{Members: []models.FamilyMember{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SaveTree(ctx, "user-1", tt.tree)
			if !errors.Is(err, ErrMalformedTree) {
				t.Errorf("SaveTree() error = %v, want ErrMalformedTree", err)
			}
		})
	}

	// Nothing was written
	tree, err := s.LoadTree(ctx, "user-1")
	if err != nil {
		t.Fatalf("LoadTree() error: %v", err)
	}
	if tree.Version.Current != 1 {
		t.Errorf("rejected saves must not advance version, got %d", tree.Version.Current)
	}
}

func TestSaveTreeRewritesIdentityAndVersions(t *testing.T) {
	s := newTreeService()
	ctx := context.Background()

	tree := models.NewFamilyTree("someone-else")
	tree.Members = []models.FamilyMember{
		{ID: "m1", FullName: "Ada Hale"},
		{ID: "m2", FullName: "Tom Hale"},
	}

	saved, err := s.SaveTree(ctx, "user-1", tree)
	if err != nil {
		t.Fatalf("SaveTree() error: %v", err)
	}

	if saved.ID != "user-1" || saved.OwnerID != "user-1" {
		t.Errorf("identity = %s/%s, want rewritten to user-1", saved.ID, saved.OwnerID)
	}
	if saved.Version.Current != 2 {
		t.Errorf("version = %d, want 2 after first save", saved.Version.Current)
	}
	if len(saved.Version.History) != 1 {
		t.Fatalf("history length = %d, want 1", len(saved.Version.History))
	}
	if saved.Version.History[0].Summary != "Updated tree with 2 members" {
		t.Errorf("history summary = %q", saved.Version.History[0].Summary)
	}
}

func TestSaveTreeHistoryTruncation(t *testing.T) {
	s := newTreeService()
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		tree, err := s.LoadTree(ctx, "user-1")
		if err != nil {
			t.Fatalf("LoadTree() error: %v", err)
		}
		tree.Members = append(tree.Members, models.FamilyMember{
			ID:       fmt.Sprintf("m%d", i),
			FullName: fmt.Sprintf("Member %d", i),
		})
		if _, err := s.SaveTree(ctx, "user-1", tree); err != nil {
			t.Fatalf("SaveTree() error: %v", err)
		}
	}

	tree, err := s.LoadTree(ctx, "user-1")
	if err != nil {
		t.Fatalf("LoadTree() error: %v", err)
	}

	if tree.Version.Current != 12 {
		t.Errorf("version = %d, want 12 after 11 saves on a fresh tree", tree.Version.Current)
	}
	if len(tree.Version.History) != models.VersionHistoryLimit {
		t.Errorf("history length = %d, want %d", len(tree.Version.History), models.VersionHistoryLimit)
	}
	// Oldest entry dropped, newest kept
	last := tree.Version.History[len(tree.Version.History)-1]
	if last.Summary != "Updated tree with 11 members" {
		t.Errorf("newest history entry = %q", last.Summary)
	}
	first := tree.Version.History[0]
	if first.Summary != "Updated tree with 2 members" {
		t.Errorf("oldest surviving entry = %q, want the second save's", first.Summary)
	}
}

func TestConcurrentSaveLastWriterWins(t *testing.T) {
	// Two clients load the same tree, edit independently, and save. There
	// is no compare-and-set: the second save replaces the first wholesale.
	s := newTreeService()
	ctx := context.Background()

	base, _ := s.LoadTree(ctx, "user-1")
	base.Members = []models.FamilyMember{{ID: "m1", FullName: "Shared Ancestor"}}
	if _, err := s.SaveTree(ctx, "user-1", base); err != nil {
		t.Fatalf("SaveTree() error: %v", err)
	}

	// Drive the stored tree to version 5 before the race
	for i := 0; i < 3; i++ {
		tree, _ := s.LoadTree(ctx, "user-1")
		if _, err := s.SaveTree(ctx, "user-1", tree); err != nil {
			t.Fatalf("SaveTree() error: %v", err)
		}
	}

	first, _ := s.LoadTree(ctx, "user-1")
	second, _ := s.LoadTree(ctx, "user-1")
	if first.Version.Current != 5 {
		t.Fatalf("setup version = %d, want 5", first.Version.Current)
	}

	first.Members = append(first.Members, models.FamilyMember{ID: "m2", FullName: "First Writer"})
	second.Members = append(second.Members, models.FamilyMember{ID: "m3", FullName: "Second Writer"})

	if _, err := s.SaveTree(ctx, "user-1", first); err != nil {
		t.Fatalf("SaveTree() error: %v", err)
	}
	if _, err := s.SaveTree(ctx, "user-1", second); err != nil {
		t.Fatalf("SaveTree() error: %v", err)
	}

	final, _ := s.LoadTree(ctx, "user-1")
	if final.FindMember("m2") != nil {
		t.Error("first writer's member survived; expected it to be lost")
	}
	if final.FindMember("m3") == nil {
		t.Error("second writer's member missing; expected last writer to win")
	}
	// Both writers loaded at version 5, so the surviving write is version 6.
	// The overwrite covers the version bump too; the counter does not double
	// up to 7.
	if final.Version.Current != 6 {
		t.Errorf("version = %d, want 6 (overwrite includes the version bump)", final.Version.Current)
	}
}

func TestAddMemberValidatesDates(t *testing.T) {
	s := newTreeService()
	ctx := context.Background()

	_, err := s.AddMember(ctx, "user-1", models.FamilyMember{
		FullName:  "Impossible Person",
		BirthDate: "2999-01-01",
	})
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("AddMember() error = %v, want ErrValidationFailed", err)
	}

	tree, _ := s.LoadTree(ctx, "user-1")
	if len(tree.Members) != 0 {
		t.Error("rejected member must not be persisted")
	}

	saved, err := s.AddMember(ctx, "user-1", models.FamilyMember{
		FullName:  "Real Person",
		BirthDate: "1990-05-04",
	})
	if err != nil {
		t.Fatalf("AddMember() error: %v", err)
	}
	if len(saved.Members) != 1 || saved.Members[0].ID == "" {
		t.Errorf("member not persisted with generated id: %+v", saved.Members)
	}
}

func TestRemoveMemberCleansIncidentEdges(t *testing.T) {
	s := newTreeService()
	ctx := context.Background()

	tree, _ := s.LoadTree(ctx, "user-1")
	tree.Members = []models.FamilyMember{
		{ID: "a", FullName: "A"},
		{ID: "b", FullName: "B"},
		{ID: "c", FullName: "C"},
	}
	tree.Edges = []models.FamilyEdge{
		{ID: "e1", FromID: "a", ToID: "b", Type: models.EdgeParent},
		{ID: "e2", FromID: "b", ToID: "c", Type: models.EdgeParent},
		{ID: "e3", FromID: "a", ToID: "c", Type: models.EdgeGuardian},
	}
	if _, err := s.SaveTree(ctx, "user-1", tree); err != nil {
		t.Fatalf("SaveTree() error: %v", err)
	}

	saved, err := s.RemoveMember(ctx, "user-1", "b")
	if err != nil {
		t.Fatalf("RemoveMember() error: %v", err)
	}

	if saved.FindMember("b") != nil {
		t.Error("member b should be gone")
	}
	if len(saved.Edges) != 1 || saved.Edges[0].ID != "e3" {
		t.Errorf("edges = %+v, want only e3 to survive", saved.Edges)
	}
}

func TestAddEdgeValidation(t *testing.T) {
	s := newTreeService()
	ctx := context.Background()

	tree, _ := s.LoadTree(ctx, "user-1")
	tree.Members = []models.FamilyMember{
		{ID: "a", FullName: "A"},
		{ID: "b", FullName: "B"},
	}
	if _, err := s.SaveTree(ctx, "user-1", tree); err != nil {
		t.Fatalf("SaveTree() error: %v", err)
	}

	tests := []struct {
		name    string
		edge    models.FamilyEdge
		wantErr bool
	}{
		{"valid", models.FamilyEdge{FromID: "a", ToID: "b", Type: models.EdgeSpouse}, false},
		{"self loop", models.FamilyEdge{FromID: "a", ToID: "a", Type: models.EdgeParent}, true},
		{"missing endpoint", models.FamilyEdge{FromID: "a", ToID: "ghost", Type: models.EdgeParent}, true},
		{"unknown type", models.FamilyEdge{FromID: "a", ToID: "b", Type: "sworn_enemy"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddEdge(ctx, "user-1", tt.edge)
			if tt.wantErr && !errors.Is(err, ErrValidationFailed) {
				t.Errorf("AddEdge() error = %v, want ErrValidationFailed", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("AddEdge() error: %v", err)
			}
		})
	}
}

func TestSubfamilyLifecycle(t *testing.T) {
	s := newTreeService()
	ctx := context.Background()

	// Empty list on a never-saved tree
	subs, err := s.ListSubfamilies(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListSubfamilies() error: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("expected empty list, got %v", subs)
	}

	if _, err := s.CreateSubfamily(ctx, "user-1", models.Subfamily{}); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("empty name should fail validation, got %v", err)
	}

	created, err := s.CreateSubfamily(ctx, "user-1", models.Subfamily{
		Name:      "Hale Branch",
		MemberIDs: []string{"m1", "m2"},
	})
	if err != nil {
		t.Fatalf("CreateSubfamily() error: %v", err)
	}
	if created.ID == "" || created.ParentFamilyID != "user-1" {
		t.Errorf("created subfamily = %+v", created)
	}

	// Subfamily writes stamp updatedAt but never advance the version counter
	tree, _ := s.LoadTree(ctx, "user-1")
	if tree.Version.Current != 1 {
		t.Errorf("version = %d, want 1 (subfamily writes are unversioned)", tree.Version.Current)
	}

	created.Name = "Hale Branch (renamed)"
	updated, err := s.UpdateSubfamily(ctx, "user-1", *created)
	if err != nil {
		t.Fatalf("UpdateSubfamily() error: %v", err)
	}
	if updated.Name != "Hale Branch (renamed)" {
		t.Errorf("updated name = %q", updated.Name)
	}

	if _, err := s.UpdateSubfamily(ctx, "user-1", models.Subfamily{ID: "missing", Name: "x"}); !errors.Is(err, ErrSubfamilyNotFound) {
		t.Errorf("UpdateSubfamily(absent) error = %v, want ErrSubfamilyNotFound", err)
	}

	if err := s.DeleteSubfamily(ctx, "user-1", created.ID); err != nil {
		t.Fatalf("DeleteSubfamily() error: %v", err)
	}
	// Deleting again is a no-op
	if err := s.DeleteSubfamily(ctx, "user-1", created.ID); err != nil {
		t.Fatalf("repeat DeleteSubfamily() error: %v", err)
	}
}

func TestUpdateSubfamilyMergesPartialFields(t *testing.T) {
	s := newTreeService()
	ctx := context.Background()

	created, err := s.CreateSubfamily(ctx, "user-1", models.Subfamily{
		Name:         "Hale Branch",
		Description:  "The northern line",
		HeadMemberID: "m1",
		MemberIDs:    []string{"m1", "m2"},
	})
	if err != nil {
		t.Fatalf("CreateSubfamily() error: %v", err)
	}

	// A description-only patch leaves everything else alone
	updated, err := s.UpdateSubfamily(ctx, "user-1", models.Subfamily{
		ID:          created.ID,
		Description: "The coastal line",
	})
	if err != nil {
		t.Fatalf("UpdateSubfamily() error: %v", err)
	}
	if updated.Name != "Hale Branch" {
		t.Errorf("name = %q, want unchanged", updated.Name)
	}
	if updated.Description != "The coastal line" {
		t.Errorf("description = %q, want patched value", updated.Description)
	}
	if updated.HeadMemberID != "m1" {
		t.Errorf("headMemberId = %q, want unchanged", updated.HeadMemberID)
	}
	if len(updated.MemberIDs) != 2 {
		t.Errorf("memberIds = %v, want unchanged", updated.MemberIDs)
	}
	if !updated.UpdatedAt.After(created.CreatedAt) && !updated.UpdatedAt.Equal(created.CreatedAt) {
		t.Errorf("updatedAt not stamped: %v", updated.UpdatedAt)
	}

	// A membership-only patch keeps name and description
	updated, err = s.UpdateSubfamily(ctx, "user-1", models.Subfamily{
		ID:        created.ID,
		MemberIDs: []string{"m3"},
	})
	if err != nil {
		t.Fatalf("UpdateSubfamily() error: %v", err)
	}
	if updated.Name != "Hale Branch" || updated.Description != "The coastal line" {
		t.Errorf("name/description = %q/%q, want preserved", updated.Name, updated.Description)
	}
	if len(updated.MemberIDs) != 1 || updated.MemberIDs[0] != "m3" {
		t.Errorf("memberIds = %v, want replaced with m3", updated.MemberIDs)
	}
}

func TestDeleteTreeCascades(t *testing.T) {
	store := docstore.NewMemStore()
	trees := NewTreeService(store)
	shares := NewShareService(store)
	codes := NewCodeService(store, shares)
	ctx := context.Background()

	tree, _ := trees.LoadTree(ctx, "user-1")
	tree.Members = []models.FamilyMember{{ID: "m1", FullName: "M"}}
	if _, err := trees.SaveTree(ctx, "user-1", tree); err != nil {
		t.Fatalf("SaveTree() error: %v", err)
	}
	if _, err := shares.GrantShare(ctx, "user-1", "user-2", "two@example.com", models.RoleViewer); err != nil {
		t.Fatalf("GrantShare() error: %v", err)
	}
	if _, err := codes.GenerateCode(ctx, "user-1", "Hale"); err != nil {
		t.Fatalf("GenerateCode() error: %v", err)
	}

	if err := trees.DeleteTree(ctx, "user-1"); err != nil {
		t.Fatalf("DeleteTree() error: %v", err)
	}

	remaining, err := shares.ListShares(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListShares() error: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("shares survived cascade: %v", remaining)
	}

	remainingCodes, err := codes.ListCodes(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListCodes() error: %v", err)
	}
	if len(remainingCodes) != 0 {
		t.Errorf("codes survived cascade: %v", remainingCodes)
	}

	// Tree itself is back to a fresh skeleton
	fresh, _ := trees.LoadTree(ctx, "user-1")
	if len(fresh.Members) != 0 || fresh.Version.Current != 1 {
		t.Errorf("tree not reset after delete: %+v", fresh.Version)
	}
}
