package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
		{
			name:      "expired yesterday",
			expiresAt: time.Now().Add(-24 * time.Hour),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := Session{
				ID:        "test-session",
				UserID:    1,
				ExpiresAt: tt.expiresAt,
				CreatedAt: time.Now().Add(-1 * time.Hour),
			}
			result := session.IsExpired()
			if result != tt.want {
				t.Errorf("Session.IsExpired() = %v, want %v", result, tt.want)
			}
		})
	}
}

func TestFamilyCodeIsValid(t *testing.T) {
	tests := []struct {
		name      string
		isActive  bool
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "active and unexpired",
			isActive:  true,
			expiresAt: time.Now().Add(24 * time.Hour),
			want:      true,
		},
		{
			name:      "active but expired",
			isActive:  true,
			expiresAt: time.Now().Add(-1 * time.Minute),
			want:      false,
		},
		{
			name:      "deactivated before expiry",
			isActive:  false,
			expiresAt: time.Now().Add(24 * time.Hour),
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := FamilyCode{
				Code:      "ABCD1234",
				IsActive:  tt.isActive,
				ExpiresAt: tt.expiresAt,
				CreatedAt: time.Now().Add(-1 * time.Hour),
			}
			if got := code.IsValid(); got != tt.want {
				t.Errorf("FamilyCode.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewFamilyTreeSkeleton(t *testing.T) {
	tree := NewFamilyTree("42")

	if tree.ID != "42" || tree.OwnerID != "42" {
		t.Errorf("expected id and ownerId '42', got %q / %q", tree.ID, tree.OwnerID)
	}
	if tree.Version.Current != 1 {
		t.Errorf("expected version.current = 1, got %d", tree.Version.Current)
	}
	if tree.Members == nil || len(tree.Members) != 0 {
		t.Errorf("expected empty non-nil members, got %v", tree.Members)
	}
	if tree.Edges == nil || len(tree.Edges) != 0 {
		t.Errorf("expected empty non-nil edges, got %v", tree.Edges)
	}
	if tree.Settings != DefaultTreeSettings() {
		t.Errorf("expected defaulted settings, got %+v", tree.Settings)
	}
}

func TestIsValidEdgeType(t *testing.T) {
	valid := []EdgeType{
		EdgeParent, EdgeSpouse, EdgeAdoptive, EdgeStep,
		EdgeBigSister, EdgeLittleSister, EdgeBigBrother, EdgeLittleBrother,
		EdgeAunt, EdgeUncle, EdgeCousinBig, EdgeCousinLittle,
		EdgeGuardian, EdgeOther,
	}
	for _, et := range valid {
		if !IsValidEdgeType(et) {
			t.Errorf("IsValidEdgeType(%q) = false, want true", et)
		}
	}
	if IsValidEdgeType("grandparent") {
		t.Error("IsValidEdgeType(\"grandparent\") = true, want false")
	}
	if IsValidEdgeType("") {
		t.Error("IsValidEdgeType(\"\") = true, want false")
	}
}

func TestMemberAddTagSetSemantics(t *testing.T) {
	member := FamilyMember{ID: "m1"}
	member.AddTag("veteran")
	member.AddTag("immigrant")
	member.AddTag("veteran")
	member.AddTag("")

	if len(member.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %v", member.Tags)
	}
	if member.Tags[0] != "veteran" || member.Tags[1] != "immigrant" {
		t.Errorf("expected insertion order preserved, got %v", member.Tags)
	}
}

func TestCustomValueUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind CustomValueKind
		wantText string
	}{
		{
			name:     "plain string",
			input:    `"carpenter"`,
			wantKind: CustomString,
			wantText: "carpenter",
		},
		{
			name:     "string list",
			input:    `["Cork","Boston"]`,
			wantKind: CustomStringList,
			wantText: "Cork, Boston",
		},
		{
			name:     "structured with summary",
			input:    `{"summary":"emigrated 1887","detail":{"ship":"SS Gaelic"}}`,
			wantKind: CustomStructured,
			wantText: "emigrated 1887",
		},
		{
			name:     "object without summary",
			input:    `{"ship":"SS Gaelic"}`,
			wantKind: CustomUnrecognized,
			wantText: `{"ship":"SS Gaelic"}`,
		},
		{
			name:     "number",
			input:    `7`,
			wantKind: CustomUnrecognized,
			wantText: `7`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v CustomValue
			if err := json.Unmarshal([]byte(tt.input), &v); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.input, err)
			}
			if v.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", v.Kind, tt.wantKind)
			}
			if v.Display() != tt.wantText {
				t.Errorf("Display() = %q, want %q", v.Display(), tt.wantText)
			}
		})
	}
}

func TestCustomValueRoundTrip(t *testing.T) {
	input := `{"occupation":"carpenter","regions":["Cork","Boston"],"note":{"summary":"emigrated 1887"}}`

	var fields map[string]CustomValue
	if err := json.Unmarshal([]byte(input), &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	out, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var again map[string]CustomValue
	if err := json.Unmarshal(out, &again); err != nil {
		t.Fatalf("re-Unmarshal() error = %v", err)
	}
	if again["occupation"].Str != "carpenter" {
		t.Errorf("occupation lost in round trip: %+v", again["occupation"])
	}
	if len(again["regions"].List) != 2 {
		t.Errorf("regions lost in round trip: %+v", again["regions"])
	}
	if again["note"].Summary != "emigrated 1887" {
		t.Errorf("note summary lost in round trip: %+v", again["note"])
	}
}
