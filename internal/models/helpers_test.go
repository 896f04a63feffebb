package models

import "testing"

func participants(userIDs ...string) []ParticipantPopulated {
	out := make([]ParticipantPopulated, len(userIDs))
	for i, id := range userIDs {
		out[i] = ParticipantPopulated{
			Participant: Participant{ID: "p-" + id, UserID: id},
			User:        UserSummary{ID: id},
		}
	}
	return out
}

func TestIsConversationParticipant(t *testing.T) {
	tests := []struct {
		name   string
		set    []ParticipantPopulated
		userID string
		want   bool
	}{
		{"member", participants("a", "b", "c"), "b", true},
		{"first member", participants("a", "b"), "a", true},
		{"last member", participants("a", "b"), "b", true},
		{"non-member", participants("a", "b"), "c", false},
		{"empty set", participants(), "a", false},
		{"nil set", nil, "a", false},
		{"empty user id", participants("a", "b"), "", false},
		{"case sensitive", participants("A"), "a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsConversationParticipant(tt.set, tt.userID)
			if got != tt.want {
				t.Errorf("IsConversationParticipant(%v, %q) = %v, want %v", tt.set, tt.userID, got, tt.want)
			}
		})
	}
}
