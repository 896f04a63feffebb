package models

// IsConversationParticipant reports whether userID is among the given
// participants. An empty participant set means "no", never an error.
// Used both to gate queries/mutations and to filter subscription
// payloads, so it must stay pure and side-effect free.
func IsConversationParticipant(participants []ParticipantPopulated, userID string) bool {
	for _, p := range participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
