package bus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEventRoundTrip(t *testing.T) {
	conv := testConversation("c1", "u1", "u2")
	payload, err := json.Marshal(&ConversationCreated{Conversation: conv})
	require.NoError(t, err)
	data, err := json.Marshal(envelope{Kind: TopicConversationCreated, Payload: payload})
	require.NoError(t, err)

	ev, err := decodeEvent(data)
	require.NoError(t, err)

	created, ok := ev.(*ConversationCreated)
	require.True(t, ok)

	// Subscription filters dereference the entity unconditionally, so
	// a decoded event must survive one without a nil check.
	isMember := func(ev Event) bool {
		for _, p := range ev.(*ConversationCreated).Conversation.Participants {
			if p.UserID == "u2" {
				return true
			}
		}
		return false
	}
	assert.True(t, isMember(ev))
	assert.Len(t, created.Conversation.Participants, 2)
}

func TestDecodeEventRejectsMissingEntity(t *testing.T) {
	kinds := []Topic{
		TopicConversationCreated,
		TopicConversationUpdated,
		TopicConversationDeleted,
		TopicMessageSent,
	}

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			data, err := json.Marshal(envelope{Kind: kind, Payload: json.RawMessage(`{}`)})
			require.NoError(t, err)

			_, err = decodeEvent(data)
			assert.ErrorContains(t, err, "missing entity")
		})
	}
}

func TestDecodeEventRejectsUnknownKind(t *testing.T) {
	_, err := decodeEvent([]byte(`{"kind":"conversation.renamed","payload":{}}`))
	assert.ErrorContains(t, err, "unknown event kind")
}

func TestDecodeEventRejectsBadJSON(t *testing.T) {
	_, err := decodeEvent([]byte(`{"kind":`))
	assert.Error(t, err)
}
