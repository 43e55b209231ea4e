package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParseRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		sender SenderIdentity
		conv   ConversationRef
	}{
		{
			name:   "full fields",
			sender: SenderIdentity{ID: "u1", Nick: "alice"},
			conv:   ConversationRef{ID: "cid123"},
		},
		{
			name:   "empty nick",
			sender: SenderIdentity{ID: "u2"},
			conv:   ConversationRef{ID: "cid456"},
		},
		{
			name:   "nick with spaces",
			sender: SenderIdentity{ID: "u3", Nick: "bob smith"},
			conv:   ConversationRef{ID: "cid789"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := FormatSenderConversation(tt.sender, tt.conv)
			sender, conv, ok := ParseSenderConversation(text)
			require.True(t, ok)
			assert.Equal(t, tt.sender.ID, sender.ID)
			assert.Equal(t, tt.sender.Nick, sender.Nick)
			assert.Equal(t, tt.conv.ID, conv.ID)
		})
	}
}

func TestParseSenderConversation_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"no delimiters", "justtext"},
		{"one delimiter", "u1@alice"},
		{"too many delimiters", "u1@alice@c1@extra"},
		{"missing sender id", "@alice@c1"},
		{"missing conversation id", "u1@alice@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := ParseSenderConversation(tt.text)
			assert.False(t, ok)
		})
	}
}

func TestSenderIdentityEqual(t *testing.T) {
	a := SenderIdentity{ID: "u1", Nick: "alice"}
	b := SenderIdentity{ID: "u1", Nick: "renamed", StaffID: "s1"}
	c := SenderIdentity{ID: "u2", Nick: "alice"}

	assert.True(t, a.Equal(b), "equality is by sender id only")
	assert.False(t, a.Equal(c))
}

func TestConversationKinds(t *testing.T) {
	assert.Equal(t, ConversationKind("direct"), ConversationDirect)
	assert.Equal(t, ConversationKind("group"), ConversationGroup)
}
