package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImportDraft(t *testing.T) {
	addresses := map[string]string{
		"alice@example.com": "Alice",
		"bob@example.com":   "",
	}

	draft, err := NewImportDraft(7, 3, addresses)
	require.NoError(t, err)

	_, err = uuid.Parse(draft.Token)
	assert.NoError(t, err)
	assert.Equal(t, uint(7), draft.UserID)
	assert.Equal(t, uint(3), draft.NewsletterID)
	assert.False(t, draft.Expired())
	assert.WithinDuration(t, time.Now().Add(DraftTTL), draft.ExpiresAt, time.Minute)

	decoded, err := draft.AddressMap()
	require.NoError(t, err)
	assert.Equal(t, addresses, decoded)
}

func TestImportDraftExpired(t *testing.T) {
	draft, err := NewImportDraft(1, 1, map[string]string{"alice@example.com": ""})
	require.NoError(t, err)

	draft.ExpiresAt = time.Now().Add(-time.Second)
	assert.True(t, draft.Expired())
}
