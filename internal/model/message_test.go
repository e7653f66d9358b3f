package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBeforeCreateSlug(t *testing.T) {
	m := &Message{Title: "Release Notes, August"}
	require.NoError(t, m.BeforeCreate(nil))
	assert.Equal(t, "release-notes-august", m.Slug)

	keep := &Message{Title: "Release Notes", Slug: "notes"}
	require.NoError(t, keep.BeforeCreate(nil))
	assert.Equal(t, "notes", keep.Slug)
}

func TestSubmissionDue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name       string
		submission Submission
		want       bool
	}{
		{"unprepared", Submission{}, false},
		{"prepared without send date", Submission{Prepared: true}, true},
		{"prepared with past send date", Submission{Prepared: true, SendDate: &past}, true},
		{"prepared with future send date", Submission{Prepared: true, SendDate: &future}, false},
		{"already sent", Submission{Prepared: true, Sent: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.submission.Due(now))
		})
	}
}
