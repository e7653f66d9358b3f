package model

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsletterBeforeCreateDerivesSlug(t *testing.T) {
	gdb, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "newsletters"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	n := &Newsletter{Title: "Weekly Product News"}
	require.NoError(t, n.BeforeCreate(gdb))

	assert.Equal(t, "weekly-product-news", n.Slug)
}

func TestNewsletterBeforeCreateKeepsSlug(t *testing.T) {
	gdb, _ := newMockDB(t)

	n := &Newsletter{Title: "Weekly Product News", Slug: "weekly"}
	require.NoError(t, n.BeforeCreate(gdb))

	assert.Equal(t, "weekly", n.Slug)
}

func TestNewsletterBeforeCreateSlugCollision(t *testing.T) {
	gdb, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "newsletters"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	n := &Newsletter{Title: "Weekly"}
	require.NoError(t, n.BeforeCreate(gdb))

	assert.Equal(t, "weekly-"+n.CreatedAt.Format("20060102"), n.Slug)
}

func TestNewsletterSender(t *testing.T) {
	n := &Newsletter{SenderName: "The Team", SenderEmail: "team@example.com"}
	assert.Equal(t, "The Team <team@example.com>", n.Sender())
}
