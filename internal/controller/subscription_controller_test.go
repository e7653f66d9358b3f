package controller

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSubscriptionApp() *fiber.App {
	app := fiber.New()
	app.Post("/subscriptions", CreateSubscription)
	app.Post("/subscriptions/make-subscribed", BulkSubscribe)
	app.Post("/subscriptions/make-unsubscribed", BulkUnsubscribe)
	return app
}

func TestBulkSubscribeSkipsUnknownIDs(t *testing.T) {
	mock := newMockDB(t)

	// First ID resolves and gets saved through the state hook.
	mock.ExpectQuery(`SELECT \* FROM "subscriptions"`).
		WillReturnRows(subscriptionRows(false, false))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "subscriptions"`).
		WillReturnRows(subscriptionRows(false, false))
	mock.ExpectExec(`UPDATE "subscriptions"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Second ID does not exist and is skipped.
	mock.ExpectQuery(`SELECT \* FROM "subscriptions"`).
		WillReturnError(gorm.ErrRecordNotFound)

	app := newSubscriptionApp()
	req := httptest.NewRequest("POST", "/subscriptions/make-subscribed",
		strings.NewReader(`{"ids":[5,99]}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["updated"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkActionRejectsEmptyInput(t *testing.T) {
	app := newSubscriptionApp()
	req := httptest.NewRequest("POST", "/subscriptions/make-unsubscribed",
		strings.NewReader(`{"ids":[]}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreateSubscriptionRejectsMissingRecipient(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "newsletters"`).
		WillReturnRows(newsletterRows())

	// The save hook rejects the record before any INSERT happens.
	mock.ExpectBegin()
	mock.ExpectRollback()

	app := newSubscriptionApp()
	req := httptest.NewRequest("POST", "/subscriptions",
		strings.NewReader(`{"newsletter_id":1,"subscribed":true}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["error"], "neither a user nor an email")
	require.NoError(t, mock.ExpectationsWereMet())
}
