package controller

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestParseAddressList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     map[string]string
		wantErrs int
	}{
		{
			name:  "one address per line",
			input: "alice@example.com\nbob@example.com\n",
			want: map[string]string{
				"alice@example.com": "",
				"bob@example.com":   "",
			},
		},
		{
			name:  "email then name",
			input: "alice@example.com,Alice\nbob@example.com,Bob\n",
			want: map[string]string{
				"alice@example.com": "Alice",
				"bob@example.com":   "Bob",
			},
		},
		{
			name:  "name then email",
			input: "Alice,alice@example.com\n",
			want:  map[string]string{"alice@example.com": "Alice"},
		},
		{
			name:  "header row skipped",
			input: "name,email\nAlice,alice@example.com\n",
			want:  map[string]string{"alice@example.com": "Alice"},
		},
		{
			name:  "addresses lowercased",
			input: "Alice.Smith@Example.COM\n",
			want:  map[string]string{"alice.smith@example.com": ""},
		},
		{
			name:     "invalid email reported",
			input:    "alice@example.com\nnot-an-email\n",
			want:     map[string]string{"alice@example.com": ""},
			wantErrs: 1,
		},
		{
			name:     "duplicate reported",
			input:    "alice@example.com\nalice@example.com\n",
			want:     map[string]string{"alice@example.com": ""},
			wantErrs: 1,
		},
		{
			name:     "empty file",
			input:    "",
			want:     map[string]string{},
			wantErrs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := parseAddressList(strings.NewReader(tt.input))
			assert.Equal(t, tt.want, got)
			assert.Len(t, errs, tt.wantErrs)
		})
	}
}

func newImportApp() *fiber.App {
	app := fiber.New()
	app.Get(importPath+"/confirm", ImportConfirmForm)
	app.Post(importPath+"/confirm", ImportConfirm)
	return app
}

func draftRows(token string, addresses string, expiresAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "token", "user_id", "newsletter_id", "addresses", "expires_at"}).
		AddRow(9, token, 7, 3, []byte(addresses), expiresAt)
}

func TestImportConfirmFormWithoutToken(t *testing.T) {
	app := newImportApp()

	resp, err := app.Test(httptest.NewRequest("GET", importPath+"/confirm", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, importPath, resp.Header.Get("Location"))
}

func TestImportConfirmFormUnknownToken(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "import_drafts"`).
		WillReturnError(gorm.ErrRecordNotFound)

	app := newImportApp()
	resp, err := app.Test(httptest.NewRequest("GET", importPath+"/confirm?token=nope", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, importPath, resp.Header.Get("Location"))
}

func TestImportConfirmFormExpiredToken(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "import_drafts"`).
		WillReturnRows(draftRows("tok", `{"alice@example.com":""}`, time.Now().Add(-time.Minute)))

	app := newImportApp()
	resp, err := app.Test(httptest.NewRequest("GET", importPath+"/confirm?token=tok", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
}

func TestImportConfirmFormShowsAddresses(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "import_drafts"`).
		WillReturnRows(draftRows("tok", `{"alice@example.com":"Alice","bob@example.com":""}`, time.Now().Add(time.Minute)))

	app := newImportApp()
	resp, err := app.Test(httptest.NewRequest("GET", importPath+"/confirm?token=tok", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "tok", body["token"])
	assert.Equal(t, float64(2), body["count"])
}

func TestImportConfirmCreatesSubscriptions(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "import_drafts"`).
		WillReturnRows(draftRows("tok", `{"alice@example.com":"Alice","bob@example.com":""}`, time.Now().Add(time.Minute)))

	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "subscriptions"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(i + 1))
		mock.ExpectCommit()
	}

	// Draft is discarded once consumed.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "import_drafts" SET "deleted_at"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	app := newImportApp()
	resp, err := app.Test(httptest.NewRequest("POST", importPath+"/confirm?token=tok", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["added"])
	assert.Equal(t, "2 subscriptions have been successfully added", body["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportConfirmWithoutToken(t *testing.T) {
	app := newImportApp()

	resp, err := app.Test(httptest.NewRequest("POST", importPath+"/confirm", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, importPath, resp.Header.Get("Location"))
}
