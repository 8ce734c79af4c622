package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mW "github.com/novelnest/backend/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unlockRequest(t *testing.T, body string, session *mW.Session) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chapters/unlock", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if session != nil {
		req = req.WithContext(mW.WithSession(req.Context(), session))
	}
	return req
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

func TestUnlockService_UnlockChapter(t *testing.T) {
	reader := &mW.Session{UserID: testReader, Email: "reader@example.com"}
	validBody := `{"chapterId":"` + testChapter + `"}`

	t.Run("no session", func(t *testing.T) {
		ledger, mock, done := newTestLedger(t)
		defer done()

		rec := httptest.NewRecorder()
		NewUnlockService(ledger).UnlockChapter(rec, unlockRequest(t, validBody, nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed chapter id", func(t *testing.T) {
		for _, body := range []string{`{}`, `{"chapterId":""}`, `{"chapterId":"chapter-1"}`, `{"chapterId":42}`, `not json`} {
			ledger, mock, done := newTestLedger(t)

			rec := httptest.NewRecorder()
			NewUnlockService(ledger).UnlockChapter(rec, unlockRequest(t, body, reader))

			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
			var resp ErrorResponse
			decodeResponse(t, rec, &resp)
			assert.Equal(t, "A valid chapter ID is required.", resp.Error)
			assert.NoError(t, mock.ExpectationsWereMet())
			done()
		}
	})

	t.Run("first unlock debits and reports the new balance", func(t *testing.T) {
		ledger, mock, done := newTestLedger(t)
		defer done()

		mock.ExpectQuery(qHasUnlocked).
			WithArgs(testReader, testChapter).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		expectChapter(mock, true, 3)
		expectLocks(mock, 5)
		mock.ExpectQuery(qInsertUnlock).
			WithArgs(testReader, testChapter).
			WillReturnRows(sqlmock.NewRows([]string{"unlocked_at"}).AddRow(time.Now()))
		mock.ExpectExec(qDebit).WithArgs(int64(3), testReader).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(qLedgerEntry).WithArgs(testReader, int64(-3), "spend", testChapter).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(qEarnings).WithArgs(int64(2), testAuthor).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(qLedgerEntry).WithArgs(testAuthor, int64(2), "purchase", testChapter).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		rec := httptest.NewRecorder()
		NewUnlockService(ledger).UnlockChapter(rec, unlockRequest(t, validBody, reader))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp UnlockResponse
		decodeResponse(t, rec, &resp)
		assert.True(t, resp.Success)
		require.NotNil(t, resp.NewBalance)
		assert.Equal(t, int64(2), *resp.NewBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second unlock is answered from the pre-check", func(t *testing.T) {
		ledger, mock, done := newTestLedger(t)
		defer done()

		mock.ExpectQuery(qHasUnlocked).
			WithArgs(testReader, testChapter).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		rec := httptest.NewRecorder()
		NewUnlockService(ledger).UnlockChapter(rec, unlockRequest(t, validBody, reader))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp UnlockResponse
		decodeResponse(t, rec, &resp)
		assert.True(t, resp.Success)
		assert.Equal(t, "Chapter already unlocked.", resp.Message)
		assert.Nil(t, resp.NewBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("race lost after the pre-check is still a success", func(t *testing.T) {
		ledger, mock, done := newTestLedger(t)
		defer done()

		mock.ExpectQuery(qHasUnlocked).
			WithArgs(testReader, testChapter).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		expectChapter(mock, true, 3)
		expectLocks(mock, 2)
		mock.ExpectQuery(qInsertUnlock).
			WithArgs(testReader, testChapter).
			WillReturnRows(sqlmock.NewRows([]string{"unlocked_at"}))
		mock.ExpectRollback()

		rec := httptest.NewRecorder()
		NewUnlockService(ledger).UnlockChapter(rec, unlockRequest(t, validBody, reader))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp UnlockResponse
		decodeResponse(t, rec, &resp)
		assert.Equal(t, "Chapter already unlocked.", resp.Message)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient funds", func(t *testing.T) {
		ledger, mock, done := newTestLedger(t)
		defer done()

		mock.ExpectQuery(qHasUnlocked).
			WithArgs(testReader, testChapter).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		expectChapter(mock, true, 3)
		expectLocks(mock, 1)
		mock.ExpectQuery(qInsertUnlock).
			WithArgs(testReader, testChapter).
			WillReturnRows(sqlmock.NewRows([]string{"unlocked_at"}).AddRow(time.Now()))
		mock.ExpectRollback()

		rec := httptest.NewRecorder()
		NewUnlockService(ledger).UnlockChapter(rec, unlockRequest(t, validBody, reader))

		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
		var resp ErrorResponse
		decodeResponse(t, rec, &resp)
		assert.Equal(t, "Insufficient coin balance.", resp.Error)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown chapter", func(t *testing.T) {
		ledger, mock, done := newTestLedger(t)
		defer done()

		mock.ExpectQuery(qHasUnlocked).
			WithArgs(testReader, testChapter).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		mock.ExpectQuery(qLoadChapter).WithArgs(testChapter).WillReturnRows(sqlmock.NewRows(chapterColumns))
		mock.ExpectRollback()

		rec := httptest.NewRecorder()
		NewUnlockService(ledger).UnlockChapter(rec, unlockRequest(t, validBody, reader))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("storage failure does not leak detail", func(t *testing.T) {
		ledger, mock, done := newTestLedger(t)
		defer done()

		mock.ExpectQuery(qHasUnlocked).
			WithArgs(testReader, testChapter).
			WillReturnError(errors.New("pq: relation \"unlocked_chapters\" does not exist"))

		rec := httptest.NewRecorder()
		NewUnlockService(ledger).UnlockChapter(rec, unlockRequest(t, validBody, reader))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "relation")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("free chapter", func(t *testing.T) {
		ledger, mock, done := newTestLedger(t)
		defer done()

		mock.ExpectQuery(qHasUnlocked).
			WithArgs(testReader, testChapter).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		expectChapter(mock, false, nil)
		mock.ExpectRollback()

		rec := httptest.NewRecorder()
		NewUnlockService(ledger).UnlockChapter(rec, unlockRequest(t, validBody, reader))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp UnlockResponse
		decodeResponse(t, rec, &resp)
		assert.Equal(t, "This chapter is free to read.", resp.Message)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
