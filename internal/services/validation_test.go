package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationHelper_DecodeBody(t *testing.T) {
	vh := NewValidationHelper()

	decode := func(body string) (UnlockRequest, error) {
		var req UnlockRequest
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := vh.decodeBody(httptest.NewRecorder(), r, &req, "A valid chapter ID is required.")
		return req, err
	}

	req, err := decode(`{"chapterId":"` + testChapter + `"}`)
	require.NoError(t, err)
	assert.Equal(t, testChapter, req.ChapterID)

	_, err = decode(`{"chapterId":"` + testChapter + `"}{"chapterId":"` + testChapter + `"}`)
	assert.True(t, IsKind(err, KindInvalidInput))

	_, err = decode(`{"chapterId":"not-a-uuid"}`)
	assert.True(t, IsKind(err, KindInvalidInput))
}

func TestSendErrorResponse_FieldDetails(t *testing.T) {
	vh := NewValidationHelper()
	err := vh.ValidateStruct(&InitializeRequest{})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	SendErrorResponse(rec, "A valid package ID is required.", http.StatusBadRequest, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"A valid package ID is required.","details":{"PackageID":"Field Validation Failed on 'required' tag"}}`, rec.Body.String())
}
