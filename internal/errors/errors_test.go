package errors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	err := New(http.StatusNotFound, "NOT_FOUND", "gone")
	assert.Equal(t, "gone", err.Error())
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("code", "stock code is required")

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", err.ErrorCode)
	detail, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "code", detail.Field)
}

func TestNoDataError(t *testing.T) {
	err := NoDataError("no sheets matched the selection policy")
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "NO_DATA", err.ErrorCode)
	assert.Equal(t, "no sheets matched the selection policy", err.Details)
}

func TestErrorHandler_RendersAPIError(t *testing.T) {
	handler := NewErrorHandler(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/data/company/000001/history", nil)

	handler.HandleError(rec, req, ErrCompanyNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "COMPANY_NOT_FOUND")
}

func TestErrorHandler_WrapsUnknownErrors(t *testing.T) {
	handler := NewErrorHandler(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	handler.HandleError(rec, req, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_SERVER_ERROR")
}
