package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApplication_RoutesMounted(t *testing.T) {
	t.Setenv("DTX_DATA_DIRS", t.TempDir())
	t.Setenv("DTX_LOGGING_OUTPUT", "console")
	t.Setenv("DTX_LOGGING_LEVEL", "error")

	application, err := NewApplication()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	application.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// No workbook in the temp dir, so the API reports NO_DATA rather than 500.
	rec = httptest.NewRecorder()
	application.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/companies", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NO_DATA")
}
