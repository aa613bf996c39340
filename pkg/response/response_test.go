package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"quddle-backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, fn func(c *gin.Context)) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	fn(c)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestOK_MergesPayload(t *testing.T) {
	code, body := render(t, func(c *gin.Context) {
		OK(c, http.StatusCreated, gin.H{"ad": gin.H{"id": "a1"}})
	})

	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, true, body["success"])
	assert.NotNil(t, body["ad"])
}

func TestError_ServiceError(t *testing.T) {
	code, body := render(t, func(c *gin.Context) {
		Error(c, apperrors.BadRequestError(nil, "Ad is not active"))
	})

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Ad is not active", body["message"])
	assert.NotContains(t, body, "error")
}

func TestError_DependencyFailureCarriesDetail(t *testing.T) {
	code, body := render(t, func(c *gin.Context) {
		Error(c, apperrors.DependencyError(errors.New("connection refused"), "Failed to create ad"))
	})

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Failed to create ad", body["message"])
	assert.Equal(t, "connection refused", body["error"])
}

func TestError_PlainError(t *testing.T) {
	code, body := render(t, func(c *gin.Context) {
		Error(c, errors.New("boom"))
	})

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal server error", body["message"])
}
