// Package response writes the JSON envelope every endpoint returns:
// {"success":true, ...payload} or {"success":false,"message":...,"error":...}.
package response

import (
	"errors"
	"net/http"

	"quddle-backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// OK writes a success envelope merging payload into the top level.
func OK(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// Fail writes a failure envelope with the given status and message.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// FailWithDetail adds the "error" detail field.
func FailWithDetail(c *gin.Context, status int, message, detail string) {
	c.JSON(status, gin.H{"success": false, "message": message, "error": detail})
}

// Error maps err onto the envelope. ServiceErrors keep their status and
// message; anything else becomes a 500. The wrapped cause is only exposed
// for server-side failures.
func Error(c *gin.Context, err error) {
	var svcErr *apperrors.ServiceError
	if !errors.As(err, &svcErr) {
		FailWithDetail(c, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	status := svcErr.StatusCode()
	if status >= http.StatusInternalServerError && svcErr.Err != nil {
		FailWithDetail(c, status, svcErr.Message, svcErr.Err.Error())
		return
	}
	Fail(c, status, svcErr.Message)
}

// Abort writes a failure envelope and stops the handler chain.
func Abort(c *gin.Context, status int, message string) {
	Fail(c, status, message)
	c.Abort()
}
