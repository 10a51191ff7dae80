package respond

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Envelope is the response shape shared by every JSON endpoint.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
	Timestamp string `json:"timestamp"`
}

var now = time.Now

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 OK envelope with success=true.
func OK(c *gin.Context, data any, message string) {
	Result(c, http.StatusOK, true, data, message)
}

// Result writes an envelope with an explicit success flag, used when the
// request was handled but produced no usable output.
func Result(c *gin.Context, status int, success bool, data any, message string) {
	JSON(c, status, Envelope{
		Success:   success,
		Data:      data,
		Message:   message,
		Timestamp: timestamp(),
	})
}

func timestamp() string {
	return now().UTC().Format(time.RFC3339)
}
