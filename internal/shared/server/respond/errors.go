package respond

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"campaign-backend/internal/shared/telemetry"
)

// Error codes shared by handlers.
const (
	CodeValidation  = "validation_error"
	CodeNotFound    = "not_found"
	CodeInternal    = "internal_error"
	CodeRateLimited = "rate_limited"
)

// Error sends a failure envelope and logs it. details, when set, is rendered
// into the envelope's error field.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if campaignID := c.GetString("campaignId"); campaignID != "" {
		fields["campaign_id"] = campaignID
	}
	detail := ""
	switch d := details.(type) {
	case nil:
	case error:
		detail = d.Error()
	case string:
		detail = d
	default:
		detail = fmt.Sprint(d)
	}
	if detail != "" {
		fields["detail"] = detail
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, Envelope{
		Success:   false,
		Message:   message,
		Error:     detail,
		Code:      code,
		Timestamp: timestamp(),
	})
}
