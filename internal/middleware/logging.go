// internal/middleware/logging.go
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kucukkal/dealer-backend/internal/models"
	"github.com/kucukkal/dealer-backend/internal/utils"
)

type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// RequestID tags every request with a UUID, echoed back in the
// X-Request-ID header and attached to audit rows and log lines.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func AuditLogMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for GET requests and health checks
		if c.Request.Method == "GET" || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		// Read request body
		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		var userIDPtr *uint
		if id, ok := utils.GetUserIDFromContext(c); ok {
			userIDPtr = &id
		}
		username, _ := utils.GetUsernameFromContext(c)
		requestID := c.GetString("request_id")

		details := models.JSONB{}
		if len(requestBody) > 0 {
			var requestData map[string]interface{}
			if err := json.Unmarshal(requestBody, &requestData); err == nil {
				delete(requestData, "password")
				details["request"] = requestData
			}
		}
		if c.Writer.Status() >= 400 {
			var response map[string]interface{}
			if err := json.Unmarshal(blw.body.Bytes(), &response); err == nil {
				details["response"] = response
			}
		}

		auditLog := &models.AuditLog{
			RequestID:  requestID,
			UserID:     userIDPtr,
			Username:   username,
			Action:     c.Request.Method + " " + c.Request.URL.Path,
			Resource:   extractResource(c.Request.URL.Path),
			RecordID:   extractRecordID(c.Request.URL.Path),
			StatusCode: c.Writer.Status(),
			IPAddress:  c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			Details:    details,
		}

		// Save audit log asynchronously
		go func() {
			if err := db.Create(auditLog).Error; err != nil {
				logrus.WithError(err).Error("Failed to create audit log")
			}
		}()

		// Log the request
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   duration.Milliseconds(),
			"ip":         c.ClientIP(),
			"user":       username,
		}).Info("Request processed")
	}
}

func extractResource(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "v1" {
		return parts[2]
	}
	if len(parts) >= 1 {
		return parts[0]
	}
	return "unknown"
}

func extractRecordID(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	// Business identifiers (VINs, sale/service/finance ids) always carry
	// digits; action segments like "upload" or "complete" never do.
	if len(parts) >= 4 && parts[0] == "api" && strings.ContainsAny(parts[3], "0123456789") {
		return parts[3]
	}
	return ""
}

func RequestLogger() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return ""
	})
}
