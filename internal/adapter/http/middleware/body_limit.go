package middleware

import (
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const requestTooLarge = "Request too large. Please try with less data."

// BodyLimitMiddleware caps request bodies and parses forms eagerly so an
// oversized body is turned into a flash and a redirect rather than a
// silently empty form.
func BodyLimitMiddleware(limit int64, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		if c.Request.ContentLength > limit {
			rejectTooLarge(c, logger)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

		var tooLarge *http.MaxBytesError

		if err := parseForm(c.Request, limit); errors.As(err, &tooLarge) {
			rejectTooLarge(c, logger)
			return
		}

		c.Next()
	}
}

func parseForm(r *http.Request, limit int64) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(limit)
	}

	return r.ParseForm()
}

func rejectTooLarge(c *gin.Context, logger *zap.Logger) {
	logger.Warn("request too large",
		zap.String("path", c.Request.URL.Path),
		zap.Int64("content_length", c.Request.ContentLength),
		zap.String("client_ip", c.ClientIP()))

	AddFlash(c, "error", requestTooLarge)

	location := "/login"
	if CurrentUser(c) != nil {
		location = "/"
	}

	c.Redirect(http.StatusFound, location)
	c.Abort()
}
