package logging

import (
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	HeaderRequestID = "X-Request-ID"
	CtxRequestIDKey = "request_id"
)

func New(level, format string) *logrus.Logger {
	return NewWithOutput(os.Stdout, level, format)
}

func NewWithOutput(out io.Writer, level, format string) *logrus.Logger {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	var formatter logrus.Formatter = &logrus.TextFormatter{DisableLevelTruncation: true, FullTimestamp: true}
	if format == "json" {
		formatter = &logrus.JSONFormatter{TimestampFormat: time.RFC3339}
	}
	return &logrus.Logger{
		Out:       out,
		Formatter: formatter,
		Hooks:     make(logrus.LevelHooks),
		Level:     lvl,
	}
}

// Discard is a logger for tests.
func Discard() *logrus.Logger {
	return NewWithOutput(io.Discard, "panic", "text")
}

// Middleware tags each request with an id (reusing an incoming one) and logs
// its outcome.
func Middleware(logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		reqID := c.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Locals(CtxRequestIDKey, reqID)
		c.Set(HeaderRequestID, reqID)

		err := c.Next()

		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}
		entry := logger.WithFields(logrus.Fields{
			"request_id": reqID,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    time.Since(start).String(),
		})
		switch {
		case err != nil && status >= fiber.StatusInternalServerError:
			entry.WithError(err).Error("request failed")
		case err != nil:
			entry.WithError(err).Info("request rejected")
		default:
			entry.Debug("request served")
		}
		return err
	}
}

func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(CtxRequestIDKey).(string)
	return id
}
