package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const eventBuffer = 32

// offer hands v to a stream without blocking the publisher. When the reader
// has fallen behind, the oldest queued snapshot is discarded so that the
// newest one is always delivered. Callers must be the only sender.
func offer[T any](updates chan T, v T) {
	for {
		select {
		case updates <- v:
			return
		default:
		}
		select {
		case <-updates:
		default:
		}
	}
}

// streamEvents writes initial as a "state" event, then every update named by
// name, until the request context ends.
func streamEvents[T any](c *gin.Context, initial T, updates <-chan T, name func(T) string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent("state", initial)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case v := <-updates:
			event := name(v)
			if event == "" {
				event = "state"
			}
			c.SSEvent(event, v)
			c.Writer.Flush()
		}
	}
}
