package api

import (
	"github.com/gin-gonic/gin"
)

// sseHeaders prepares the response for server-sent events.
func sseHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeaderNow()
}

// writeSSE emits one event and flushes it to the client immediately.
func writeSSE(c *gin.Context, event string, payload any) {
	if payload == nil {
		payload = gin.H{}
	}
	c.SSEvent(event, payload)
	c.Writer.Flush()
}
