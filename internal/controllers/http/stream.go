package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"order-backend/internal/domain"
)

// StreamOrders is the dashboard's live feed: a one-way event stream of
// new-order batches and heartbeats, framed as `data: <payload>\n\n`. The
// subscriber only reads from the shared broadcaster; it never drives
// polling, so the cursor advances exactly once per tick no matter how many
// dashboards are connected.
func (h *Handler) StreamOrders(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	sub := h.bus.Subscribe()
	defer h.bus.Unsubscribe(sub)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	// Confirm liveness before the first poll tick lands.
	fmt.Fprint(c.Writer, ": connected\n\n")
	flusher.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-sub.Events():
			if !open {
				// Upstream is gone for good; one final frame, then close.
				fmt.Fprint(c.Writer, "data: {\"error\":\"stream closed\"}\n\n")
				flusher.Flush()
				return
			}
			switch ev.Type {
			case domain.FeedBatch:
				payload, err := json.Marshal(ev.Orders)
				if err != nil {
					continue
				}
				fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
			case domain.FeedHeartbeat:
				fmt.Fprint(c.Writer, "data: {}\n\n")
			case domain.FeedError:
				// Transient store failure: report it and keep the stream
				// open; the next tick retries.
				fmt.Fprintf(c.Writer, "data: {\"error\":%q}\n\n", ev.Err.Error())
			}
			flusher.Flush()
		}
	}
}
