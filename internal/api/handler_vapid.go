package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetVAPIDPublicKey hands browsers the application server key they need
// before registering for session reminders. Without configured keys reminder
// delivery is off, so the endpoint answers 503.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	key := ""
	if h.webpush != nil {
		key = h.webpush.VAPIDPublicKey
	}
	if key == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reminder delivery is not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"public_key": key})
}