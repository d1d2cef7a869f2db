package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

type channelKey struct{}

var ChannelContextKey = channelKey{}

// deriveChannelFromAPIKey infers the calling surface from the API key pattern.
func deriveChannelFromAPIKey(key string) string {
	switch {
	case strings.HasPrefix(key, "admin_"):
		return "admin"
	case strings.HasPrefix(key, "creator_"):
		return "creator"
	case strings.HasPrefix(key, "partner_"):
		return "partner"
	default:
		return "api"
	}
}

// Channel tags the request context with the calling channel based on x-api-key.
func Channel() gin.HandlerFunc {
	return func(c *gin.Context) {
		channel := "api"
		if key := c.GetHeader("x-api-key"); key != "" {
			channel = deriveChannelFromAPIKey(key)
		}

		ctx := context.WithValue(c.Request.Context(), ChannelContextKey, channel)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetChannel returns the current channel string (default "api").
func GetChannel(ctx context.Context) string {
	ch, ok := ctx.Value(ChannelContextKey).(string)
	if !ok {
		return "api"
	}
	return ch
}
