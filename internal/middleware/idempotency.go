package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	idempotencyHeader     = "Idempotency-Key"
	idempotencyTTL        = 24 * time.Hour
	idempotencyPendingTTL = time.Minute
	idempotencyPending    = "pending"
)

// cachedResponse stores the response for idempotent requests.
type cachedResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
	Headers    http.Header     `json:"headers"`
}

// responseWriter wraps gin.ResponseWriter to capture the response.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response of a mutating request
// retried with the same Idempotency-Key. A retry that arrives while the first
// attempt is still running is rejected with 409.
func IdempotencyMiddleware(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil || !isMutating(c.Request.Method) {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := "idempotency:" + c.Request.Method + ":" + c.FullPath() + ":" + key

		claimed, err := redisClient.SetNX(ctx, cacheKey, idempotencyPending, idempotencyPendingTTL).Result()
		if err != nil {
			// Redis error - proceed without idempotency.
			log.WithError(err).Warn("idempotency store unavailable")
			c.Next()
			return
		}

		if !claimed {
			cached, err := getCachedResponse(ctx, redisClient, cacheKey)
			switch {
			case err == nil && cached != nil:
				for k, v := range cached.Headers {
					for _, val := range v {
						c.Header(k, val)
					}
				}
				c.Header("Idempotent-Replayed", "true")
				c.Data(cached.StatusCode, "application/json", cached.Body)
				c.Abort()
			case err == nil:
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{
					"error": "a request with this idempotency key is in progress",
					"code":  "request_in_progress",
				})
			default:
				log.WithError(err).Warn("idempotency lookup failed")
				c.Next()
			}
			return
		}

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		// Only definitive outcomes are replayed. Anything else frees the key.
		status := c.Writer.Status()
		if status < http.StatusBadRequest || (status < http.StatusInternalServerError && status != http.StatusConflict) {
			response := cachedResponse{
				StatusCode: status,
				Body:       w.body.Bytes(),
				Headers:    extractResponseHeaders(c),
			}
			if err := setCachedResponse(context.WithoutCancel(ctx), redisClient, cacheKey, &response, idempotencyTTL); err != nil {
				log.WithError(err).Warn("failed to store idempotent response")
			}
			return
		}
		_ = redisClient.Del(context.WithoutCancel(ctx), cacheKey).Err()
	}
}

func isMutating(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

// getCachedResponse returns nil without error while the first attempt is pending.
func getCachedResponse(ctx context.Context, client *redis.Client, key string) (*cachedResponse, error) {
	data, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if string(data) == idempotencyPending {
		return nil, nil
	}

	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func setCachedResponse(ctx context.Context, client *redis.Client, key string, response *cachedResponse, ttl time.Duration) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, data, ttl).Err()
}

// extractResponseHeaders extracts headers to cache.
func extractResponseHeaders(c *gin.Context) http.Header {
	headers := make(http.Header)
	if ct := c.Writer.Header().Get("Content-Type"); ct != "" {
		headers.Set("Content-Type", ct)
	}
	return headers
}
