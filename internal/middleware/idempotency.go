package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridebook/internal/auth"
	"ridebook/internal/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour

	// inFlightTTL bounds how long a crashed request keeps its key reserved.
	inFlightTTL       = time.Minute
	retryAfterSeconds = "1"
)

// cachedResponse stores the response for idempotent requests.
type cachedResponse struct {
	StatusCode  int             `json:"status_code"`
	ContentType string          `json:"content_type"`
	Body        json.RawMessage `json:"body"`
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

// Idempotency replays the first response to a mutating request carrying an
// Idempotency-Key header. Keys are scoped to the caller and route. The key is
// reserved before the handler runs, so a duplicate that arrives while the
// first request is still running gets 409 instead of executing twice. A nil
// store disables replay.
func Idempotency(store redis.IdempotencyStoreInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || !isMutating(c.Request.Method) {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		scope := "anonymous"
		if id := auth.FromContext(ctx); id != nil {
			scope = id.UID
		}
		cacheKey := scope + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key

		reserved, err := store.Reserve(ctx, cacheKey, inFlightTTL)
		if err != nil {
			// Redis error - proceed without idempotency.
			slog.WarnContext(ctx, "idempotency reserve failed", "error", err)
			c.Next()
			return
		}
		if !reserved {
			replay(c, store, cacheKey)
			return
		}

		stored := false
		defer func() {
			if stored {
				return
			}
			if err := store.Release(context.WithoutCancel(ctx), cacheKey); err != nil {
				slog.WarnContext(ctx, "idempotency release failed", "error", err)
			}
		}()

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		// Server errors are not replayed so the client can retry.
		status := c.Writer.Status()
		if status < 200 || status >= 500 {
			return
		}
		encoded, err := json.Marshal(cachedResponse{
			StatusCode:  status,
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		})
		if err != nil {
			return
		}
		if err := store.SetResponse(ctx, cacheKey, encoded, idempotencyTTL); err != nil {
			slog.WarnContext(ctx, "idempotency store failed", "error", err)
			return
		}
		stored = true
	}
}

// replay answers a request whose key is already taken, either with the
// stored response or with 409 while the first request is still running.
func replay(c *gin.Context, store redis.IdempotencyStoreInterface, cacheKey string) {
	ctx := c.Request.Context()
	data, err := store.GetResponse(ctx, cacheKey)
	if err != nil && !errors.Is(err, redis.ErrRequestInFlight) {
		slog.WarnContext(ctx, "idempotency lookup failed", "error", err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorBody{
			Error: "idempotency store unavailable",
			Code:  "Unavailable",
		})
		return
	}

	var cached cachedResponse
	if data != nil && json.Unmarshal(data, &cached) == nil && cached.StatusCode != 0 {
		c.Header("Idempotent-Replayed", "true")
		c.Data(cached.StatusCode, cached.ContentType, cached.Body)
		c.Abort()
		return
	}

	c.Header("Retry-After", retryAfterSeconds)
	c.AbortWithStatusJSON(http.StatusConflict, errorBody{
		Error: "a request with this Idempotency-Key is still in progress",
		Code:  "Conflict",
	})
}

func isMutating(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}
