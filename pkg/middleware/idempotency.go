package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pijushrbiswas/dispatch-core/pkg/apperr"
	"github.com/pijushrbiswas/dispatch-core/pkg/logger"
	redisClient "github.com/pijushrbiswas/dispatch-core/pkg/redis"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader is the HTTP header carrying the caller-supplied token (P8).
	IdempotencyKeyHeader = "Idempotency-Key"
	// idempotencyTTL implements idempotency.ttl = 300s.
	idempotencyTTL = 300 * time.Second
)

type idempotencyEntry struct {
	StatusCode  int             `json:"status_code"`
	ContentType string          `json:"content_type"`
	Body        json.RawMessage `json:"body"`
	RequestHash string          `json:"request_hash"`
}

type idempotencyResponseWriter struct {
	gin.ResponseWriter
	body       *bytes.Buffer
	statusCode int
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *idempotencyResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Idempotency implements C3: on a mutating request carrying an
// Idempotency-Key, a cached response within the endpoint's namespace is
// returned verbatim; otherwise the handler runs and, on 2xx completion, its
// response is cached for idempotencyTTL. No key means bypass (absence is
// safe per the idempotency cache's advisory contract). namespace scopes the
// key so a collision between, say, create-ride and create-payment keys is
// impossible even if a caller reuses a token.
func Idempotency(redis redisClient.ClientInterface, namespace string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPatch && c.Request.Method != http.MethodPut {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			apperr.ErrorResponse(c, apperr.NewValidationError("failed to read request body"))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		requestHash := hashRequest(c.Request.Method, c.FullPath(), bodyBytes)

		redisKey := fmt.Sprintf("idempotency:%s:%s", namespace, key)

		if cached, err := redis.GetString(c.Request.Context(), redisKey); err == nil && cached != "" {
			var entry idempotencyEntry
			if err := json.Unmarshal([]byte(cached), &entry); err == nil {
				if entry.RequestHash != requestHash {
					apperr.ErrorResponse(c, apperr.NewUnprocessableError(
						"Idempotency-Key has already been used with a different request body"))
					c.Abort()
					return
				}
				c.Header("Content-Type", entry.ContentType)
				c.Header("Idempotent-Replayed", "true")
				c.Data(entry.StatusCode, entry.ContentType, entry.Body)
				c.Abort()
				return
			}
		}

		writer := &idempotencyResponseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}, statusCode: http.StatusOK}
		c.Writer = writer

		c.Next()

		if writer.statusCode >= 200 && writer.statusCode < 300 {
			entry := idempotencyEntry{
				StatusCode:  writer.statusCode,
				ContentType: c.Writer.Header().Get("Content-Type"),
				Body:        writer.body.Bytes(),
				RequestHash: requestHash,
			}
			if data, err := json.Marshal(entry); err == nil {
				if err := redis.SetWithExpiration(c.Request.Context(), redisKey, data, idempotencyTTL); err != nil {
					logger.WarnContext(c.Request.Context(), "failed to cache idempotency response",
						zap.String("key", key), zap.Error(err))
				}
			}
		}
	}
}

func hashRequest(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
