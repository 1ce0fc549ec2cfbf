package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/estateflow/server/internal/model"
)

const (
	// IdempotencyKeyHeader is the header for idempotency key.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader marks a response served from the idempotency store.
	IdempotentReplayHeader = "Idempotent-Replayed"

	idempotencyKeyPrefix  = "idempotency:"
	defaultIdempotencyTTL = 24 * time.Hour
	idempotencyLockTTL    = 30 * time.Second
)

// storedResponse is the replayable part of a response.
type storedResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	BodyHash    string `json:"body_hash"`
	Body        []byte `json:"body"`
}

type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated Idempotency-Key on
// the same route. Reusing a key with a different body is rejected with 422.
// Requests without the header, or without Redis, pass through untouched.
func Idempotency(redis goredis.UniversalClient, ttl time.Duration, log *zap.Logger) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if redis == nil || key == "" || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := idempotencyCacheKey(c, key)
		bodyHash, err := hashBody(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, model.NewErrorResponse("VALIDATION_ERROR", "unreadable request body"))
			return
		}

		stored, err := loadResponse(c, redis, cacheKey)
		switch {
		case err != nil:
			log.Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		case stored != nil && stored.BodyHash != bodyHash:
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity,
				model.NewErrorResponse("IDEMPOTENCY_KEY_REUSED", "Idempotency-Key was used with a different request body"))
			return
		case stored != nil:
			c.Header(IdempotentReplayHeader, "true")
			c.Data(stored.StatusCode, stored.ContentType, stored.Body)
			c.Abort()
			return
		}

		lockKey := cacheKey + ":lock"
		locked, err := redis.SetNX(ctx, lockKey, "1", idempotencyLockTTL).Result()
		if err != nil {
			log.Warn("idempotency lock failed", zap.Error(err))
			c.Next()
			return
		}
		if !locked {
			c.AbortWithStatusJSON(http.StatusConflict,
				model.NewErrorResponse("REQUEST_IN_PROGRESS", "A request with this idempotency key is already being processed"))
			return
		}
		defer redis.Del(ctx, lockKey)

		w := &captureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w
		c.Next()

		// Server errors are not stored so the client can retry.
		if status := w.Status(); status < http.StatusInternalServerError {
			data, _ := json.Marshal(storedResponse{
				StatusCode:  status,
				ContentType: w.Header().Get("Content-Type"),
				BodyHash:    bodyHash,
				Body:        w.body.Bytes(),
			})
			if err := redis.Set(ctx, cacheKey, data, ttl).Err(); err != nil {
				log.Warn("store idempotent response", zap.Error(err))
			}
		}
	}
}

func idempotencyCacheKey(c *gin.Context, key string) string {
	hash := sha256.Sum256([]byte(c.Request.Method + ":" + c.FullPath() + ":" + key))
	return idempotencyKeyPrefix + hex.EncodeToString(hash[:])
}

// hashBody reads the body for fingerprinting and restores it for the handler.
func hashBody(c *gin.Context) (string, error) {
	if c.Request.Body == nil {
		return "", nil
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:]), nil
}

func loadResponse(c *gin.Context, redis goredis.UniversalClient, key string) (*storedResponse, error) {
	data, err := redis.Get(c.Request.Context(), key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var resp storedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, nil
	}
	return &resp, nil
}
