package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore persists responses keyed by client-supplied idempotency keys.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisIdempotencyStore backs IdempotencyStore with redis.
type RedisIdempotencyStore struct {
	client *redis.Client
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (s *RedisIdempotencyStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// storedResponse is the cached shape: status and body together, so a replayed
// 201 stays a 201.
type storedResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// Idempotency replays the cached response for a repeated POST carrying the
// same Idempotency-Key, so a retried booking submit cannot double-create.
func Idempotency(store IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			// Hash the key for privacy
			hasher := sha256.New()
			hasher.Write([]byte(key))
			hashedKey := fmt.Sprintf("idempotency:%x", hasher.Sum(nil))

			if existing, err := store.Get(r.Context(), hashedKey); err == nil && existing != "" {
				var cached storedResponse
				if json.Unmarshal([]byte(existing), &cached) == nil && cached.Status != 0 {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(cached.Status)
					w.Write([]byte(cached.Body))
					return
				}
			}

			recorder := &responseRecorder{ResponseWriter: w}
			next.ServeHTTP(recorder, r)

			if recorder.statusCode >= 200 && recorder.statusCode < 300 {
				payload, err := json.Marshal(storedResponse{
					Status: recorder.statusCode,
					Body:   string(recorder.body),
				})
				if err == nil {
					store.Set(r.Context(), hashedKey, string(payload), 24*time.Hour)
				}
			}
		})
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       []byte
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(body []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	r.body = append(r.body, body...)
	return r.ResponseWriter.Write(body)
}
