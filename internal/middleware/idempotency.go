package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ResponseCache persists replayable responses beyond process memory.
// Get returns nil, nil on a miss.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IdempotencyStore tracks in-flight requests and their completed responses
type IdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	cache    ResponseCache
	stopOnce sync.Once
	stopChan chan struct{}
}

type idempotencyEntry struct {
	response  *cachedResponse
	expiresAt time.Time
	done      chan struct{}
}

type cachedResponse struct {
	Status  int         `json:"status"`
	Headers http.Header `json:"headers"`
	Body    []byte      `json:"body"`
}

// IdempotencyConfig holds configuration for idempotency middleware
type IdempotencyConfig struct {
	TTL     time.Duration // How long to keep results (default 24h)
	Cleanup time.Duration // Cleanup interval (default 1h)
	Cache   ResponseCache // Optional durable store
}

// NewIdempotencyStore creates a new idempotency store
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = time.Hour
	}

	store := &IdempotencyStore{
		entries:  make(map[string]*idempotencyEntry),
		ttl:      cfg.TTL,
		cache:    cfg.Cache,
		stopChan: make(chan struct{}),
	}

	go store.cleanupLoop(cfg.Cleanup)

	return store
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (s *IdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *IdempotencyStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

func (s *IdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, entry := range s.entries {
		if entry.response != nil && entry.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// begin returns a replayable response, or marks key in flight and returns
// the new entry. Concurrent duplicates wait for the first to finish.
func (s *IdempotencyStore) begin(ctx context.Context, key string) (*cachedResponse, *idempotencyEntry) {
	for {
		s.mu.Lock()
		entry, ok := s.entries[key]
		if !ok {
			break
		}
		if entry.response == nil {
			s.mu.Unlock()
			select {
			case <-entry.done:
				continue
			case <-ctx.Done():
				return nil, nil
			}
		}
		if entry.expiresAt.After(time.Now()) {
			s.mu.Unlock()
			return entry.response, nil
		}
		delete(s.entries, key)
		break
	}

	entry := &idempotencyEntry{done: make(chan struct{})}
	s.entries[key] = entry
	s.mu.Unlock()

	if resp := s.lookupCache(ctx, key); resp != nil {
		s.finish(ctx, key, entry, resp, false)
		return resp, nil
	}
	return nil, entry
}

// finish publishes resp for waiters. Server errors are not kept so a retry
// can succeed.
func (s *IdempotencyStore) finish(ctx context.Context, key string, entry *idempotencyEntry, resp *cachedResponse, persist bool) {
	s.mu.Lock()
	if resp.Status >= http.StatusInternalServerError {
		delete(s.entries, key)
	} else {
		entry.response = resp
		entry.expiresAt = time.Now().Add(s.ttl)
	}
	close(entry.done)
	s.mu.Unlock()

	if persist && s.cache != nil && resp.Status < http.StatusInternalServerError {
		data, err := json.Marshal(resp)
		if err == nil {
			err = s.cache.Set(ctx, key, data, s.ttl)
		}
		if err != nil {
			slog.Warn("idempotency cache write failed", slog.String("error", err.Error()))
		}
	}
}

func (s *IdempotencyStore) lookupCache(ctx context.Context, key string) *cachedResponse {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("idempotency cache read failed", slog.String("error", err.Error()))
		return nil
	}
	if data == nil {
		return nil
	}
	var resp cachedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil
	}
	return &resp
}

// generateKey creates a unique key from user ID, idempotency key, and request fingerprint
func generateKey(userID, idempotencyKey, method, path string, body []byte) string {
	h := sha256.New()
	for _, part := range []string{userID, idempotencyKey, method, path} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// idempotencyResponseWriter captures the response for caching
type idempotencyResponseWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *idempotencyResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// encodingHeaders describe how one response went over the wire. The stored
// body is the handler's output before any outer encoding.
var encodingHeaders = []string{"Content-Encoding", "Content-Length", "Vary"}

func storableHeaders(h http.Header) http.Header {
	stored := h.Clone()
	for _, name := range encodingHeaders {
		stored.Del(name)
	}
	return stored
}

// replay writes resp. Headers already set for this request (request ID,
// rate limit) win over the stored ones.
func replay(w http.ResponseWriter, resp *cachedResponse) {
	for k, v := range resp.Headers {
		if _, ok := w.Header()[k]; ok {
			continue
		}
		for _, val := range v {
			w.Header().Add(k, val)
		}
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

// Idempotency replays the stored response for POST requests that repeat an
// Idempotency-Key with the same caller, path and body
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			idempotencyKey := r.Header.Get("Idempotency-Key")
			if idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID := GetUserID(r.Context())
			if userID == "" {
				userID = r.RemoteAddr
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := generateKey(userID, idempotencyKey, r.Method, r.URL.Path, body)

			cached, entry := store.begin(r.Context(), key)
			if cached != nil {
				replay(w, cached)
				return
			}
			if entry == nil {
				// caller went away while waiting
				return
			}

			ctx := context.WithoutCancel(r.Context())
			defer func() {
				if rec := recover(); rec != nil {
					store.finish(ctx, key, entry, &cachedResponse{Status: http.StatusInternalServerError}, false)
					panic(rec)
				}
			}()

			irw := &idempotencyResponseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(irw, r)

			store.finish(ctx, key, entry, &cachedResponse{
				Status:  irw.status,
				Headers: storableHeaders(irw.Header()),
				Body:    irw.body.Bytes(),
			}, true)
		})
	}
}
