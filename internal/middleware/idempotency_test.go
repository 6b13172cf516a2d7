package middleware

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// ============================================================================
// Test Helpers
// ============================================================================

// mapCache is an in-memory ResponseCache
type mapCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	setErr  error
	setTTLs []time.Duration
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.data[key], nil
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	c.setTTLs = append(c.setTTLs, ttl)
	return nil
}

func (c *mapCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// countingHandler writes status and body and counts calls
func countingHandler(status int, body string, calls *int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func postWithKey(key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/restaurants/restaurant:1/schedules", bytes.NewReader([]byte(body)))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	req.RemoteAddr = "192.168.1.1:12345"
	return req
}

func newStore(t *testing.T, cfg IdempotencyConfig) *IdempotencyStore {
	t.Helper()
	store := NewIdempotencyStore(cfg)
	t.Cleanup(store.Stop)
	return store
}

// ============================================================================
// generateKey Tests
// ============================================================================

func TestGenerateKey_DistinguishesEveryPart(t *testing.T) {
	t.Parallel()
	base := generateKey("user:1", "k", "POST", "/p", []byte("{}"))

	if base != generateKey("user:1", "k", "POST", "/p", []byte("{}")) {
		t.Error("expected deterministic key")
	}
	variants := []string{
		generateKey("user:2", "k", "POST", "/p", []byte("{}")),
		generateKey("user:1", "k2", "POST", "/p", []byte("{}")),
		generateKey("user:1", "k", "PUT", "/p", []byte("{}")),
		generateKey("user:1", "k", "POST", "/q", []byte("{}")),
		generateKey("user:1", "k", "POST", "/p", []byte("[]")),
		generateKey("user:1k", "", "POST", "/p", []byte("{}")),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base key", i)
		}
	}
}

// ============================================================================
// Idempotency Middleware Tests
// ============================================================================

func TestIdempotency_SkipsNonPOST(t *testing.T) {
	t.Parallel()
	store := newStore(t, IdempotencyConfig{})
	var calls int32
	handler := Idempotency(store)(countingHandler(http.StatusOK, "{}", &calls))

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(method, "/x", nil)
			req.Header.Set("Idempotency-Key", "same")
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}
	}

	if calls != 6 {
		t.Errorf("expected every request to reach the handler, got %d", calls)
	}
}

func TestIdempotency_NoKey_ProceedsEveryTime(t *testing.T) {
	t.Parallel()
	store := newStore(t, IdempotencyConfig{})
	var calls int32
	handler := Idempotency(store)(countingHandler(http.StatusCreated, "{}", &calls))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("", `{"startTime":"09:00"}`))
	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("", `{"startTime":"09:00"}`))

	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestIdempotency_RepeatedKey_Replays(t *testing.T) {
	t.Parallel()
	store := newStore(t, IdempotencyConfig{TTL: time.Hour})
	var calls int32
	handler := Idempotency(store)(countingHandler(http.StatusCreated, `{"id":"schedule:1"}`, &calls))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, postWithKey("abc", `{"startTime":"09:00"}`))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, postWithKey("abc", `{"startTime":"09:00"}`))

	if calls != 1 {
		t.Fatalf("expected handler called once, got %d", calls)
	}
	if first.Header().Get("X-Idempotency-Replayed") != "" {
		t.Error("first response must not be marked replayed")
	}
	if second.Code != http.StatusCreated || second.Body.String() != `{"id":"schedule:1"}` {
		t.Errorf("unexpected replay %d %q", second.Code, second.Body.String())
	}
	if second.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Error("expected replay marker")
	}
	if second.Header().Get("Content-Type") != "application/json" {
		t.Error("expected first response headers replayed")
	}
}

func TestIdempotency_BehindCompress_ReplayMatchesRetryEncoding(t *testing.T) {
	t.Parallel()
	store := newStore(t, IdempotencyConfig{TTL: time.Hour})
	var calls int32
	handler := Chain(
		countingHandler(http.StatusCreated, `{"data":{"id":"schedule:1"}}`, &calls),
		Compress,
		Idempotency(store),
	)

	gzipped := postWithKey("abc", `{"startTime":"09:00"}`)
	gzipped.Header.Set("Accept-Encoding", "gzip")
	first := httptest.NewRecorder()
	handler.ServeHTTP(first, gzipped)
	if first.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected first response gzipped, got %q", first.Header().Get("Content-Encoding"))
	}

	plain := httptest.NewRecorder()
	handler.ServeHTTP(plain, postWithKey("abc", `{"startTime":"09:00"}`))

	if calls != 1 {
		t.Fatalf("expected handler called once, got %d", calls)
	}
	if plain.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Fatal("expected replay marker")
	}
	if enc := plain.Header().Get("Content-Encoding"); enc != "" {
		t.Errorf("expected no Content-Encoding on plain replay, got %q", enc)
	}
	if plain.Header().Get("Vary") != "" {
		t.Errorf("expected no Vary on plain replay, got %q", plain.Header().Get("Vary"))
	}
	if plain.Body.String() != `{"data":{"id":"schedule:1"}}` {
		t.Errorf("unexpected replay body %q", plain.Body.String())
	}
	if plain.Header().Get("Content-Type") != "application/json" {
		t.Error("expected Content-Type replayed")
	}

	regzipped := postWithKey("abc", `{"startTime":"09:00"}`)
	regzipped.Header.Set("Accept-Encoding", "gzip")
	again := httptest.NewRecorder()
	handler.ServeHTTP(again, regzipped)

	if again.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzipped replay, got %q", again.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(again.Body)
	if err != nil {
		t.Fatalf("replay body is not gzip: %v", err)
	}
	decoded, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read gzip replay: %v", err)
	}
	if string(decoded) != `{"data":{"id":"schedule:1"}}` {
		t.Errorf("unexpected decoded replay %q", decoded)
	}
}

func TestStorableHeaders_DropsEncodingHeaders(t *testing.T) {
	t.Parallel()
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Content-Encoding", "gzip")
	h.Set("Content-Length", "42")
	h.Set("Vary", "Accept-Encoding")

	stored := storableHeaders(h)

	if stored.Get("Content-Type") != "application/json" {
		t.Error("expected Content-Type kept")
	}
	for _, name := range []string{"Content-Encoding", "Content-Length", "Vary"} {
		if stored.Get(name) != "" {
			t.Errorf("expected %s dropped, got %q", name, stored.Get(name))
		}
	}
	if h.Get("Content-Encoding") != "gzip" {
		t.Error("source headers must not be modified")
	}
}

func TestIdempotency_DifferentBody_IsNewRequest(t *testing.T) {
	t.Parallel()
	store := newStore(t, IdempotencyConfig{TTL: time.Hour})
	var calls int32
	handler := Idempotency(store)(countingHandler(http.StatusCreated, "{}", &calls))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("abc", `{"startTime":"09:00"}`))
	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("abc", `{"startTime":"10:00"}`))

	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestIdempotency_DifferentUsers_DoNotShare(t *testing.T) {
	t.Parallel()
	store := newStore(t, IdempotencyConfig{TTL: time.Hour})
	var calls int32
	handler := Idempotency(store)(countingHandler(http.StatusCreated, "{}", &calls))

	for _, id := range []string{"user:1", "user:2"} {
		req := postWithKey("abc", "{}")
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, id))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestIdempotency_ServerError_NotReplayed(t *testing.T) {
	t.Parallel()
	cache := newMapCache()
	store := newStore(t, IdempotencyConfig{TTL: time.Hour, Cache: cache})
	var calls int32
	handler := Idempotency(store)(countingHandler(http.StatusInternalServerError, "{}", &calls))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("abc", "{}"))
	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("abc", "{}"))

	if calls != 2 {
		t.Errorf("expected retry after 500 to reach handler, got %d calls", calls)
	}
	if cache.len() != 0 {
		t.Error("expected 500 not persisted")
	}
}

func TestIdempotency_RestoresRequestBody(t *testing.T) {
	t.Parallel()
	store := newStore(t, IdempotencyConfig{})
	var got string
	handler := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
		w.WriteHeader(http.StatusCreated)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("abc", `{"startTime":"09:00"}`))

	if got != `{"startTime":"09:00"}` {
		t.Errorf("expected handler to see body, got %q", got)
	}
}

func TestIdempotency_InFlight_SecondRequestWaits(t *testing.T) {
	t.Parallel()
	store := newStore(t, IdempotencyConfig{TTL: time.Hour})

	var calls int32
	started := make(chan struct{})
	proceed := make(chan struct{})
	handler := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-proceed
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"done"}`))
	}))

	var wg sync.WaitGroup
	results := make([]*httptest.ResponseRecorder, 2)
	for i := range results {
		results[i] = httptest.NewRecorder()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		handler.ServeHTTP(results[0], postWithKey("inflight", "{}"))
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		handler.ServeHTTP(results[1], postWithKey("inflight", "{}"))
	}()

	time.Sleep(50 * time.Millisecond)
	close(proceed)
	wg.Wait()

	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected handler called once, got %d", calls)
	}
	for i, rr := range results {
		if rr.Code != http.StatusCreated {
			t.Errorf("request %d: expected 201, got %d", i+1, rr.Code)
		}
	}
	if results[1].Header().Get("X-Idempotency-Replayed") != "true" {
		t.Error("second request should be a replay")
	}
}

func TestIdempotency_ExpiredEntry_ProcessesAgain(t *testing.T) {
	t.Parallel()
	store := newStore(t, IdempotencyConfig{TTL: 10 * time.Millisecond})
	var calls int32
	handler := Idempotency(store)(countingHandler(http.StatusCreated, "{}", &calls))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("abc", "{}"))
	time.Sleep(30 * time.Millisecond)
	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("abc", "{}"))

	if calls != 2 {
		t.Errorf("expected 2 calls after expiry, got %d", calls)
	}
}

// ============================================================================
// Durable Cache Tests
// ============================================================================

func TestIdempotency_PersistsToCache(t *testing.T) {
	t.Parallel()
	cache := newMapCache()
	store := newStore(t, IdempotencyConfig{TTL: time.Hour, Cache: cache})
	var calls int32

	Idempotency(store)(countingHandler(http.StatusCreated, `{"id":"schedule:1"}`, &calls)).
		ServeHTTP(httptest.NewRecorder(), postWithKey("abc", "{}"))

	if cache.len() != 1 {
		t.Fatalf("expected one cached response, got %d", cache.len())
	}
	if cache.setTTLs[0] != time.Hour {
		t.Errorf("expected ttl 1h, got %v", cache.setTTLs[0])
	}
}

func TestIdempotency_ReplaysFromCacheAcrossStores(t *testing.T) {
	t.Parallel()
	cache := newMapCache()
	var calls int32
	handler := countingHandler(http.StatusCreated, `{"id":"schedule:1"}`, &calls)

	// a fresh store stands in for a restarted process
	Idempotency(newStore(t, IdempotencyConfig{TTL: time.Hour, Cache: cache}))(handler).
		ServeHTTP(httptest.NewRecorder(), postWithKey("abc", "{}"))
	rr := httptest.NewRecorder()
	Idempotency(newStore(t, IdempotencyConfig{TTL: time.Hour, Cache: cache}))(handler).
		ServeHTTP(rr, postWithKey("abc", "{}"))

	if calls != 1 {
		t.Errorf("expected handler called once, got %d", calls)
	}
	if rr.Code != http.StatusCreated || rr.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Errorf("expected replay from cache, got %d", rr.Code)
	}
	if rr.Body.String() != `{"id":"schedule:1"}` {
		t.Errorf("unexpected body %q", rr.Body.String())
	}
}

func TestIdempotency_CacheErrors_FallBackToHandler(t *testing.T) {
	t.Parallel()
	cache := newMapCache()
	cache.getErr = errors.New("read failed")
	cache.setErr = errors.New("write failed")
	store := newStore(t, IdempotencyConfig{TTL: time.Hour, Cache: cache})
	var calls int32

	rr := httptest.NewRecorder()
	Idempotency(store)(countingHandler(http.StatusCreated, "{}", &calls)).ServeHTTP(rr, postWithKey("abc", "{}"))

	if calls != 1 || rr.Code != http.StatusCreated {
		t.Errorf("expected request served despite cache errors, calls=%d code=%d", calls, rr.Code)
	}
}

// ============================================================================
// Cleanup Tests
// ============================================================================

func TestIdempotencyStore_Cleanup_RemovesOnlyExpired(t *testing.T) {
	t.Parallel()
	store := newStore(t, IdempotencyConfig{TTL: time.Hour})

	store.entries["expired"] = &idempotencyEntry{response: &cachedResponse{Status: 201}, expiresAt: time.Now().Add(-time.Minute), done: make(chan struct{})}
	store.entries["fresh"] = &idempotencyEntry{response: &cachedResponse{Status: 201}, expiresAt: time.Now().Add(time.Minute), done: make(chan struct{})}
	store.entries["inflight"] = &idempotencyEntry{done: make(chan struct{})}

	store.cleanup()

	if _, ok := store.entries["expired"]; ok {
		t.Error("expected expired entry removed")
	}
	if _, ok := store.entries["fresh"]; !ok {
		t.Error("expected fresh entry kept")
	}
	if _, ok := store.entries["inflight"]; !ok {
		t.Error("expected in-flight entry kept")
	}
}
