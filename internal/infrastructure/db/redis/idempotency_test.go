package redis

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/notekeeper/notes-api/internal/core/domain"
)

// fakeRedis overrides the commands the store uses. Any other call panics on
// the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func encode(value interface{}) string {
	switch v := value.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return v
	default:
		return "?"
	}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
	if f.setErr != nil {
		return redis.NewBoolResult(false, f.setErr)
	}
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = encode(value)
	f.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.data[key] = encode(value)
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			delete(f.ttls, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestIdempotencyStore_Miss(t *testing.T) {
	store := NewIdempotencyStore(newFakeRedis(), time.Minute)

	_, found, err := store.Lookup(context.Background(), 1, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected miss on empty store")
	}
}

func TestIdempotencyStore_RememberThenLookup(t *testing.T) {
	fake := newFakeRedis()
	store := NewIdempotencyStore(fake, 0)

	if err := store.Remember(context.Background(), 7, "abc", 42); err != nil {
		t.Fatalf("remember: %v", err)
	}

	id, found, err := store.Lookup(context.Background(), 7, "abc")
	if err != nil || !found || id != 42 {
		t.Fatalf("want (42, true, nil), got (%d, %v, %v)", id, found, err)
	}

	if ttl := fake.ttls["idempotency:note:7:abc"]; ttl != defaultIdempotencyTTL {
		t.Errorf("expected default ttl %v, got %v", defaultIdempotencyTTL, ttl)
	}
}

func TestIdempotencyStore_ScopedPerUser(t *testing.T) {
	store := NewIdempotencyStore(newFakeRedis(), time.Minute)
	_ = store.Remember(context.Background(), 1, "same", 10)

	_, found, _ := store.Lookup(context.Background(), 2, "same")
	if found {
		t.Fatal("keys must be scoped per user")
	}
}

func TestIdempotencyStore_ReserveIsExclusive(t *testing.T) {
	fake := newFakeRedis()
	store := NewIdempotencyStore(fake, time.Minute)
	ctx := context.Background()

	first, err := store.Reserve(ctx, 1, "k")
	if err != nil || !first {
		t.Fatalf("first reserve: want (true, nil), got (%v, %v)", first, err)
	}
	second, err := store.Reserve(ctx, 1, "k")
	if err != nil || second {
		t.Fatalf("second reserve: want (false, nil), got (%v, %v)", second, err)
	}
	if ttl := fake.ttls["idempotency:note:1:k"]; ttl != time.Minute {
		t.Errorf("reservation ttl: want 1m, got %v", ttl)
	}

	if _, _, err := store.Lookup(ctx, 1, "k"); !errors.Is(err, domain.ErrIdempotencyInProgress) {
		t.Fatalf("pending key: want ErrIdempotencyInProgress, got %v", err)
	}
}

func TestIdempotencyStore_RememberReplacesReservation(t *testing.T) {
	store := NewIdempotencyStore(newFakeRedis(), time.Minute)
	ctx := context.Background()

	if ok, _ := store.Reserve(ctx, 1, "k"); !ok {
		t.Fatal("expected reservation")
	}
	if err := store.Remember(ctx, 1, "k", 10); err != nil {
		t.Fatalf("remember: %v", err)
	}

	id, found, err := store.Lookup(ctx, 1, "k")
	if err != nil || !found || id != 10 {
		t.Fatalf("want (10, true, nil), got (%d, %v, %v)", id, found, err)
	}
	if ok, _ := store.Reserve(ctx, 1, "k"); ok {
		t.Fatal("a remembered key must not be reservable again")
	}
}

func TestIdempotencyStore_ReleaseFreesKey(t *testing.T) {
	store := NewIdempotencyStore(newFakeRedis(), time.Minute)
	ctx := context.Background()

	_, _ = store.Reserve(ctx, 1, "k")
	if err := store.Release(ctx, 1, "k"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, err := store.Reserve(ctx, 1, "k"); err != nil || !ok {
		t.Fatalf("expected key to be reservable after release, got (%v, %v)", ok, err)
	}
}

func TestIdempotencyStore_ReserveBackendError(t *testing.T) {
	fake := newFakeRedis()
	fake.setErr = errors.New("connection refused")
	store := NewIdempotencyStore(fake, time.Minute)

	ok, err := store.Reserve(context.Background(), 1, "k")
	if err == nil || ok {
		t.Fatalf("expected backend error, got ok=%v err=%v", ok, err)
	}
}

func TestIdempotencyStore_CorruptValue(t *testing.T) {
	fake := newFakeRedis()
	fake.data["idempotency:note:1:k"] = "not-a-number"
	store := NewIdempotencyStore(fake, time.Minute)

	if _, _, err := store.Lookup(context.Background(), 1, "k"); err == nil {
		t.Fatal("expected error for corrupt value")
	}
}

func TestIdempotencyStore_BackendError(t *testing.T) {
	fake := newFakeRedis()
	fake.getErr = errors.New("connection refused")
	store := NewIdempotencyStore(fake, time.Minute)

	_, found, err := store.Lookup(context.Background(), 1, "k")
	if err == nil || found {
		t.Fatalf("expected backend error, got found=%v err=%v", found, err)
	}
}

type pingRedis struct {
	redis.Cmdable
	err error
}

func (p pingRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", p.err)
}

func TestPing(t *testing.T) {
	if err := Ping(context.Background(), pingRedis{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	down := errors.New("connection refused")
	err := Ping(context.Background(), pingRedis{err: down})
	if !errors.Is(err, down) {
		t.Fatalf("expected wrapped ping error, got %v", err)
	}
}

func TestConfigOptions_DefaultTimeout(t *testing.T) {
	opts := Config{Addr: "localhost:6379", DB: 2}.options()
	if opts.DialTimeout != dialTimeout || opts.ReadTimeout != dialTimeout {
		t.Fatalf("expected default timeouts, got dial=%v read=%v", opts.DialTimeout, opts.ReadTimeout)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}

	opts = Config{Timeout: time.Second}.options()
	if opts.WriteTimeout != time.Second {
		t.Fatalf("expected explicit timeout, got %v", opts.WriteTimeout)
	}
}
