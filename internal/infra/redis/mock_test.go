//go:build !integration

package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// fakeClient is an in-process RedisClient. TTLs are recorded, not enforced.
type fakeClient struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration

	IncrErr error
	// ExpireFailures makes that many Expire calls fail before succeeding.
	ExpireFailures int
}

var _ RedisClient = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttl[key] = expiration
	return nil
}

func (f *fakeClient) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeClient) Incr(ctx context.Context, key string) (int64, error) {
	if f.IncrErr != nil {
		return 0, f.IncrErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	if v, ok := f.data[key]; ok {
		for _, r := range v {
			n = n*10 + int64(r-'0')
		}
	}
	n++
	f.data[key] = itoa(n)
	return n, nil
}

func (f *fakeClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ExpireFailures > 0 {
		f.ExpireFailures--
		return errExpire
	}
	f.ttl[key] = expiration
	return nil
}

func (f *fakeClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; !ok {
		return -2, nil
	}
	ttl, ok := f.ttl[key]
	if !ok || ttl <= 0 {
		return -1, nil
	}
	return ttl, nil
}

var errExpire = errors.New("expire: i/o timeout")

func (f *fakeClient) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
		delete(f.ttl, k)
	}
	return nil
}

func (f *fakeClient) Close() error { return nil }

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}
