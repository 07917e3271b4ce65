package session

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis answers GET, SET and DEL from a map without dialing a server.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	args [][]any
}

func (f *fakeRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, fmt.Errorf("dial disabled in tests")
	}
}

func (f *fakeRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		f.mu.Lock()
		defer f.mu.Unlock()

		args := cmd.Args()
		f.args = append(f.args, args)
		key := fmt.Sprint(args[1])

		switch c := cmd.(type) {
		case *redis.StatusCmd:
			switch v := args[2].(type) {
			case []byte:
				f.data[key] = string(v)
			default:
				f.data[key] = fmt.Sprint(v)
			}
			c.SetVal("OK")
		case *redis.StringCmd:
			v, ok := f.data[key]
			if !ok {
				c.SetErr(redis.Nil)
				return redis.Nil
			}
			c.SetVal(v)
		case *redis.IntCmd:
			if _, ok := f.data[key]; ok {
				delete(f.data, key)
				c.SetVal(1)
			} else {
				c.SetVal(0)
			}
		}
		return nil
	}
}

func (f *fakeRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func newFakeRedis(t *testing.T) (*redis.Client, *fakeRedis) {
	t.Helper()
	fake := &fakeRedis{data: make(map[string]string)}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(fake)
	t.Cleanup(func() { client.Close() })
	return client, fake
}

func TestRedisStore(t *testing.T) {
	client, fake := newFakeRedis(t)
	store := NewRedisStore(client, time.Hour)

	storeContract(t, store)

	t.Run("Key Prefix And TTL", func(t *testing.T) {
		fake.mu.Lock()
		defer fake.mu.Unlock()

		if _, ok := fake.data[KeyPrefix+"s1"]; !ok {
			t.Errorf("expected key %s, got %v", KeyPrefix+"s1", fake.data)
		}

		var sawTTL bool
		for _, args := range fake.args {
			if fmt.Sprint(args[0]) == "set" && len(args) == 5 && fmt.Sprint(args[3]) == "ex" && fmt.Sprint(args[4]) == "3600" {
				sawTTL = true
			}
		}
		if !sawTTL {
			t.Errorf("expected SET with a one hour expiry, got %v", fake.args)
		}
	})

	t.Run("Corrupt Value", func(t *testing.T) {
		fake.mu.Lock()
		fake.data[KeyPrefix+"bad"] = "{not json"
		fake.mu.Unlock()

		if _, err := store.Get(context.Background(), "bad"); err == nil {
			t.Error("expected decode error")
		}
	})
}
