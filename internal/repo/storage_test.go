package repo

import (
	"context"
	"errors"
	"os"
	"sort"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/tbourn/service-journal/internal/config"
)

// exerciseStorage runs the Storage contract against one backend.
func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "@missing"); err != nil || ok {
		t.Fatalf("Get(missing) ok=%v err=%v; want ok=false err=nil", ok, err)
	}

	if err := s.Set(ctx, "@orders", "[]"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "@orders", `[{"id":"order_1","client":"Иванов"}]`); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, ok, err := s.Get(ctx, "@orders")
	if err != nil || !ok || v != `[{"id":"order_1","client":"Иванов"}]` {
		t.Fatalf("Get after overwrite = %q ok=%v err=%v", v, ok, err)
	}

	if err := s.Set(ctx, "@debts", "[]"); err != nil {
		t.Fatalf("Set debts: %v", err)
	}
	if err := s.Remove(ctx, "@orders", "@debts", "@never-set"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	for _, k := range []string{"@orders", "@debts"} {
		if _, ok, err := s.Get(ctx, k); err != nil || ok {
			t.Fatalf("Get(%s) after Remove ok=%v err=%v", k, ok, err)
		}
	}
	if err := s.Remove(ctx); err != nil {
		t.Fatalf("Remove() with no keys: %v", err)
	}
}

func TestMemoryStorage_Contract(t *testing.T) {
	m := NewMemoryStorage()
	exerciseStorage(t, m)

	_ = m.Set(context.Background(), "b", "2")
	_ = m.Set(context.Background(), "a", "1")
	keys := m.Keys()
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("Keys() = %v", keys)
	}
}

func TestMemoryStorage_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMemoryStorage()
	if err := m.Set(ctx, "k", "v"); !errors.Is(err, ErrStorage) {
		t.Fatalf("Set on canceled ctx err=%v; want ErrStorage", err)
	}
	if _, _, err := m.Get(ctx, "k"); !errors.Is(err, ErrStorage) {
		t.Fatalf("Get on canceled ctx err=%v; want ErrStorage", err)
	}
}

func TestSQLStorage_Contract(t *testing.T) {
	exerciseStorage(t, NewSQLStorage(openTempSQLite(t)))
}

func TestSQLStorage_ClosedDBWrapsErrStorage(t *testing.T) {
	db := openTempSQLite(t)
	s := NewSQLStorage(db)
	sqlDB, _ := db.DB()
	_ = sqlDB.Close()

	if err := s.Set(context.Background(), "k", "v"); !errors.Is(err, ErrStorage) {
		t.Fatalf("Set on closed db err=%v; want ErrStorage", err)
	}
	if _, _, err := s.Get(context.Background(), "k"); !errors.Is(err, ErrStorage) {
		t.Fatalf("Get on closed db err=%v; want ErrStorage", err)
	}
}

func TestRedisStorage_Contract(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb, err := OpenRedis(context.Background(), config.RedisConfig{Addr: addr, DB: 15})
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	prefix := "journal-test:" + t.Name() + ":"
	exerciseStorage(t, NewRedisStorage(rdb, prefix))
}

func TestRedisStorage_UnreachableServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewRedisStorage(rdb, "p:")
	if _, _, err := s.Get(context.Background(), "k"); !errors.Is(err, ErrStorage) {
		t.Fatalf("Get against unreachable redis err=%v; want ErrStorage", err)
	}
	if _, err := OpenRedis(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"}); !errors.Is(err, ErrStorage) {
		t.Fatalf("OpenRedis against unreachable redis err=%v; want ErrStorage", err)
	}
}
