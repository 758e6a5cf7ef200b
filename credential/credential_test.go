package credential

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "token"); err != nil || ok {
		t.Fatalf("expected absent, got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "token", "T1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, err := s.Get(ctx, "token"); err != nil || !ok || v != "T1" {
		t.Fatalf("get: %q %v %v", v, ok, err)
	}
	if err := s.Set(ctx, "token", "T2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, _, _ := s.Get(ctx, "token"); v != "T2" {
		t.Fatalf("expected T2, got %q", v)
	}
	if err := s.Delete(ctx, "token"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "token"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "token"); ok {
		t.Fatal("expected absent after delete")
	}
}

func TestMemory(t *testing.T) {
	exerciseStorage(t, NewMemory())
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	exerciseStorage(t, NewFile(path))
}

func TestFilePermissionsAndPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := NewFile(path).Set(context.Background(), "token", "T1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600, got %o", perm)
	}
	if v, ok, _ := NewFile(path).Get(context.Background(), "token"); !ok || v != "T1" {
		t.Fatalf("expected value visible to a new File, got %q", v)
	}
}

func TestFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := NewFile(path)
	if _, _, err := f.Get(context.Background(), "token"); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("expected ErrCorruptFile, got %v", err)
	}
	if err := f.Delete(context.Background(), "token"); err != nil {
		t.Fatalf("delete must reset a corrupt file: %v", err)
	}
	if _, ok, err := f.Get(context.Background(), "token"); err != nil || ok {
		t.Fatalf("expected clean file, got ok=%v err=%v", ok, err)
	}
}

func TestRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	exerciseStorage(t, NewRedis(rdb, "sf", 0))

	s := NewRedis(rdb, "sf", time.Minute)
	if err := s.Set(context.Background(), "token", "T3"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := mr.Get("sf:token"); got != "T3" {
		t.Fatalf("expected prefixed key, got %q", got)
	}
	if ttl := mr.TTL("sf:token"); ttl != time.Minute {
		t.Fatalf("expected ttl, got %v", ttl)
	}
}

func TestRedisUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	if _, _, err := NewRedis(rdb, "sf", 0).Get(context.Background(), "token"); err == nil {
		t.Fatal("expected error when redis is down")
	}
}
