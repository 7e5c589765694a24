package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-redis/redismock/v8"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, err := kv.Get(ctx, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get(missing) err = %v, want ErrKeyNotFound", err)
	}
	if err := kv.Set(ctx, "k", []byte(`[1]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set(ctx, "k", []byte(`[1,2]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := kv.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[1,2]` {
		t.Errorf("Get = %s, want [1,2]", got)
	}
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := kv.Get(ctx, "k"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get after delete err = %v, want ErrKeyNotFound", err)
	}
}

// TestMemoryKV verifies the in-memory backend and that values are copied.
func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV()
	exerciseKV(t, kv)

	buf := []byte("abc")
	kv.Set(context.Background(), "x", buf)
	buf[0] = 'z'
	got, _ := kv.Get(context.Background(), "x")
	if string(got) != "abc" {
		t.Errorf("stored value aliased caller buffer: %s", got)
	}
}

// TestSQLiteKV verifies the sqlite backend and that data survives a reopen.
func TestSQLiteKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "fittracker.db")
	kv, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	exerciseKV(t, kv)

	if err := kv.Set(context.Background(), "persist", []byte(`{}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	kv.Close()

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(context.Background(), "persist")
	if err != nil || string(got) != `{}` {
		t.Errorf("after reopen = %s, %v", got, err)
	}
}

// TestRedisKV verifies the redis commands issued and redis.Nil mapping.
func TestRedisKV(t *testing.T) {
	client, mock := redismock.NewClientMock()
	kv := NewRedisKV(client)
	ctx := context.Background()

	mock.ExpectGet("fittracker_session_templates").RedisNil()
	mock.ExpectSet("fittracker_session_templates", []byte(`[]`), 0).SetVal("OK")
	mock.ExpectGet("fittracker_session_templates").SetVal(`[]`)
	mock.ExpectDel("fittracker_session_templates").SetVal(1)
	mock.ExpectGet("broken").SetErr(errors.New("connection reset"))

	if _, err := kv.Get(ctx, "fittracker_session_templates"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get nil err = %v, want ErrKeyNotFound", err)
	}
	if err := kv.Set(ctx, "fittracker_session_templates", []byte(`[]`)); err != nil {
		t.Errorf("Set: %v", err)
	}
	got, err := kv.Get(ctx, "fittracker_session_templates")
	if err != nil || string(got) != `[]` {
		t.Errorf("Get = %s, %v", got, err)
	}
	if err := kv.Delete(ctx, "fittracker_session_templates"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, err := kv.Get(ctx, "broken"); err == nil || errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get broken err = %v, want transport error", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// TestStoreOverSQLite verifies the store works unchanged on the sqlite backend.
func TestStoreOverSQLite(t *testing.T) {
	kv, err := OpenSQLite(filepath.Join(t.TempDir(), "fittracker.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	s, _, _ := newTestStore(t)
	s.kv = kv
	defer s.Close()

	ctx := context.Background()
	tpl, err := s.SaveSessionTemplate(ctx, pushTemplate())
	if err != nil {
		t.Fatalf("SaveSessionTemplate: %v", err)
	}
	list, err := s.LoadSessionTemplates(ctx)
	if err != nil || len(list) != 1 || list[0].ID != tpl.ID {
		t.Errorf("templates = %+v, %v", list, err)
	}
}
