package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestBolt(t *testing.T) *BoltKV {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	kv, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestBoltKVPutThenGetRoundTrips(t *testing.T) {
	kv := openTestBolt(t)
	ctx := context.Background()

	if err := kv.Put(ctx, "aace.localSkillService", "subscriptions", `[{"id":"t"}]`); err != nil {
		t.Fatalf("put: %v", err)
	}

	value, found, err := kv.Get(ctx, "aace.localSkillService", "subscriptions")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if value != `[{"id":"t"}]` {
		t.Fatalf("value = %q", value)
	}
}

func TestBoltKVGetMissingBucketReturnsNotFound(t *testing.T) {
	kv := openTestBolt(t)
	_, found, err := kv.Get(context.Background(), "no-such-table", "key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected not found for missing bucket")
	}
}

func TestBoltKVPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	kv, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	kv.Put(context.Background(), "table", "key", "value")
	kv.Close()

	reopened, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	value, found, err := reopened.Get(context.Background(), "table", "key")
	if err != nil || !found || value != "value" {
		t.Fatalf("value=%q found=%v err=%v", value, found, err)
	}
}
