package lss

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aace/lssbroker/internal/storage"
)

func TestSubscriptionStoreAddPersistsState(t *testing.T) {
	kv := storage.NewMemory()
	store := NewSubscriptionStore(kv)
	store.EnsureTopic("t")

	sub := Subscriber{Endpoint: "/tmp/a.sock", Path: "/cb"}
	if !store.Add("t", sub) {
		t.Fatal("add should succeed")
	}

	raw, found, err := kv.Get(context.Background(), ConfigTable, SubscriptionsKey)
	if err != nil || !found {
		t.Fatalf("expected persisted value, found=%v err=%v", found, err)
	}

	var records []subscriptionRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		t.Fatalf("unmarshal persisted value: %v", err)
	}
	if len(records) != 1 || records[0].ID != "t" || records[0].Endpoint != sub.Endpoint || records[0].Path != sub.Path {
		t.Fatalf("unexpected persisted records: %+v", records)
	}
}

func TestSubscriptionStoreAddTwiceIsIdempotent(t *testing.T) {
	kv := storage.NewMemory()
	store := NewSubscriptionStore(kv)
	store.EnsureTopic("t")
	sub := Subscriber{Endpoint: "/tmp/a.sock", Path: "/cb"}

	store.Add("t", sub)
	if store.Add("t", sub) {
		t.Fatal("second add should return false")
	}
	if len(store.SubscribersOf("t")) != 1 {
		t.Fatal("set size should remain 1")
	}
}

func TestSubscriptionStorePersistThenLoadRoundTrips(t *testing.T) {
	kv := storage.NewMemory()
	store := NewSubscriptionStore(kv)
	store.EnsureTopic("t")
	sub := Subscriber{Endpoint: "/tmp/a.sock", Path: "/cb"}
	store.Add("t", sub)

	fresh := NewSubscriptionStore(kv)
	fresh.Load(context.Background())

	subs := fresh.SubscribersOf("t")
	if len(subs) != 1 || subs[0] != sub {
		t.Fatalf("loaded subscribers = %v, want [%v]", subs, sub)
	}
}

func TestSubscriptionStoreLoadCreatesTopicBeforeRegistration(t *testing.T) {
	kv := storage.NewMemory()
	records := []subscriptionRecord{{ID: "t", Endpoint: "/tmp/a.sock", Path: "/cb"}}
	data, _ := json.Marshal(records)
	kv.Put(context.Background(), ConfigTable, SubscriptionsKey, string(data))

	store := NewSubscriptionStore(kv)
	store.Load(context.Background())

	if !store.TopicExists("t") {
		t.Fatal("topic should exist after load, before any RegisterPublishHandler")
	}

	store.RegisterPublishHandler("t", nil, nil, nil)
	if len(store.SubscribersOf("t")) != 1 {
		t.Fatal("registering a publish handler must not clear existing subscribers")
	}
}

func TestSubscriptionStoreLoadToleratesInvalidJSON(t *testing.T) {
	kv := storage.NewMemory()
	kv.Put(context.Background(), ConfigTable, SubscriptionsKey, "not json")

	store := NewSubscriptionStore(kv)
	store.Load(context.Background())

	if store.TopicExists("anything") {
		t.Fatal("invalid persisted state should yield empty store, not a crash")
	}
}

func TestSubscriptionStoreRemoveUnknownReturnsFalse(t *testing.T) {
	kv := storage.NewMemory()
	store := NewSubscriptionStore(kv)

	if store.Remove("missing-topic", Subscriber{Endpoint: "/tmp/a.sock", Path: "/cb"}) {
		t.Fatal("remove on an unknown topic should return false")
	}
}

func TestSubscriptionStoreRegisterPublishHandlerLastWins(t *testing.T) {
	kv := storage.NewMemory()
	store := NewSubscriptionStore(kv)

	first := func(doc Document) bool { return true }
	second := func(doc Document) bool { return false }

	store.RegisterPublishHandler("t", nil, first, nil)
	store.RegisterPublishHandler("t", nil, second, nil)

	hooks := store.HooksFor("t")
	if hooks.Request(nil) {
		t.Fatal("the last registered request hook should win")
	}
}
