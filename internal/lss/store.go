package lss

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aace/lssbroker/internal/common/metrics"
	"github.com/aace/lssbroker/internal/storage"
)

// ConfigTable and SubscriptionsKey name the single persisted value the
// store reads and writes: a JSON array of {id, endpoint, path} objects.
const (
	ConfigTable      = "aace.localSkillService"
	SubscriptionsKey = "subscriptions"
)

// subscriptionRecord is the persisted wire shape of one subscriber entry.
type subscriptionRecord struct {
	ID       string `json:"id"`
	Endpoint string `json:"endpoint"`
	Path     string `json:"path"`
}

// topic holds one id's subscriber set and its resolved hooks. Both fields
// are guarded by the owning SubscriptionStore's subscriptionMutex.
type topic struct {
	subscribers *SubscriberSet
	hooks       Hooks
}

// SubscriptionStore maps topic id → SubscriberSet, with hooks attached
// per topic, persisted as a flat JSON array via a storage.KV table. All
// mutation and snapshot reads are linearised under subscriptionMutex;
// network and hook I/O always happen outside it.
type SubscriptionStore struct {
	subscriptionMutex sync.RWMutex
	topics            map[string]*topic

	kv storage.KV
}

// NewSubscriptionStore returns a store backed by kv.
func NewSubscriptionStore(kv storage.KV) *SubscriptionStore {
	return &SubscriptionStore{
		topics: make(map[string]*topic),
		kv:     kv,
	}
}

// ensureTopicLocked creates id's topic if absent. Caller must hold
// subscriptionMutex for writing.
func (s *SubscriptionStore) ensureTopicLocked(id string) *topic {
	t, ok := s.topics[id]
	if !ok {
		t = &topic{subscribers: NewSubscriberSet()}
		s.topics[id] = t
	}
	return t
}

// EnsureTopic idempotently creates id's topic.
func (s *SubscriptionStore) EnsureTopic(id string) {
	s.subscriptionMutex.Lock()
	defer s.subscriptionMutex.Unlock()
	s.ensureTopicLocked(id)
}

// Add adds subscriber to id's topic (creating the topic if absent) and
// persists on success. Returns false iff the subscriber was already
// present.
func (s *SubscriptionStore) Add(id string, sub Subscriber) bool {
	s.subscriptionMutex.Lock()
	t := s.ensureTopicLocked(id)
	added := t.subscribers.Add(sub)
	var records []subscriptionRecord
	var count int
	if added {
		records = s.snapshotRecordsLocked()
		count = t.subscribers.Len()
	}
	s.subscriptionMutex.Unlock()

	if added {
		metrics.SubscriberCount.WithLabelValues(id).Set(float64(count))
		s.persist(records)
	}
	return added
}

// Remove removes subscriber from id's topic and persists on success.
// Returns false iff no equal subscriber existed (including an unknown
// topic id).
func (s *SubscriptionStore) Remove(id string, sub Subscriber) bool {
	s.subscriptionMutex.Lock()
	t, ok := s.topics[id]
	var removed bool
	var records []subscriptionRecord
	var count int
	if ok {
		removed = t.subscribers.Remove(sub)
		if removed {
			records = s.snapshotRecordsLocked()
			count = t.subscribers.Len()
		}
	}
	s.subscriptionMutex.Unlock()

	if removed {
		metrics.SubscriberCount.WithLabelValues(id).Set(float64(count))
		s.persist(records)
	}
	return removed
}

// SubscribersOf returns a stable snapshot of id's subscribers, or nil if
// the topic does not exist.
func (s *SubscriptionStore) SubscribersOf(id string) []Subscriber {
	s.subscriptionMutex.RLock()
	defer s.subscriptionMutex.RUnlock()

	t, ok := s.topics[id]
	if !ok {
		return nil
	}
	return t.subscribers.Snapshot()
}

// TopicExists reports whether id has been registered, by subscription or
// by RegisterPublishHandler.
func (s *SubscriptionStore) TopicExists(id string) bool {
	s.subscriptionMutex.RLock()
	defer s.subscriptionMutex.RUnlock()
	_, ok := s.topics[id]
	return ok
}

// RegisterPublishHandler ensures id's topic exists and overwrites any
// non-nil hook supplied. A nil hook argument leaves the existing hook (if
// any) untouched.
func (s *SubscriptionStore) RegisterPublishHandler(id string, subscribeHook SubscribeHook, requestHook RequestHook, responseHook ResponseHook) {
	s.subscriptionMutex.Lock()
	defer s.subscriptionMutex.Unlock()

	t := s.ensureTopicLocked(id)
	if subscribeHook != nil {
		t.hooks.Subscribe = subscribeHook
	}
	if requestHook != nil {
		t.hooks.Request = requestHook
	}
	if responseHook != nil {
		t.hooks.Response = responseHook
	}
}

// HooksFor returns a copy of id's resolved hooks. Zero value if id is
// unknown.
func (s *SubscriptionStore) HooksFor(id string) Hooks {
	s.subscriptionMutex.RLock()
	defer s.subscriptionMutex.RUnlock()

	t, ok := s.topics[id]
	if !ok {
		return Hooks{}
	}
	return t.hooks
}

// snapshotRecordsLocked builds the flat persisted representation of all
// topics. Caller must hold subscriptionMutex.
func (s *SubscriptionStore) snapshotRecordsLocked() []subscriptionRecord {
	var records []subscriptionRecord
	for id, t := range s.topics {
		for _, sub := range t.subscribers.Snapshot() {
			records = append(records, subscriptionRecord{ID: id, Endpoint: sub.Endpoint, Path: sub.Path})
		}
	}
	return records
}

// persist writes records to the KV table. Failures are logged; the
// in-memory state remains authoritative until the next successful
// persist.
func (s *SubscriptionStore) persist(records []subscriptionRecord) {
	data, err := json.Marshal(records)
	if err != nil {
		slog.Error("subscription persist: marshal failed", "component", "lss", "error", err)
		return
	}

	if err := s.kv.Put(context.Background(), ConfigTable, SubscriptionsKey, string(data)); err != nil {
		slog.Error("subscription persist: storage write failed", "component", "lss", "error", err)
	}
}

// Load reads the persisted array and populates topics, creating any topic
// not yet registered. Missing/unparseable state is treated as empty; it
// never prevents the store from starting.
func (s *SubscriptionStore) Load(ctx context.Context) {
	raw, found, err := s.kv.Get(ctx, ConfigTable, SubscriptionsKey)
	if err != nil {
		slog.Error("subscription load: storage read failed", "component", "lss", "error", err)
		return
	}
	if !found || raw == "" {
		return
	}

	var records []subscriptionRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		slog.Error("subscription load: invalid JSON, starting empty", "component", "lss", "error", err)
		return
	}

	s.subscriptionMutex.Lock()
	for _, rec := range records {
		if rec.ID == "" || rec.Endpoint == "" || rec.Path == "" {
			slog.Warn("subscription load: skipping entry with missing field", "component", "lss", "record", rec)
			continue
		}
		t := s.ensureTopicLocked(rec.ID)
		t.subscribers.Add(Subscriber{Endpoint: rec.Endpoint, Path: rec.Path})
	}

	counts := make(map[string]int, len(s.topics))
	for id, t := range s.topics {
		counts[id] = t.subscribers.Len()
	}
	s.subscriptionMutex.Unlock()

	for id, count := range counts {
		metrics.SubscriberCount.WithLabelValues(id).Set(float64(count))
	}
}
