// Package storage implements the local key/value string table the broker
// uses to persist subscriptions. It realizes spec.md's "local storage"
// collaborator: a get/put string table, addressed by (table, key).
package storage

import "context"

// KV is a string-keyed, string-valued table store. A single value is
// persisted by the broker: table "aace.localSkillService", key
// "subscriptions".
type KV interface {
	// Get returns the stored value and true, or ("", false, nil) if the
	// key is absent. A non-nil error indicates a storage fault.
	Get(ctx context.Context, table, key string) (string, bool, error)

	// Put stores value under (table, key), creating the table if needed.
	Put(ctx context.Context, table, key, value string) error

	// Close releases any resources held by the store.
	Close() error
}
