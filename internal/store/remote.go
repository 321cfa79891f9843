package store

import (
	"context"
	"encoding/json"
)

// Remote collection names (unprefixed; the remote namespaces by owner).
const (
	RemoteTrades     = "trades"
	RemoteAccounts   = "accounts"
	RemoteStrategies = "strategies"
	RemoteTags       = "tags"

	RemoteSettings = "settings"
	RemoteProfile  = "profile"
)

// Snapshot is a full replacement payload for one collection, as delivered
// by a realtime subscription.
type Snapshot struct {
	// Docs holds every document currently in the collection.
	Docs []json.RawMessage
	// HasPendingWrites is true when the snapshot includes local writes not
	// yet acknowledged by the server.
	HasPendingWrites bool
	// FromCache is true when the snapshot was served from a local cache
	// rather than confirmed live data.
	FromCache bool
}

// RemoteStore is a generic document store with realtime subscriptions.
// Documents are keyed by the entity's own ID within an (owner, collection)
// namespace; writes are last-write-wins per document. Settings and profile
// are singleton documents per owner.
//
// Implementations must deliver an initial snapshot shortly after Subscribe
// and a fresh snapshot after every acknowledged change. Cancel functions
// are idempotent.
type RemoteStore interface {
	CreateDoc(ctx context.Context, owner, collection, id string, doc interface{}) error
	UpdateDoc(ctx context.Context, owner, collection, id string, doc interface{}) error
	DeleteDoc(ctx context.Context, owner, collection, id string) error

	// UploadAll bulk-writes documents keyed by ID. Used by migration only;
	// re-running with the same input must not create duplicates.
	UploadAll(ctx context.Context, owner, collection string, docs map[string]interface{}) error

	Subscribe(owner, collection string, fn func(Snapshot)) (cancel func())

	SaveSingleton(ctx context.Context, owner, name string, value interface{}) error
	SubscribeSingleton(owner, name string, fn func(json.RawMessage)) (cancel func())

	Close() error
}

// decodeDocs unmarshals every document in a snapshot into a typed slice
// via the provided append callback, skipping documents that fail to parse.
func decodeDocs(docs []json.RawMessage, add func(json.RawMessage) error) (skipped int) {
	for _, doc := range docs {
		if err := add(doc); err != nil {
			skipped++
		}
	}
	return skipped
}
