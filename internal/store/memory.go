package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	apperrors "tradevault/internal/errors"
)

// MemoryRemote implements RemoteStore with in-memory maps. Used for
// testing and local development. Snapshots are delivered synchronously to
// subscribers on every acknowledged write, plus an initial snapshot on
// subscribe.
type MemoryRemote struct {
	mu         sync.Mutex
	data       map[string]map[string]json.RawMessage // owner/collection -> id -> doc
	singletons map[string]json.RawMessage            // owner/name -> doc
	subs       map[string]map[int]func(Snapshot)
	singleSubs map[string]map[int]func(json.RawMessage)
	nextSub    int
	closed     bool

	// Test hooks. FailWrites makes every write return an error; Pending and
	// FromCache flag the next delivered snapshots accordingly.
	FailWrites bool
	Pending    bool
	FromCache  bool
}

// NewMemoryRemote creates an empty in-memory remote store.
func NewMemoryRemote() *MemoryRemote {
	return &MemoryRemote{
		data:       make(map[string]map[string]json.RawMessage),
		singletons: make(map[string]json.RawMessage),
		subs:       make(map[string]map[int]func(Snapshot)),
		singleSubs: make(map[string]map[int]func(json.RawMessage)),
	}
}

func remoteKey(owner, collection string) string {
	return owner + "/" + collection
}

func (m *MemoryRemote) put(owner, collection, id string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", id, err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return apperrors.ErrRemoteClosed
	}
	if m.FailWrites {
		m.mu.Unlock()
		return fmt.Errorf("write rejected: %s/%s", collection, id)
	}
	key := remoteKey(owner, collection)
	if m.data[key] == nil {
		m.data[key] = make(map[string]json.RawMessage)
	}
	m.data[key][id] = raw
	snap := m.snapshotLocked(key)
	fns := m.subscribersLocked(key)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
	return nil
}

// CreateDoc stores a new document. Writing an existing ID overwrites it;
// the remote is last-write-wins per document.
func (m *MemoryRemote) CreateDoc(_ context.Context, owner, collection, id string, doc interface{}) error {
	return m.put(owner, collection, id, doc)
}

// UpdateDoc overwrites a document.
func (m *MemoryRemote) UpdateDoc(_ context.Context, owner, collection, id string, doc interface{}) error {
	return m.put(owner, collection, id, doc)
}

// DeleteDoc removes a document. Deleting a missing document is a no-op.
func (m *MemoryRemote) DeleteDoc(_ context.Context, owner, collection, id string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return apperrors.ErrRemoteClosed
	}
	if m.FailWrites {
		m.mu.Unlock()
		return fmt.Errorf("write rejected: %s/%s", collection, id)
	}
	key := remoteKey(owner, collection)
	delete(m.data[key], id)
	snap := m.snapshotLocked(key)
	fns := m.subscribersLocked(key)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
	return nil
}

// UploadAll bulk-writes documents keyed by ID. One snapshot is delivered
// after the whole batch.
func (m *MemoryRemote) UploadAll(_ context.Context, owner, collection string, docs map[string]interface{}) error {
	encoded := make(map[string]json.RawMessage, len(docs))
	for id, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode document %s: %w", id, err)
		}
		encoded[id] = raw
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return apperrors.ErrRemoteClosed
	}
	if m.FailWrites {
		m.mu.Unlock()
		return fmt.Errorf("upload rejected: %s", collection)
	}
	key := remoteKey(owner, collection)
	if m.data[key] == nil {
		m.data[key] = make(map[string]json.RawMessage)
	}
	for id, raw := range encoded {
		m.data[key][id] = raw
	}
	snap := m.snapshotLocked(key)
	fns := m.subscribersLocked(key)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
	return nil
}

// Subscribe registers a snapshot callback and delivers the current state
// immediately.
func (m *MemoryRemote) Subscribe(owner, collection string, fn func(Snapshot)) func() {
	key := remoteKey(owner, collection)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	if m.subs[key] == nil {
		m.subs[key] = make(map[int]func(Snapshot))
	}
	m.subs[key][id] = fn
	snap := m.snapshotLocked(key)
	m.mu.Unlock()

	fn(snap)

	return func() {
		m.mu.Lock()
		delete(m.subs[key], id)
		m.mu.Unlock()
	}
}

// SaveSingleton stores a singleton document.
func (m *MemoryRemote) SaveSingleton(_ context.Context, owner, name string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode singleton %s: %w", name, err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return apperrors.ErrRemoteClosed
	}
	if m.FailWrites {
		m.mu.Unlock()
		return fmt.Errorf("write rejected: %s", name)
	}
	key := remoteKey(owner, name)
	m.singletons[key] = raw
	var fns []func(json.RawMessage)
	for _, f := range m.singleSubs[key] {
		fns = append(fns, f)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(raw)
	}
	return nil
}

// SubscribeSingleton registers a singleton callback, delivering the current
// value immediately when one exists.
func (m *MemoryRemote) SubscribeSingleton(owner, name string, fn func(json.RawMessage)) func() {
	key := remoteKey(owner, name)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	if m.singleSubs[key] == nil {
		m.singleSubs[key] = make(map[int]func(json.RawMessage))
	}
	m.singleSubs[key][id] = fn
	current, ok := m.singletons[key]
	m.mu.Unlock()

	if ok {
		fn(current)
	}

	return func() {
		m.mu.Lock()
		delete(m.singleSubs[key], id)
		m.mu.Unlock()
	}
}

// Close drops all subscribers and rejects further writes.
func (m *MemoryRemote) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.subs = make(map[string]map[int]func(Snapshot))
	m.singleSubs = make(map[string]map[int]func(json.RawMessage))
	return nil
}

// DocCount returns the number of documents in a collection. Test helper.
func (m *MemoryRemote) DocCount(owner, collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data[remoteKey(owner, collection)])
}

// snapshotLocked builds a deterministic snapshot of one collection.
// Callers hold m.mu.
func (m *MemoryRemote) snapshotLocked(key string) Snapshot {
	ids := make([]string, 0, len(m.data[key]))
	for id := range m.data[key] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, m.data[key][id])
	}
	return Snapshot{Docs: docs, HasPendingWrites: m.Pending, FromCache: m.FromCache}
}

func (m *MemoryRemote) subscribersLocked(key string) []func(Snapshot) {
	fns := make([]func(Snapshot), 0, len(m.subs[key]))
	for _, fn := range m.subs[key] {
		fns = append(fns, fn)
	}
	return fns
}
