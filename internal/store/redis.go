package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tradevault/internal/logging"
)

// RedisRemote implements RemoteStore on Redis. Each (owner, collection)
// pair is one hash keyed by document ID; change notifications go over a
// pub/sub channel per collection, and subscribers reload the full hash on
// every notification so each delivery is a complete snapshot.
//
// Snapshots built here are always server-confirmed, so HasPendingWrites
// and FromCache are false; pending-write reporting belongs to offline-
// capable backends.
type RedisRemote struct {
	rdb    *redis.Client
	logger zerolog.Logger
}

// NewRedisRemote creates a Redis-backed remote store.
func NewRedisRemote(addr, password string, db int, logger zerolog.Logger) *RedisRemote {
	return &RedisRemote{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		logger: logger,
	}
}

// Ping verifies connectivity to the Redis server.
func (r *RedisRemote) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func hashKey(owner, collection string) string {
	return fmt.Sprintf("tv:%s:%s", owner, collection)
}

func eventChannel(owner, collection string) string {
	return fmt.Sprintf("tv:%s:%s:events", owner, collection)
}

func singletonKey(owner, name string) string {
	return fmt.Sprintf("tv:%s:single:%s", owner, name)
}

func (r *RedisRemote) write(ctx context.Context, owner, collection, id string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", id, err)
	}
	if err := r.rdb.HSet(ctx, hashKey(owner, collection), id, raw).Err(); err != nil {
		return err
	}
	r.notify(ctx, owner, collection)
	return nil
}

// CreateDoc stores a document; last-write-wins per ID.
func (r *RedisRemote) CreateDoc(ctx context.Context, owner, collection, id string, doc interface{}) error {
	return r.write(ctx, owner, collection, id, doc)
}

// UpdateDoc overwrites a document.
func (r *RedisRemote) UpdateDoc(ctx context.Context, owner, collection, id string, doc interface{}) error {
	return r.write(ctx, owner, collection, id, doc)
}

// DeleteDoc removes a document.
func (r *RedisRemote) DeleteDoc(ctx context.Context, owner, collection, id string) error {
	if err := r.rdb.HDel(ctx, hashKey(owner, collection), id).Err(); err != nil {
		return err
	}
	r.notify(ctx, owner, collection)
	return nil
}

// UploadAll bulk-writes documents in one HSET and notifies once.
func (r *RedisRemote) UploadAll(ctx context.Context, owner, collection string, docs map[string]interface{}) error {
	if len(docs) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(docs))
	for id, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode document %s: %w", id, err)
		}
		fields[id] = raw
	}
	if err := r.rdb.HSet(ctx, hashKey(owner, collection), fields).Err(); err != nil {
		return err
	}
	r.notify(ctx, owner, collection)
	return nil
}

func (r *RedisRemote) notify(ctx context.Context, owner, collection string) {
	if err := r.rdb.Publish(ctx, eventChannel(owner, collection), "changed").Err(); err != nil {
		r.logger.Warn().Err(err).Str("collection", collection).Msg("Failed to publish change event")
	}
}

func (r *RedisRemote) loadSnapshot(ctx context.Context, owner, collection string) (Snapshot, error) {
	values, err := r.rdb.HGetAll(ctx, hashKey(owner, collection)).Result()
	if err != nil {
		return Snapshot{}, err
	}
	docs := make([]json.RawMessage, 0, len(values))
	for _, v := range values {
		docs = append(docs, json.RawMessage(v))
	}
	return Snapshot{Docs: docs}, nil
}

// Subscribe opens a pub/sub listener for the collection and delivers a
// full reloaded snapshot on every change event, plus one initial snapshot.
func (r *RedisRemote) Subscribe(owner, collection string, fn func(Snapshot)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := r.rdb.Subscribe(ctx, eventChannel(owner, collection))
	logger := logging.WithCollection(r.logger, collection)

	go func() {
		if snap, err := r.loadSnapshot(ctx, owner, collection); err == nil {
			fn(snap)
		} else if ctx.Err() == nil {
			logger.Warn().Err(err).Msg("Initial snapshot load failed")
		}

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				snap, err := r.loadSnapshot(ctx, owner, collection)
				if err != nil {
					if ctx.Err() == nil {
						logger.Warn().Err(err).Msg("Snapshot reload failed")
					}
					continue
				}
				fn(snap)
			}
		}
	}()

	return func() {
		cancel()
		pubsub.Close()
	}
}

// SaveSingleton stores a singleton document and notifies its channel.
func (r *RedisRemote) SaveSingleton(ctx context.Context, owner, name string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode singleton %s: %w", name, err)
	}
	if err := r.rdb.Set(ctx, singletonKey(owner, name), raw, 0).Err(); err != nil {
		return err
	}
	if err := r.rdb.Publish(ctx, singletonKey(owner, name)+":events", "changed").Err(); err != nil {
		r.logger.Warn().Err(err).Str("singleton", name).Msg("Failed to publish change event")
	}
	return nil
}

// SubscribeSingleton listens for singleton changes, delivering the current
// value first when one exists.
func (r *RedisRemote) SubscribeSingleton(owner, name string, fn func(json.RawMessage)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := r.rdb.Subscribe(ctx, singletonKey(owner, name)+":events")

	load := func() {
		raw, err := r.rdb.Get(ctx, singletonKey(owner, name)).Bytes()
		if err == redis.Nil {
			return
		}
		if err != nil {
			if ctx.Err() == nil {
				r.logger.Warn().Err(err).Str("singleton", name).Msg("Singleton load failed")
			}
			return
		}
		fn(raw)
	}

	go func() {
		load()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				load()
			}
		}
	}()

	return func() {
		cancel()
		pubsub.Close()
	}
}

// Close closes the Redis client.
func (r *RedisRemote) Close() error {
	return r.rdb.Close()
}
