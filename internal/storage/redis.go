package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"tg-antijudi/internal/config"
)

// RedisBackend keeps each collection in a hash with data and version
// fields. Commit uses WATCH/MULTI so writers in other processes are
// detected.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend connects and pings the server.
func NewRedisBackend(cfg config.RedisConfig) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisBackendWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisBackendWithClient uses an existing client.
func NewRedisBackendWithClient(client *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

func (r *RedisBackend) key(collection Collection) string {
	return r.prefix + "collection:" + string(collection)
}

func (r *RedisBackend) Load(ctx context.Context, collection Collection) (Document, error) {
	return readDocument(ctx, r.client, r.key(collection))
}

type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func readDocument(ctx context.Context, c hashReader, key string) (Document, error) {
	fields, err := c.HGetAll(ctx, key).Result()
	if err != nil {
		return Document{}, err
	}
	if len(fields) == 0 {
		return Document{}, nil
	}
	version, err := strconv.ParseInt(fields["version"], 10, 64)
	if err != nil {
		return Document{}, fmt.Errorf("corrupt version in %s: %w", key, err)
	}
	return Document{Data: []byte(fields["data"]), Version: version}, nil
}

func (r *RedisBackend) Commit(ctx context.Context, writes []Write) error {
	keys := make([]string, len(writes))
	for i, w := range writes {
		keys[i] = r.key(w.Collection)
	}

	txf := func(tx *redis.Tx) error {
		for i, w := range writes {
			doc, err := readDocument(ctx, tx, keys[i])
			if err != nil {
				return err
			}
			if doc.Version != w.Version {
				return ErrVersionConflict
			}
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, w := range writes {
				pipe.HSet(ctx, keys[i], "data", w.Data, "version", w.Version+1)
			}
			return nil
		})
		return err
	}

	err := r.client.Watch(ctx, txf, keys...)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	return err
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
