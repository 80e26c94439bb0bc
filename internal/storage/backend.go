package storage

import (
	"context"
	"errors"
	"fmt"

	"tg-antijudi/internal/config"
)

// Collection names one persisted document.
type Collection string

const (
	ActiveGroupsCollection  Collection = "active_groups"
	ViolationsCollection    Collection = "violations"
	CleanMessagesCollection Collection = "clean_messages"
	MutesCollection         Collection = "mutes"
	BansCollection          Collection = "bans"
	VerifiedUsersCollection Collection = "verified_users"
)

// Collections lists every collection the engine persists.
var Collections = []Collection{
	ActiveGroupsCollection,
	ViolationsCollection,
	CleanMessagesCollection,
	MutesCollection,
	BansCollection,
	VerifiedUsersCollection,
}

var (
	// ErrVersionConflict is returned by Commit when a document changed after
	// it was loaded.
	ErrVersionConflict = errors.New("document version conflict")
	// ErrNoChange can be returned from an Update callback to skip the write.
	ErrNoChange = errors.New("no change")
)

// Document is the stored form of a collection. Version 0 means the
// collection has never been written.
type Document struct {
	Data    []byte
	Version int64
}

// Write replaces a collection if its stored version still equals Version.
type Write struct {
	Collection Collection
	Data       []byte
	Version    int64
}

// Backend is a persistent store of collection documents. Commit applies all
// writes or none of them.
type Backend interface {
	Load(ctx context.Context, collection Collection) (Document, error)
	Commit(ctx context.Context, writes []Write) error
	Close() error
}

// Open creates the backend selected by the configuration.
func Open(cfg *config.Config) (Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendFile:
		return NewFileBackend(cfg.Storage.Directory)
	case config.BackendDatabase:
		db, err := OpenDatabase(cfg)
		if err != nil {
			return nil, err
		}
		return NewDatabaseBackend(db)
	case config.BackendRedis:
		return NewRedisBackend(cfg.Storage.Redis)
	case config.BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
