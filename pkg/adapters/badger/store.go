// Package badger provides an embedded, on-disk conversation store backed by
// BadgerDB. Snapshots are msgpack encoded under a key prefix.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lenny-the-burger/hlg/pkg/domain"
	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

var keyPrefix = []byte("conversation/")

// Options configures the store.
type Options struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool

	// Logger receives badger warnings and errors. Nil discards them.
	Logger *slog.Logger
}

// Store implements ports.ConversationStore using BadgerDB.
type Store struct {
	db *badgerdb.DB
}

// Open opens (or creates) the database.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, fmt.Errorf("badger store: directory is required for on-disk mode: %w", domain.ErrNullPointer)
	}
	dbOpts := badgerdb.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(slogAdapter{opts.Logger})

	db, err := badgerdb.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", opts.Dir, err)
	}
	return &Store{db: db}, nil
}

func key(id string) []byte {
	return append(append([]byte(nil), keyPrefix...), id...)
}

// Save persists the snapshot.
func (s *Store) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key(id), data)
	})
}

// Load retrieves the snapshot for id.
func (s *Store) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	var data []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, domain.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", id, err)
	}

	var snap domain.Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot %s: %w", id, err)
	}
	return &snap, nil
}

// Delete removes the snapshot. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(key(id))
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil
	}
	return err
}

// List returns stored conversation IDs in key order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := s.db.View(func(txn *badgerdb.Txn) error {
		iterOpts := badgerdb.DefaultIteratorOptions
		iterOpts.PrefetchValues = false
		iterOpts.Prefix = keyPrefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(keyPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return ids, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// slogAdapter forwards badger warnings and errors; info and debug are dropped.
type slogAdapter struct {
	log *slog.Logger
}

func (a slogAdapter) Errorf(f string, v ...any) {
	if a.log != nil {
		a.log.Error(fmt.Sprintf(f, v...), "component", "badger")
	}
}

func (a slogAdapter) Warningf(f string, v ...any) {
	if a.log != nil {
		a.log.Warn(fmt.Sprintf(f, v...), "component", "badger")
	}
}

func (slogAdapter) Infof(string, ...any)  {}
func (slogAdapter) Debugf(string, ...any) {}
