package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Lenny-the-burger/hlg/pkg/adapters/badger"
	"github.com/Lenny-the-burger/hlg/pkg/adapters/file"
	"github.com/Lenny-the-burger/hlg/pkg/adapters/redis"
	"github.com/Lenny-the-burger/hlg/pkg/persistence/middleware"
	"github.com/Lenny-the-burger/hlg/pkg/ports"
)

// Store kinds accepted by --store.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreBadger = "badger"
)

// openedStore bundles a store with its optional locker and closer.
type openedStore struct {
	ports.ConversationStore
	locker ports.DistributedLocker
	close  func() error
}

func (s openedStore) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// openStore builds the conversation store selected by opts and wraps it
// with the configured redaction and encryption. Only the redis store comes
// with a distributed locker.
func openStore(opts StoreOptions, logger *slog.Logger) (openedStore, error) {
	mws, err := storeMiddleware(opts)
	if err != nil {
		return openedStore{}, err
	}
	store, err := openBackend(opts, logger)
	if err != nil {
		return openedStore{}, err
	}
	store.ConversationStore = middleware.Chain(store.ConversationStore, mws...)
	return store, nil
}

func storeMiddleware(opts StoreOptions) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(opts.Redact) > 0 {
		mw, err := middleware.NewRedactionMiddleware(opts.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if opts.Key != "" {
		cfg := middleware.EncryptionConfig{}
		var err error
		if cfg.ActiveKey, err = middleware.ParseKey(opts.Key); err != nil {
			return nil, fmt.Errorf("store key: %w", err)
		}
		for i, k := range opts.FallbackKeys {
			fk, err := middleware.ParseKey(k)
			if err != nil {
				return nil, fmt.Errorf("fallback store key %d: %w", i, err)
			}
			cfg.FallbackKeys = append(cfg.FallbackKeys, fk)
		}
		mw, err := middleware.NewEncryptionMiddleware(cfg)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

func openBackend(opts StoreOptions, logger *slog.Logger) (openedStore, error) {
	switch opts.Kind {
	case "", StoreFile:
		return openedStore{ConversationStore: file.NewStore(opts.Dir)}, nil

	case StoreRedis:
		addr := opts.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		var redisOpts []redis.Option
		if opts.TTL > 0 {
			redisOpts = append(redisOpts, redis.WithTTL(opts.TTL))
		}
		store := redis.New(addr, opts.RedisPassword, opts.RedisDB, redisOpts...)
		return openedStore{
			ConversationStore: store,
			locker:            redis.NewLocker(store.Client(), redis.DefaultPrefix),
			close:             store.Close,
		}, nil

	case StoreBadger:
		dir := opts.Dir
		if dir == "" {
			dir = filepath.Join(".hlg", "badger")
		}
		store, err := badger.Open(badger.Options{Dir: dir, Logger: logger})
		if err != nil {
			return openedStore{}, err
		}
		return openedStore{ConversationStore: store, close: store.Close}, nil
	}
	return openedStore{}, fmt.Errorf("unknown store %q (want %s, %s or %s)", opts.Kind, StoreFile, StoreRedis, StoreBadger)
}

// ListSessions prints the stored conversation ids.
func ListSessions(ctx context.Context, opts RunOptions) error {
	store, err := openStore(opts.Store, createLogger(opts.Debug))
	if err != nil {
		return err
	}
	defer store.Close()

	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing conversations: %w", err)
	}
	out := opts.stdout()
	if len(ids) == 0 {
		fmt.Fprintln(out, "No stored conversations found.")
		return nil
	}
	fmt.Fprintln(out, "Stored Conversations:")
	for _, id := range ids {
		fmt.Fprintln(out, "- "+id)
	}
	return nil
}

// InspectSession prints one snapshot as indented JSON.
func InspectSession(ctx context.Context, opts RunOptions, id string) error {
	store, err := openStore(opts.Store, createLogger(opts.Debug))
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("error loading conversation '%s': %w", id, err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling snapshot: %w", err)
	}
	fmt.Fprintln(opts.stdout(), string(data))
	return nil
}

// RemoveSessions deletes every id, reporting each outcome. It fails if any
// removal failed.
func RemoveSessions(ctx context.Context, opts RunOptions, ids []string) error {
	store, err := openStore(opts.Store, createLogger(opts.Debug))
	if err != nil {
		return err
	}
	defer store.Close()

	out := opts.stdout()
	failed := 0
	for _, id := range ids {
		if err := store.Delete(ctx, id); err != nil {
			fmt.Fprintf(out, "Error removing '%s': %v\n", id, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "Removed conversation '%s'\n", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d removals failed", failed, len(ids))
	}
	return nil
}
