package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// ErrClosed is returned by Ping after Close
var ErrClosed = errors.New("kvstore: closed")

// Options holds Badger settings
type Options struct {
	Dir      string
	InMemory bool
}

// Store wraps a Badger database
type Store struct {
	db *badger.DB
}

// Open opens the Badger database at opts.Dir, or an in-memory one
func Open(opts Options) (*Store, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true).WithMemTableSize(16 << 20)
	} else {
		absPath, err := filepath.Abs(opts.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		bopts = badger.DefaultOptions(absPath)
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	slog.Info("badger opened", slog.String("dir", bopts.Dir), slog.Bool("in_memory", opts.InMemory))
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database is still open
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil || s.db.IsClosed() {
		return ErrClosed
	}
	return ctx.Err()
}

// RunGC runs one value log garbage collection pass
func (s *Store) RunGC() error {
	return s.db.RunValueLogGC(0.5)
}

// StartGCRoutine runs GC every interval until ctx is done
func (s *Store) StartGCRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.RunGC(); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
					slog.Error("badger gc failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
	slog.Info("badger gc routine started", slog.Duration("interval", interval))
}

func putJSON(txn *badger.Txn, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return txn.Set([]byte(key), data)
}

// getJSON decodes key into value. Returns false when the key is absent.
func getJSON(txn *badger.Txn, key string, value interface{}) (bool, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, value)
	})
	return err == nil, err
}

// scanPrefix returns every key under prefix
func scanPrefix(txn *badger.Txn, prefix string) []string {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys []string
	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		keys = append(keys, string(it.Item().KeyCopy(nil)))
	}
	return keys
}

// lastSegment returns what follows the final '/' of key
func lastSegment(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '/' {
			return key[i+1:]
		}
	}
	return key
}
