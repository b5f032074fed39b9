// Package storage persists the song history to a local embedded BadgerDB
// database. The entire collection is stored as one opaque JSON blob under
// a fixed key — no partial reads or writes, no migration logic. A blob
// that fails to deserialize is treated as "no prior history".
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/thomasrocks006-cmyk/Suno/internal/song"
)

// historyKey is the fixed slot the serialized history lives under.
const historyKey = "suno_architect_history"

// Config holds options for opening the history database.
type Config struct {
	// Path is the directory for the database files. Created if missing.
	// Ignored when InMemory is true.
	Path string

	// InMemory disables disk persistence. Useful for testing.
	InMemory bool

	// Logger receives storage diagnostics. nil = slog.Default().
	Logger *slog.Logger
}

// History is the durable local key-value slot for the song collection.
// It implements song.Persister.
type History struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens (or creates) the history database.
func Open(cfg Config) (*History, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("storage: path is required unless in-memory")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(&badgerLogger{logger: logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	return &History{db: db, logger: logger}, nil
}

// SaveHistory serializes the full collection into the fixed slot.
func (h *History) SaveHistory(songs []song.Song) error {
	blob, err := json.Marshal(songs)
	if err != nil {
		return fmt.Errorf("encoding song history: %w", err)
	}
	err = h.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(historyKey), blob)
	})
	if err != nil {
		return fmt.Errorf("writing song history: %w", err)
	}
	return nil
}

// Load reads the persisted collection. Any failure — missing key, corrupt
// blob — yields an empty history rather than an error; losing the durable
// copy must never block a new session.
func (h *History) Load() []song.Song {
	var blob []byte
	err := h.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(historyKey))
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		h.logger.Warn("failed to read song history, starting empty", "error", err)
		return nil
	}

	var songs []song.Song
	if err := json.Unmarshal(blob, &songs); err != nil {
		h.logger.Warn("failed to decode song history, starting empty", "error", err)
		return nil
	}
	return songs
}

// RunGC periodically compacts the value log until ctx is done. BadgerDB
// never reclaims value-log space on its own; someone has to call
// RunValueLogGC. Each tick keeps collecting until Badger reports there is
// nothing left to rewrite.
func (h *History) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				if err := h.db.RunValueLogGC(0.5); err != nil {
					break
				}
			}
		}
	}
}

// Close releases the underlying database.
func (h *History) Close() error {
	return h.db.Close()
}

// badgerLogger adapts slog to BadgerDB's Logger interface. Badger is
// chatty at info level, so its info/debug output is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
