package song

import (
	"fmt"
	"log/slog"
	"sync"
)

// Persister is the durable side of the Store. Implementations serialize
// the whole collection as one blob; partial writes are not a thing.
//
// Following Go best practices: the interface is defined by the consumer.
// The production implementation lives in internal/storage.
type Persister interface {
	SaveHistory(songs []Song) error
}

// Store holds the ordered song history and the single "current" pointer.
//
// Ordering: the most recently created Song is first. That order is the
// canonical history display order and picks the default current entry on
// restore.
//
// Every mutation snapshots the collection to the Persister. Persistence
// failures are logged and swallowed: in-memory state stays authoritative
// for the rest of the session.
type Store struct {
	mu        sync.RWMutex
	songs     []Song
	currentID string

	persist Persister // nil = in-memory only
	logger  *slog.Logger
}

// NewStore creates a Store. persist may be nil for in-memory use (tests);
// logger nil means slog.Default().
func NewStore(persist Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{persist: persist, logger: logger}
}

// Restore replaces the collection wholesale from a persisted snapshot.
// Called once at process start, before any other operation. If the list is
// non-empty the first (most recent) entry becomes current.
func (st *Store) Restore(songs []Song) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.songs = make([]Song, len(songs))
	for i, s := range songs {
		st.songs[i] = s.Clone()
	}
	if len(st.songs) > 0 {
		st.currentID = st.songs[0].ID
	} else {
		st.currentID = ""
	}
}

// InsertFront adds a new Song as the most recent entry. A duplicate ID is
// a programming error, not a recoverable condition, and panics.
func (st *Store) InsertFront(s Song) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.songs {
		if st.songs[i].ID == s.ID {
			panic(fmt.Sprintf("song: duplicate id %q inserted into store", s.ID))
		}
	}
	st.songs = append([]Song{s.Clone()}, st.songs...)
	st.persistLocked()
}

// Replace locates the Song with the given id and installs the value
// returned by fn in its place. If no Song carries that id the call is a
// silent no-op and Replace reports false. This is the guard that makes
// late enrichment results harmless after a history clear.
func (st *Store) Replace(id string, fn func(Song) Song) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.songs {
		if st.songs[i].ID != id {
			continue
		}
		next := make([]Song, len(st.songs))
		copy(next, st.songs)
		next[i] = fn(st.songs[i].Clone()).Clone()
		st.songs = next
		st.persistLocked()
		return true
	}
	return false
}

// SetCurrent moves the viewed pointer. An id not present in the store
// resets the pointer to none; it never silently points at a nonexistent
// Song.
func (st *Store) SetCurrent(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.currentID = ""
	for i := range st.songs {
		if st.songs[i].ID == id {
			st.currentID = id
			return
		}
	}
}

// ClearAll empties the collection and resets the current pointer. The
// caller is responsible for having obtained user confirmation.
func (st *Store) ClearAll() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.songs = nil
	st.currentID = ""
	st.persistLocked()
}

// Get returns a copy of the Song with the given id.
func (st *Store) Get(id string) (Song, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for i := range st.songs {
		if st.songs[i].ID == id {
			return st.songs[i].Clone(), true
		}
	}
	return Song{}, false
}

// Current returns a copy of the currently viewed Song, if any.
func (st *Store) Current() (Song, bool) {
	st.mu.RLock()
	id := st.currentID
	st.mu.RUnlock()
	if id == "" {
		return Song{}, false
	}
	return st.Get(id)
}

// CurrentID returns the id of the currently viewed Song, or "".
func (st *Store) CurrentID() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.currentID
}

// List returns a copy of the history, most recent first.
func (st *Store) List() []Song {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]Song, len(st.songs))
	for i, s := range st.songs {
		out[i] = s.Clone()
	}
	return out
}

// Len returns the number of songs in the history.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.songs)
}

// persistLocked snapshots the collection. Must be called with mu held.
// Failure to persist never propagates: the durable copy is best-effort,
// memory is the source of truth.
func (st *Store) persistLocked() {
	if st.persist == nil {
		return
	}
	snapshot := make([]Song, len(st.songs))
	for i, s := range st.songs {
		snapshot[i] = s.Clone()
	}
	if err := st.persist.SaveHistory(snapshot); err != nil {
		st.logger.Warn("failed to persist song history", "error", err, "songs", len(snapshot))
	}
}
