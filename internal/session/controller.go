// Package session coordinates the user-facing workflow: submitting a
// creative brief, browsing history, deriving versions, and kicking off
// background enrichments. One generation or rewrite runs at a time; the
// busy flag rejects overlapping requests instead of queueing them.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/thomasrocks006-cmyk/Suno/internal/composer"
	"github.com/thomasrocks006-cmyk/Suno/internal/enrich"
	"github.com/thomasrocks006-cmyk/Suno/internal/song"
)

var (
	// ErrBusy means a generation or rewrite is already in progress.
	ErrBusy = errors.New("session: a generation is already in progress")

	// ErrNotFound means the referenced song is not in the history.
	ErrNotFound = errors.New("session: song not found")

	// ErrAnalysisRequired means a rewrite was requested before the song
	// was analyzed.
	ErrAnalysisRequired = errors.New("session: analysis required before rewriting")
)

// Generator produces a new song from a creative brief.
type Generator interface {
	GenerateSong(ctx context.Context, in song.Inputs) (song.Song, error)
}

// Rewriter produces improved lyrics from an accepted critique.
type Rewriter interface {
	Rewrite(ctx context.Context, lyrics string, improvements []song.LineImprovement) (composer.RewriteResult, error)
}

// AttributeInferrer suggests brief values from artist/song references.
type AttributeInferrer interface {
	InferAttributes(ctx context.Context, artist, songRef string) (song.Inferred, error)
}

// Enricher schedules background enrichments.
type Enricher interface {
	RequestAnalysis(id string) bool
	RequestVariations(id string) bool
	RequestRender(id string) bool
	InFlight(kind enrich.Kind, id string) bool
}

// Controller is the session-level orchestrator.
type Controller struct {
	store    *song.Store
	gen      Generator
	rewriter Rewriter
	inferrer AttributeInferrer
	enricher Enricher
	logger   *slog.Logger

	mu   sync.Mutex
	busy bool
}

// New creates a Controller.
func New(store *song.Store, gen Generator, rewriter Rewriter, inferrer AttributeInferrer, enricher Enricher, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:    store,
		gen:      gen,
		rewriter: rewriter,
		inferrer: inferrer,
		enricher: enricher,
		logger:   logger,
	}
}

// Busy reports whether a generation or rewrite is in progress.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *Controller) tryAcquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	return true
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// Submit generates a new song from the brief, stores it at the front of
// the history, and makes it current.
func (c *Controller) Submit(ctx context.Context, in song.Inputs) (song.Song, error) {
	if !c.tryAcquire() {
		return song.Song{}, ErrBusy
	}
	defer c.release()

	s, err := c.gen.GenerateSong(ctx, in)
	if err != nil {
		return song.Song{}, fmt.Errorf("submitting brief: %w", err)
	}
	c.store.InsertFront(s)
	c.store.SetCurrent(s.ID)
	c.logger.Info("song generated", "song_id", s.ID, "title", s.Title)

	// Critique and variations kick off automatically; both are best-effort
	// and land in the background.
	c.enricher.RequestAnalysis(s.ID)
	c.enricher.RequestVariations(s.ID)
	return s, nil
}

// Select makes an existing song the current one.
func (c *Controller) Select(id string) (song.Song, error) {
	s, ok := c.store.Get(id)
	if !ok {
		return song.Song{}, ErrNotFound
	}
	c.store.SetCurrent(id)
	return s, nil
}

// List returns the full history, most recent first.
func (c *Controller) List() []song.Song {
	return c.store.List()
}

// Get returns one song by id.
func (c *Controller) Get(id string) (song.Song, error) {
	s, ok := c.store.Get(id)
	if !ok {
		return song.Song{}, ErrNotFound
	}
	return s, nil
}

// Current returns the current song, if any.
func (c *Controller) Current() (song.Song, bool) {
	return c.store.Current()
}

// CreateVersion derives a new version of the base song with the supplied
// lyrics and rationale, typically lifted from a chosen variation. The new
// version becomes current. flags override the generation modes recorded
// on the version; nil carries the base's flags forward.
func (c *Controller) CreateVersion(id, lyrics, rationale string, flags *song.Flags) (song.Song, error) {
	base, ok := c.store.Get(id)
	if !ok {
		return song.Song{}, ErrNotFound
	}
	if strings.TrimSpace(lyrics) == "" {
		return song.Song{}, errors.New("session: version lyrics must not be empty")
	}
	derived := song.Derive(base, lyrics, rationale, versionFlags(base, flags))
	c.store.InsertFront(derived)
	c.store.SetCurrent(derived.ID)
	c.logger.Info("version created", "song_id", derived.ID, "parent_id", base.ID, "title", derived.Title)

	// A fresh version gets a fresh critique, with the parent's lyrics as
	// the comparison baseline.
	c.enricher.RequestAnalysis(derived.ID)
	return derived, nil
}

// RewriteVersion asks the collaborator to apply the song's accepted
// critique and derives a new version from the result. Requires a prior
// analysis; its line improvements, including user edits, drive the
// rewrite. flags follow the same override rule as CreateVersion.
func (c *Controller) RewriteVersion(ctx context.Context, id string, flags *song.Flags) (song.Song, error) {
	base, ok := c.store.Get(id)
	if !ok {
		return song.Song{}, ErrNotFound
	}
	if base.Analysis == nil {
		return song.Song{}, ErrAnalysisRequired
	}
	if !c.tryAcquire() {
		return song.Song{}, ErrBusy
	}
	defer c.release()

	res, err := c.rewriter.Rewrite(ctx, base.Lyrics, base.Analysis.LineImprovements)
	if err != nil {
		return song.Song{}, fmt.Errorf("rewriting song: %w", err)
	}
	derived := song.Derive(base, res.Lyrics, res.TechnicalExplanation, versionFlags(base, flags))
	c.store.InsertFront(derived)
	c.store.SetCurrent(derived.ID)
	c.logger.Info("rewrite version created", "song_id", derived.ID, "parent_id", base.ID)
	c.enricher.RequestAnalysis(derived.ID)
	return derived, nil
}

// versionFlags resolves the flags for a derived version: an explicit
// override wins, otherwise the base's flags carry forward.
func versionFlags(base song.Song, override *song.Flags) song.Flags {
	if override != nil {
		return *override
	}
	return base.Flags
}

// ApplyLineImprovement replaces one suggested line improvement with the
// user's own wording and tags it as user-sourced.
func (c *Controller) ApplyLineImprovement(id string, index int, improved string) (song.Song, error) {
	var applyErr error
	ok := c.store.Replace(id, func(s song.Song) song.Song {
		if s.Analysis == nil {
			applyErr = ErrAnalysisRequired
			return s
		}
		if index < 0 || index >= len(s.Analysis.LineImprovements) {
			applyErr = fmt.Errorf("session: improvement index %d out of range", index)
			return s
		}
		s.Analysis.LineImprovements[index].Improved = improved
		s.Analysis.LineImprovements[index].Source = song.SourceUser
		return s
	})
	if !ok {
		return song.Song{}, ErrNotFound
	}
	if applyErr != nil {
		return song.Song{}, applyErr
	}
	s, _ := c.store.Get(id)
	return s, nil
}

// ClearHistory deletes every song and resets the current pointer.
func (c *Controller) ClearHistory() {
	c.store.ClearAll()
	c.logger.Info("history cleared")
}

// Infer suggests brief values from an artist reference and optional song
// reference.
func (c *Controller) Infer(ctx context.Context, artist, songRef string) (song.Inferred, error) {
	return c.inferrer.InferAttributes(ctx, artist, songRef)
}

// RequestAnalysis schedules a critique. The bool reports whether a new
// enrichment was launched; false means one already ran or is running.
func (c *Controller) RequestAnalysis(id string) (bool, error) {
	if _, ok := c.store.Get(id); !ok {
		return false, ErrNotFound
	}
	return c.enricher.RequestAnalysis(id), nil
}

// RequestVariations schedules variation generation.
func (c *Controller) RequestVariations(id string) (bool, error) {
	if _, ok := c.store.Get(id); !ok {
		return false, ErrNotFound
	}
	return c.enricher.RequestVariations(id), nil
}

// RequestRender schedules a music render.
func (c *Controller) RequestRender(id string) (bool, error) {
	if _, ok := c.store.Get(id); !ok {
		return false, ErrNotFound
	}
	return c.enricher.RequestRender(id), nil
}
