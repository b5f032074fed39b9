// Package enrich schedules background enrichments over stored songs:
// critique, variations, and music rendering. Each enrichment is
// fire-and-forget from the caller's point of view, single-flight per
// song and kind, and merges its result back only if the song still
// exists and the target field is still empty.
package enrich

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/thomasrocks006-cmyk/Suno/internal/song"
	"github.com/thomasrocks006-cmyk/Suno/internal/suno"
)

// Kind identifies an enrichment type for single-flight bookkeeping.
type Kind string

const (
	KindAnalysis   Kind = "analysis"
	KindVariations Kind = "variations"
	KindRender     Kind = "render"
)

// defaultTaskTimeout bounds a single background enrichment. Music renders
// routinely take minutes.
const defaultTaskTimeout = 10 * time.Minute

// Critic produces a full critique of a song snapshot, optionally
// comparing it against a parent version's lyrics.
type Critic interface {
	AnalyzeSong(ctx context.Context, snap song.Snapshot, parentLyrics string) (song.Analysis, error)
}

// Variator produces alternative takes on a song snapshot.
type Variator interface {
	GenerateVariations(ctx context.Context, snap song.Snapshot) ([]song.Variation, error)
}

// Renderer submits a song to the music API and waits for the result.
type Renderer interface {
	StartRender(ctx context.Context, req suno.GenerateRequest) (string, error)
	AwaitRender(ctx context.Context, taskID string) (suno.TaskState, error)
}

// Coordinator launches and tracks background enrichments. Renderer may be
// nil, in which case render requests are rejected.
type Coordinator struct {
	store    *song.Store
	critic   Critic
	variator Variator
	renderer Renderer
	logger   *slog.Logger
	timeout  time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

// New creates a Coordinator.
func New(store *song.Store, critic Critic, variator Variator, renderer Renderer, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:    store,
		critic:   critic,
		variator: variator,
		renderer: renderer,
		logger:   logger,
		timeout:  defaultTaskTimeout,
		inflight: make(map[string]struct{}),
	}
}

// RequestAnalysis schedules a critique for the song. Returns false when
// the song is unknown, already analyzed, or an analysis is in flight.
func (c *Coordinator) RequestAnalysis(id string) bool {
	s, ok := c.store.Get(id)
	if !ok || s.Analysis != nil {
		return false
	}

	parentLyrics := ""
	if parent, ok := song.FindParent(s, c.store); ok {
		parentLyrics = parent.Lyrics
	}
	snap := s.Snapshot()

	return c.launch(KindAnalysis, id, func(ctx context.Context) {
		analysis, err := c.critic.AnalyzeSong(ctx, snap, parentLyrics)
		if err != nil {
			c.logger.Warn("analysis failed", "song_id", id, "error", err)
			return
		}
		c.store.Replace(id, func(s song.Song) song.Song {
			if s.Analysis == nil {
				s.Analysis = &analysis
			}
			return s
		})
	})
}

// RequestVariations schedules variation generation for the song. Returns
// false when the song is unknown, already has variations, or a request is
// in flight.
func (c *Coordinator) RequestVariations(id string) bool {
	s, ok := c.store.Get(id)
	if !ok || len(s.Variations) > 0 {
		return false
	}
	snap := s.Snapshot()

	return c.launch(KindVariations, id, func(ctx context.Context) {
		vars, err := c.variator.GenerateVariations(ctx, snap)
		if err != nil {
			c.logger.Warn("variation generation failed", "song_id", id, "error", err)
			return
		}
		c.store.Replace(id, func(s song.Song) song.Song {
			if len(s.Variations) == 0 {
				s.Variations = vars
			}
			return s
		})
	})
}

// RequestRender schedules a music render for the song. Returns false when
// rendering is not configured, the song is unknown, a render was already
// started, or one is in flight.
func (c *Coordinator) RequestRender(id string) bool {
	if c.renderer == nil {
		return false
	}
	s, ok := c.store.Get(id)
	if !ok || s.RenderTaskID != "" {
		return false
	}
	req := suno.GenerateRequest{
		Prompt:     s.Lyrics,
		Style:      s.StylePrompt,
		Title:      s.Title,
		CustomMode: true,
	}

	return c.launch(KindRender, id, func(ctx context.Context) {
		taskID, err := c.renderer.StartRender(ctx, req)
		if err != nil {
			c.logger.Warn("render submission failed", "song_id", id, "error", err)
			return
		}
		c.store.Replace(id, func(s song.Song) song.Song {
			s.RenderTaskID = taskID
			return s
		})

		state, err := c.renderer.AwaitRender(ctx, taskID)
		if err != nil {
			c.logger.Warn("render polling failed", "song_id", id, "task_id", taskID, "error", err)
			return
		}
		if state.Status != suno.StatusSuccess {
			c.logger.Warn("render did not succeed", "song_id", id, "task_id", taskID,
				"status", state.Status, "message", state.ErrorMessage)
			return
		}

		var audio []string
		var cover string
		for _, track := range state.Tracks {
			if track.AudioURL != "" {
				audio = append(audio, track.AudioURL)
			}
			if cover == "" && track.ImageURL != "" {
				cover = track.ImageURL
			}
		}
		c.store.Replace(id, func(s song.Song) song.Song {
			if len(s.AudioURLs) == 0 {
				s.AudioURLs = audio
				s.RenderedCoverURL = cover
			}
			return s
		})
	})
}

// launch runs fn on its own goroutine unless the same kind+id is already
// in flight. The goroutine gets a fresh context so it outlives the HTTP
// request that triggered it.
func (c *Coordinator) launch(kind Kind, id string, fn func(ctx context.Context)) bool {
	key := string(kind) + ":" + id

	c.mu.Lock()
	if _, busy := c.inflight[key]; busy {
		c.mu.Unlock()
		return false
	}
	c.inflight[key] = struct{}{}
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.inflight, key)
			c.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		fn(ctx)
	}()
	return true
}

// InFlight reports whether an enrichment of the given kind is currently
// running for the song.
func (c *Coordinator) InFlight(kind Kind, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, busy := c.inflight[string(kind)+":"+id]
	return busy
}

// Wait blocks until all in-flight enrichments finish or the context is
// cancelled. Used during shutdown.
func (c *Coordinator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
