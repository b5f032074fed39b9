package enrich

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/thomasrocks006-cmyk/Suno/internal/log"
	"github.com/thomasrocks006-cmyk/Suno/internal/song"
	"github.com/thomasrocks006-cmyk/Suno/internal/suno"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCritic struct {
	mu           sync.Mutex
	calls        int
	snaps        []song.Snapshot
	parentLyrics []string
	analysis     song.Analysis
	err          error
	block        chan struct{} // when non-nil, AnalyzeSong waits for close
	started      chan struct{} // when non-nil, closed on first call
}

func (f *fakeCritic) AnalyzeSong(_ context.Context, snap song.Snapshot, parentLyrics string) (song.Analysis, error) {
	f.mu.Lock()
	f.calls++
	f.snaps = append(f.snaps, snap)
	f.parentLyrics = append(f.parentLyrics, parentLyrics)
	started := f.started
	f.started = nil
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if f.block != nil {
		<-f.block
	}
	return f.analysis, f.err
}

func (f *fakeCritic) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeVariator struct {
	mu    sync.Mutex
	calls int
	vars  []song.Variation
	err   error
}

func (f *fakeVariator) GenerateVariations(context.Context, song.Snapshot) ([]song.Variation, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.vars, f.err
}

type fakeRenderer struct {
	taskID   string
	startErr error
	state    suno.TaskState
	awaitErr error
}

func (f *fakeRenderer) StartRender(context.Context, suno.GenerateRequest) (string, error) {
	return f.taskID, f.startErr
}

func (f *fakeRenderer) AwaitRender(context.Context, string) (suno.TaskState, error) {
	return f.state, f.awaitErr
}

func waitIdle(t *testing.T, c *Coordinator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
}

func seededStore(t *testing.T, songs ...song.Song) *song.Store {
	t.Helper()
	st := song.NewStore(nil, log.NewNop())
	for _, s := range songs {
		st.InsertFront(s)
	}
	return st
}

func TestRequestAnalysis(t *testing.T) {
	base := song.Song{ID: "a1", Title: "Neon Rain", Lyrics: "[Verse]\nx"}

	t.Run("merges critique into stored song", func(t *testing.T) {
		st := seededStore(t, base)
		critic := &fakeCritic{analysis: song.Analysis{OverallScore: 82, Summary: "tight"}}
		c := New(st, critic, nil, nil, log.NewNop())

		require.True(t, c.RequestAnalysis("a1"))
		waitIdle(t, c)

		got, ok := st.Get("a1")
		require.True(t, ok)
		require.NotNil(t, got.Analysis)
		assert.InDelta(t, 82, got.Analysis.OverallScore, 0.001)
	})

	t.Run("unknown song rejected", func(t *testing.T) {
		c := New(seededStore(t), &fakeCritic{}, nil, nil, log.NewNop())
		assert.False(t, c.RequestAnalysis("ghost"))
	})

	t.Run("already analyzed rejected", func(t *testing.T) {
		analyzed := base
		analyzed.Analysis = &song.Analysis{OverallScore: 50}
		st := seededStore(t, analyzed)
		critic := &fakeCritic{}
		c := New(st, critic, nil, nil, log.NewNop())

		assert.False(t, c.RequestAnalysis("a1"))
		assert.Equal(t, 0, critic.callCount())
	})

	t.Run("single flight per song", func(t *testing.T) {
		st := seededStore(t, base)
		critic := &fakeCritic{
			analysis: song.Analysis{OverallScore: 82},
			block:    make(chan struct{}),
			started:  make(chan struct{}),
		}
		c := New(st, critic, nil, nil, log.NewNop())

		started := critic.started
		require.True(t, c.RequestAnalysis("a1"))
		<-started

		assert.True(t, c.InFlight(KindAnalysis, "a1"))
		assert.False(t, c.RequestAnalysis("a1"), "duplicate request while in flight")

		close(critic.block)
		waitIdle(t, c)

		assert.Equal(t, 1, critic.callCount())
		assert.False(t, c.InFlight(KindAnalysis, "a1"))
	})

	t.Run("result for deleted song is discarded", func(t *testing.T) {
		st := seededStore(t, base)
		critic := &fakeCritic{
			analysis: song.Analysis{OverallScore: 82},
			block:    make(chan struct{}),
			started:  make(chan struct{}),
		}
		c := New(st, critic, nil, nil, log.NewNop())

		started := critic.started
		require.True(t, c.RequestAnalysis("a1"))
		<-started

		st.ClearAll()
		close(critic.block)
		waitIdle(t, c)

		assert.Equal(t, 0, st.Len(), "completed enrichment must not resurrect the song")
	})

	t.Run("collaborator failure leaves song untouched", func(t *testing.T) {
		st := seededStore(t, base)
		critic := &fakeCritic{err: assert.AnError}
		c := New(st, critic, nil, nil, log.NewNop())

		require.True(t, c.RequestAnalysis("a1"))
		waitIdle(t, c)

		got, ok := st.Get("a1")
		require.True(t, ok)
		assert.Nil(t, got.Analysis)
	})

	t.Run("critic sees the snapshot, not later edits", func(t *testing.T) {
		st := seededStore(t, base)
		critic := &fakeCritic{
			analysis: song.Analysis{OverallScore: 82},
			block:    make(chan struct{}),
			started:  make(chan struct{}),
		}
		c := New(st, critic, nil, nil, log.NewNop())

		started := critic.started
		require.True(t, c.RequestAnalysis("a1"))
		<-started

		st.Replace("a1", func(s song.Song) song.Song {
			s.Lyrics = "[Verse]\nedited while in flight"
			return s
		})

		close(critic.block)
		waitIdle(t, c)

		require.Len(t, critic.snaps, 1)
		assert.Equal(t, "a1", critic.snaps[0].ID)
		assert.Equal(t, "[Verse]\nx", critic.snaps[0].Lyrics,
			"critique runs against the launch-time lyrics")

		got, ok := st.Get("a1")
		require.True(t, ok)
		require.NotNil(t, got.Analysis, "result still merges into the song it was launched for")
		assert.Equal(t, "[Verse]\nedited while in flight", got.Lyrics)
	})

	t.Run("derived song gets parent lyrics for comparison", func(t *testing.T) {
		parent := song.Song{ID: "p1", Title: "Neon Rain", Lyrics: "original draft"}
		child := song.Song{ID: "c1", ParentID: "p1", Title: "Neon Rain (V2)", Lyrics: "revised draft"}
		st := seededStore(t, parent, child)
		critic := &fakeCritic{analysis: song.Analysis{OverallScore: 82}}
		c := New(st, critic, nil, nil, log.NewNop())

		require.True(t, c.RequestAnalysis("c1"))
		waitIdle(t, c)

		require.Len(t, critic.parentLyrics, 1)
		assert.Equal(t, "original draft", critic.parentLyrics[0])
	})
}

func TestRequestVariations(t *testing.T) {
	base := song.Song{ID: "a1", Title: "Neon Rain", Lyrics: "[Verse]\nx"}

	t.Run("merges variations", func(t *testing.T) {
		st := seededStore(t, base)
		variator := &fakeVariator{vars: []song.Variation{
			{ID: "v1", Type: "More Rhythmic", Lyrics: "l1"},
			{ID: "v2", Type: "Darker Tone", Lyrics: "l2"},
		}}
		c := New(st, nil, variator, nil, log.NewNop())

		require.True(t, c.RequestVariations("a1"))
		waitIdle(t, c)

		got, _ := st.Get("a1")
		assert.Len(t, got.Variations, 2)
	})

	t.Run("existing variations rejected", func(t *testing.T) {
		varied := base
		varied.Variations = []song.Variation{{ID: "v1"}}
		st := seededStore(t, varied)
		variator := &fakeVariator{}
		c := New(st, nil, variator, nil, log.NewNop())

		assert.False(t, c.RequestVariations("a1"))
	})
}

func TestRequestRender(t *testing.T) {
	base := song.Song{ID: "a1", Title: "Neon Rain", StylePrompt: "synthwave", Lyrics: "[Verse]\nx"}

	t.Run("successful render attaches audio", func(t *testing.T) {
		st := seededStore(t, base)
		renderer := &fakeRenderer{
			taskID: "task-9",
			state: suno.TaskState{
				TaskID: "task-9",
				Status: suno.StatusSuccess,
				Tracks: []suno.Track{
					{ID: "c1", AudioURL: "https://cdn/1.mp3", ImageURL: "https://cdn/cover.jpg"},
					{ID: "c2", AudioURL: "https://cdn/2.mp3"},
				},
			},
		}
		c := New(st, nil, nil, renderer, log.NewNop())

		require.True(t, c.RequestRender("a1"))
		waitIdle(t, c)

		got, _ := st.Get("a1")
		assert.Equal(t, "task-9", got.RenderTaskID)
		assert.Equal(t, []string{"https://cdn/1.mp3", "https://cdn/2.mp3"}, got.AudioURLs)
		assert.Equal(t, "https://cdn/cover.jpg", got.RenderedCoverURL)
	})

	t.Run("failed render keeps task id, no audio", func(t *testing.T) {
		st := seededStore(t, base)
		renderer := &fakeRenderer{
			taskID: "task-9",
			state:  suno.TaskState{TaskID: "task-9", Status: suno.StatusFailed, ErrorMessage: "content policy"},
		}
		c := New(st, nil, nil, renderer, log.NewNop())

		require.True(t, c.RequestRender("a1"))
		waitIdle(t, c)

		got, _ := st.Get("a1")
		assert.Equal(t, "task-9", got.RenderTaskID)
		assert.Empty(t, got.AudioURLs)
	})

	t.Run("render already started rejected", func(t *testing.T) {
		rendered := base
		rendered.RenderTaskID = "task-1"
		st := seededStore(t, rendered)
		c := New(st, nil, nil, &fakeRenderer{}, log.NewNop())

		assert.False(t, c.RequestRender("a1"))
	})

	t.Run("no renderer configured", func(t *testing.T) {
		st := seededStore(t, base)
		c := New(st, nil, nil, nil, log.NewNop())
		assert.False(t, c.RequestRender("a1"))
	})
}

func TestWait_Cancelled(t *testing.T) {
	st := seededStore(t, song.Song{ID: "a1", Title: "T", Lyrics: "l"})
	critic := &fakeCritic{
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	c := New(st, critic, nil, nil, log.NewNop())

	started := critic.started
	require.True(t, c.RequestAnalysis("a1"))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.Wait(ctx))

	close(critic.block)
	waitIdle(t, c)
}
