package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrocks006-cmyk/Suno/internal/log"
	"github.com/thomasrocks006-cmyk/Suno/internal/song"
)

func openTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := Open(Config{InMemory: true, Logger: log.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestHistory_RoundTrip(t *testing.T) {
	h := openTestHistory(t)

	songs := []song.Song{
		{
			ID:          "b2",
			Title:       "Neon Rain (V2)",
			ParentID:    "a1",
			Lyrics:      "[Chorus]\nnew lyrics",
			StylePrompt: "synthwave",
			Analysis:    &song.Analysis{OverallScore: 81, Summary: "solid"},
		},
		{ID: "a1", Title: "Neon Rain", Lyrics: "[Chorus]\nold lyrics"},
	}
	require.NoError(t, h.SaveHistory(songs))

	got := h.Load()
	require.Len(t, got, 2)
	assert.Equal(t, "b2", got[0].ID)
	assert.Equal(t, "a1", got[0].ParentID)
	require.NotNil(t, got[0].Analysis)
	assert.InDelta(t, 81, got[0].Analysis.OverallScore, 0.001)
}

func TestHistory_EmptyDatabase(t *testing.T) {
	h := openTestHistory(t)
	assert.Empty(t, h.Load())
}

func TestHistory_SaveEmptyOverwrites(t *testing.T) {
	h := openTestHistory(t)

	require.NoError(t, h.SaveHistory([]song.Song{{ID: "a1", Title: "Gone Soon"}}))
	require.NoError(t, h.SaveHistory(nil))

	assert.Empty(t, h.Load())
}

func TestHistory_CorruptBlobTreatedAsEmpty(t *testing.T) {
	h := openTestHistory(t)

	err := h.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(historyKey), []byte("{not json["))
	})
	require.NoError(t, err)

	assert.Empty(t, h.Load())
}

func TestHistory_BlobIsPlainJSON(t *testing.T) {
	h := openTestHistory(t)
	require.NoError(t, h.SaveHistory([]song.Song{{ID: "a1", Title: "Neon Rain"}}))

	var blob []byte
	err := h.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(historyKey))
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(blob, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Neon Rain", decoded[0]["title"])
}

func TestHistory_RunGCStopsOnCancel(t *testing.T) {
	h := openTestHistory(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.RunGC(ctx, time.Millisecond)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunGC did not stop after cancellation")
	}
}
