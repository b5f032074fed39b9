package suno

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrocks006-cmyk/Suno/internal/log"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		APIKey:       "test-key",
		BaseURL:      srv.URL,
		PollInterval: time.Millisecond,
		Logger:       log.NewNop(),
	})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestStartRender(t *testing.T) {
	t.Run("submits payload and returns task id", func(t *testing.T) {
		var gotAuth string
		var gotReq GenerateRequest
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/generate", r.URL.Path)
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"code": 200, "msg": "success",
				"data": map[string]any{"taskId": "task-123"},
			})
		}))

		id, err := c.StartRender(context.Background(), GenerateRequest{
			Prompt:     "[Verse]\nlyrics",
			Style:      "synthwave",
			Title:      "Neon Rain",
			CustomMode: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "task-123", id)
		assert.Equal(t, "Bearer test-key", gotAuth)

		// Defaults filled in before submission.
		assert.Equal(t, "V4", gotReq.Model)
		assert.NotEmpty(t, gotReq.CallBackURL)
		assert.True(t, gotReq.CustomMode)
	})

	t.Run("envelope error code surfaces", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"code": 429, "msg": "insufficient credits"})
		}))

		_, err := c.StartRender(context.Background(), GenerateRequest{Prompt: "x"})
		require.ErrorContains(t, err, "insufficient credits")
	})

	t.Run("http error surfaces", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		}))

		_, err := c.StartRender(context.Background(), GenerateRequest{Prompt: "x"})
		require.ErrorContains(t, err, "HTTP 502")
	})
}

func TestCheckStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate/record-info", r.URL.Path)
		require.Equal(t, "task-123", r.URL.Query().Get("taskId"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 200, "msg": "success",
			"data": map[string]any{
				"taskId": "task-123",
				"status": "SUCCESS",
				"response": map[string]any{
					"sunoData": []map[string]any{
						{"id": "clip-1", "audioUrl": "https://cdn/clip1.mp3", "imageUrl": "https://cdn/cover1.jpg"},
						{"id": "clip-2", "audioUrl": "https://cdn/clip2.mp3"},
					},
				},
			},
		})
	}))

	state, err := c.CheckStatus(context.Background(), "task-123")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, state.Status)
	require.Len(t, state.Tracks, 2)
	assert.Equal(t, "https://cdn/clip1.mp3", state.Tracks[0].AudioURL)
	assert.Equal(t, "https://cdn/cover1.jpg", state.Tracks[0].ImageURL)
}

func TestAwaitRender(t *testing.T) {
	t.Run("polls until terminal", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			status := "GENERATING"
			if calls.Add(1) >= 3 {
				status = "SUCCESS"
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"code": 200, "msg": "success",
				"data": map[string]any{"taskId": "task-123", "status": status},
			})
		}))

		state, err := c.AwaitRender(context.Background(), "task-123")
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, state.Status)
		assert.GreaterOrEqual(t, calls.Load(), int32(3))
	})

	t.Run("failed render is a state, not an error", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"code": 200, "msg": "success",
				"data": map[string]any{"taskId": "task-123", "status": "FAILED", "errorMessage": "content policy"},
			})
		}))

		state, err := c.AwaitRender(context.Background(), "task-123")
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, state.Status)
		assert.Equal(t, "content policy", state.ErrorMessage)
	})

	t.Run("context cancellation stops polling", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"code": 200, "msg": "success",
				"data": map[string]any{"taskId": "task-123", "status": "PENDING"},
			})
		}))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := c.AwaitRender(ctx, "task-123")
		require.Error(t, err)
	})
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusSuccess.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusGenerating.Terminal())
	assert.False(t, StatusTextSuccess.Terminal())
}
