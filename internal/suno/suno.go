// Package suno is a client for the Suno music generation REST API. A
// render is a two-phase exchange: submit a task, then poll the record-info
// endpoint until the task reaches a terminal status. Polling is
// rate-limited so a slow render never hammers the API.
package suno

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production Suno API endpoint.
const DefaultBaseURL = "https://api.sunoapi.org/api/v1"

// defaultPollInterval spaces out status checks during AwaitRender.
const defaultPollInterval = 5 * time.Second

// placeholderCallback satisfies the API's mandatory callback parameter.
// Results are collected by polling instead.
const placeholderCallback = "https://webhook.site/placeholder"

// Status is the lifecycle state of a render task.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusTextSubmitting Status = "TEXT_SUBMITTING"
	StatusTextSuccess    Status = "TEXT_SUCCESS"
	StatusGenerating     Status = "GENERATING"
	StatusSuccess        Status = "SUCCESS"
	StatusFailed         Status = "FAILED"
)

// Terminal reports whether the task has finished, successfully or not.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// GenerateRequest is the render submission payload.
type GenerateRequest struct {
	Prompt       string `json:"prompt"`
	Style        string `json:"style,omitempty"`
	Title        string `json:"title,omitempty"`
	CustomMode   bool   `json:"customMode"`
	Instrumental bool   `json:"instrumental"`
	Model        string `json:"model,omitempty"`
	CallBackURL  string `json:"callBackUrl,omitempty"`
}

// Track is one rendered audio clip. A successful task usually yields two.
type Track struct {
	ID             string  `json:"id"`
	AudioURL       string  `json:"audioUrl"`
	StreamAudioURL string  `json:"streamAudioUrl,omitempty"`
	SourceAudioURL string  `json:"sourceAudioUrl"`
	Title          string  `json:"title"`
	Tags           string  `json:"tags"`
	Duration       float64 `json:"duration"`
	ImageURL       string  `json:"imageUrl,omitempty"`
	SourceImageURL string  `json:"sourceImageUrl,omitempty"`
	Model          string  `json:"model,omitempty"`
}

// TaskState is the polled view of a render task.
type TaskState struct {
	TaskID       string
	Status       Status
	Tracks       []Track
	ErrorMessage string
}

// Config holds client options.
type Config struct {
	// APIKey is required.
	APIKey string

	// BaseURL overrides the production endpoint. Used in tests.
	BaseURL string

	// Model is the default render model, e.g. "V4" or "V5".
	Model string

	// PollInterval spaces status checks in AwaitRender.
	PollInterval time.Duration

	// HTTPClient overrides the default client.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client talks to the Suno API.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	hc      *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("suno: api key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "V4"
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   model,
		hc:      hc,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger,
	}, nil
}

// envelope is the response wrapper every Suno endpoint uses. A transport
// 200 with a non-200 code field is still an error.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// StartRender submits a render task and returns its task id. The default
// model and callback are filled in when the request leaves them empty.
func (c *Client) StartRender(ctx context.Context, req GenerateRequest) (string, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	if req.CallBackURL == "" {
		req.CallBackURL = placeholderCallback
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding render request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building render request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	data, err := c.do(httpReq)
	if err != nil {
		return "", fmt.Errorf("submitting render: %w", err)
	}

	var payload struct {
		TaskID string `json:"taskId"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("decoding render response: %w", err)
	}
	if payload.TaskID == "" {
		return "", errors.New("suno: render accepted without a task id")
	}
	c.logger.Debug("render task created", "task_id", payload.TaskID)
	return payload.TaskID, nil
}

// CheckStatus fetches the current state of a render task.
func (c *Client) CheckStatus(ctx context.Context, taskID string) (TaskState, error) {
	endpoint := c.baseURL + "/generate/record-info?taskId=" + url.QueryEscape(taskID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return TaskState{}, fmt.Errorf("building status request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	data, err := c.do(httpReq)
	if err != nil {
		return TaskState{}, fmt.Errorf("checking render status: %w", err)
	}

	var payload struct {
		TaskID   string `json:"taskId"`
		Status   Status `json:"status"`
		Response *struct {
			SunoData []Track `json:"sunoData"`
		} `json:"response"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return TaskState{}, fmt.Errorf("decoding status response: %w", err)
	}

	state := TaskState{
		TaskID:       payload.TaskID,
		Status:       payload.Status,
		ErrorMessage: payload.ErrorMessage,
	}
	if payload.Response != nil {
		state.Tracks = payload.Response.SunoData
	}
	return state, nil
}

// AwaitRender polls until the task reaches a terminal status or the
// context is cancelled. A failed render is returned as a state, not an
// error; transport problems are errors.
func (c *Client) AwaitRender(ctx context.Context, taskID string) (TaskState, error) {
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return TaskState{}, err
		}
		state, err := c.CheckStatus(ctx, taskID)
		if err != nil {
			return TaskState{}, err
		}
		if state.Status.Terminal() {
			return state, nil
		}
		c.logger.Debug("render in progress", "task_id", taskID, "status", state.Status)
	}
}

// do executes the request and unwraps the envelope.
func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("suno: HTTP %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}
	if env.Code != http.StatusOK {
		return nil, fmt.Errorf("suno: API error code %d: %s", env.Code, env.Msg)
	}
	return env.Data, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
