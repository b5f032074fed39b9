package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"google.golang.org/genai"

	"github.com/thomasrocks006-cmyk/Suno/internal/composer"
	"github.com/thomasrocks006-cmyk/Suno/internal/config"
	"github.com/thomasrocks006-cmyk/Suno/internal/enrich"
	"github.com/thomasrocks006-cmyk/Suno/internal/log"
	"github.com/thomasrocks006-cmyk/Suno/internal/session"
	"github.com/thomasrocks006-cmyk/Suno/internal/song"
	"github.com/thomasrocks006-cmyk/Suno/internal/storage"
	"github.com/thomasrocks006-cmyk/Suno/internal/suno"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	g, err := provideGenkit(ctx)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	images, err := provideImageGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	history, err := storage.Open(storage.Config{Path: cfg.DataDir, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	a.History = history

	a.Store = song.NewStore(history, logger)
	if restored := history.Load(); len(restored) > 0 {
		a.Store.Restore(restored)
		logger.Info("song history restored", "songs", len(restored))
	}

	a.Composer = composer.New(g, images, composer.Config{
		ProModel:    cfg.ProModelName(),
		FlashModel:  cfg.FlashModelName(),
		ImageModel:  cfg.ImageModel,
		CoverArt:    cfg.CoverArt,
		Temperature: cfg.Temperature,
	}, logger)

	renderer, client, err := provideRenderer(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Suno = client

	a.Coordinator = enrich.New(a.Store, a.Composer, a.Composer, renderer, logger)
	a.Controller = session.New(a.Store, a.Composer, a.Composer, a.Composer, a.Coordinator, logger)

	return a, nil
}

// provideGenkit initializes Genkit with the Google AI plugin. The plugin
// reads GEMINI_API_KEY from the environment.
func provideGenkit(ctx context.Context) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with gemini provider")
	}
	return g, nil
}

// provideImageGenerator creates the genai client used for cover art.
// Returns nil when cover art is disabled; the composer treats a nil
// generator as "skip cover art".
func provideImageGenerator(ctx context.Context, cfg *config.Config) (composer.ImageGenerator, error) {
	if !cfg.CoverArt {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("creating image client: %w", err)
	}
	return client.Models, nil
}

// provideRenderer creates the Suno client when an API key is configured.
// Returns a nil Renderer otherwise so the coordinator rejects render
// requests instead of failing them mid-flight.
func provideRenderer(cfg *config.Config, logger log.Logger) (enrich.Renderer, *suno.Client, error) {
	if !cfg.RenderEnabled() {
		logger.Info("music rendering disabled: no SUNO_API_KEY")
		return nil, nil, nil
	}
	client, err := suno.New(suno.Config{
		APIKey:  cfg.SunoAPIKey,
		BaseURL: cfg.SunoBaseURL,
		Model:   cfg.SunoModel,
		Logger:  logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating suno client: %w", err)
	}
	return client, client, nil
}
