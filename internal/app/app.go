// Package app provides application initialization and dependency wiring.
//
// App is the container that owns every long-lived component: the Genkit
// instance, the history database, the song store, the enrichment
// coordinator and the session controller. Setup builds it; Close tears it
// down in reverse order.
package app

import (
	"context"
	"time"

	"github.com/firebase/genkit/go/genkit"

	"github.com/thomasrocks006-cmyk/Suno/internal/composer"
	"github.com/thomasrocks006-cmyk/Suno/internal/config"
	"github.com/thomasrocks006-cmyk/Suno/internal/enrich"
	"github.com/thomasrocks006-cmyk/Suno/internal/log"
	"github.com/thomasrocks006-cmyk/Suno/internal/session"
	"github.com/thomasrocks006-cmyk/Suno/internal/song"
	"github.com/thomasrocks006-cmyk/Suno/internal/storage"
	"github.com/thomasrocks006-cmyk/Suno/internal/suno"
)

// drainTimeout bounds how long Close waits for in-flight enrichments.
const drainTimeout = 10 * time.Second

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit      *genkit.Genkit
	History     *storage.History
	Store       *song.Store
	Composer    *composer.Composer
	Suno        *suno.Client // nil when rendering is not configured
	Coordinator *enrich.Coordinator
	Controller  *session.Controller
}

// Close gracefully shuts down all resources. In-flight enrichments get a
// bounded grace period to land their results before the history database
// closes underneath them.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.Coordinator != nil {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if err := a.Coordinator.Wait(ctx); err != nil && a.Logger != nil {
			a.Logger.Warn("abandoning in-flight enrichments", "error", err)
		}
	}

	if a.History != nil {
		if err := a.History.Close(); err != nil {
			return err
		}
		if a.Logger != nil {
			a.Logger.Info("history database closed")
		}
	}

	return nil
}
