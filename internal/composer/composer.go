// Package composer talks to the LLM collaborators. Every method sends one
// prompt, demands structured JSON output, and maps the payload onto the
// song domain types. The composer never touches the store — callers decide
// what to do with the results.
package composer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"

	"github.com/thomasrocks006-cmyk/Suno/internal/song"
)

// ErrMalformedResponse indicates the collaborator returned parseable JSON
// that nonetheless violates the contract (empty lyrics, wrong variation
// count). Retrying is the caller's decision.
var ErrMalformedResponse = errors.New("composer: malformed collaborator response")

// Config selects the models and generation parameters.
type Config struct {
	// ProModel handles generation, critique and rewriting.
	ProModel string

	// FlashModel handles the cheaper calls: variations and attribute
	// inference.
	FlashModel string

	// ImageModel renders cover art. Ignored unless CoverArt is set.
	ImageModel string

	// CoverArt enables best-effort album cover generation.
	CoverArt bool

	// Temperature for song generation. Modes with strict formatting rules
	// run slightly cooler regardless.
	Temperature float32
}

// ImageGenerator is the slice of the genai image API the composer needs.
// Satisfied by (*genai.Client).Models.
type ImageGenerator interface {
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Draft is the generator's structured output, before identity and flags
// are attached.
type Draft struct {
	Title                string `json:"title"`
	StylePrompt          string `json:"stylePrompt"`
	NegativePrompt       string `json:"negativePrompt"`
	Lyrics               string `json:"lyrics"`
	TechnicalExplanation string `json:"technicalExplanation"`
	CoverArtPrompt       string `json:"coverArtPrompt"`
}

// RewriteResult is the structured output of a rewrite call.
type RewriteResult struct {
	Lyrics               string `json:"lyrics"`
	TechnicalExplanation string `json:"technicalExplanation"`
}

type variationSet struct {
	Variations []song.Variation `json:"variations"`
}

// Composer is the LLM-facing collaborator client.
type Composer struct {
	g      *genkit.Genkit
	images ImageGenerator
	cfg    Config
	logger *slog.Logger
}

// New creates a Composer. images may be nil to disable cover art even when
// the config asks for it.
func New(g *genkit.Genkit, images ImageGenerator, cfg Config, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.9
	}
	return &Composer{g: g, images: images, cfg: cfg, logger: logger}
}

// GenerateSong produces a complete new song from the creative brief. Cover
// art is attached best-effort: an image failure is logged and the song is
// returned without one.
func (c *Composer) GenerateSong(ctx context.Context, in song.Inputs) (song.Song, error) {
	temp := c.cfg.Temperature
	if in.Flags.AdvancedLyricLogic || in.Flags.CentralMetaphorLogic {
		temp = 0.8
	}

	draft, err := generate[Draft](ctx, c, c.cfg.ProModel, generationSystem, buildGenerationPrompt(in), temp)
	if err != nil {
		return song.Song{}, fmt.Errorf("generating song: %w", err)
	}
	if strings.TrimSpace(draft.Lyrics) == "" || strings.TrimSpace(draft.Title) == "" {
		return song.Song{}, fmt.Errorf("%w: generator returned empty title or lyrics", ErrMalformedResponse)
	}

	s := song.Song{
		ID:                   song.NewID(),
		CreatedAt:            song.Now(),
		Title:                draft.Title,
		StylePrompt:          draft.StylePrompt,
		NegativePrompt:       draft.NegativePrompt,
		Lyrics:               draft.Lyrics,
		TechnicalExplanation: draft.TechnicalExplanation,
		CoverArtPrompt:       draft.CoverArtPrompt,
		Flags:                in.Flags,
	}

	if c.cfg.CoverArt && c.images != nil && s.CoverArtPrompt != "" {
		img, err := c.generateCoverArt(ctx, s.CoverArtPrompt)
		if err != nil {
			c.logger.Warn("cover art generation failed, continuing without image", "error", err)
		} else {
			s.CoverImageBase64 = img
		}
	}
	return s, nil
}

// AnalyzeSong runs the critic over a song snapshot. When parentLyrics is
// non-empty the critique includes a comparison against that earlier
// version; otherwise any comparison the model volunteers is dropped.
func (c *Composer) AnalyzeSong(ctx context.Context, snap song.Snapshot, parentLyrics string) (song.Analysis, error) {
	out, err := generate[song.Analysis](ctx, c, c.cfg.ProModel, criticSystem, buildAnalysisPrompt(snap, parentLyrics), 0.8)
	if err != nil {
		return song.Analysis{}, fmt.Errorf("analyzing song: %w", err)
	}
	if parentLyrics == "" {
		out.Comparison = nil
	}
	for i := range out.LineImprovements {
		out.LineImprovements[i].Source = song.SourceMachine
	}
	return out, nil
}

// GenerateVariations asks for exactly two alternative takes on the song.
// Any other count is a malformed response.
func (c *Composer) GenerateVariations(ctx context.Context, snap song.Snapshot) ([]song.Variation, error) {
	out, err := generate[variationSet](ctx, c, c.cfg.FlashModel, variationSystem, buildVariationPrompt(snap), 1.0)
	if err != nil {
		return nil, fmt.Errorf("generating variations: %w", err)
	}
	if len(out.Variations) != 2 {
		return nil, fmt.Errorf("%w: expected 2 variations, got %d", ErrMalformedResponse, len(out.Variations))
	}
	for i := range out.Variations {
		if out.Variations[i].ID == "" {
			out.Variations[i].ID = song.NewID()
		}
		if strings.TrimSpace(out.Variations[i].Lyrics) == "" {
			return nil, fmt.Errorf("%w: variation %d has empty lyrics", ErrMalformedResponse, i)
		}
	}
	return out.Variations, nil
}

// Rewrite produces new lyrics that apply the accepted critique. The
// improvements are embedded in the prompt as JSON so the model sees the
// exact line-level suggestions, including any the user edited by hand.
func (c *Composer) Rewrite(ctx context.Context, lyrics string, improvements []song.LineImprovement) (RewriteResult, error) {
	critique, err := json.Marshal(improvements)
	if err != nil {
		return RewriteResult{}, fmt.Errorf("encoding critique: %w", err)
	}

	out, err := generate[RewriteResult](ctx, c, c.cfg.ProModel, rewriteSystem, buildRewritePrompt(lyrics, string(critique)), 0.7)
	if err != nil {
		return RewriteResult{}, fmt.Errorf("rewriting song: %w", err)
	}
	if strings.TrimSpace(out.Lyrics) == "" {
		return RewriteResult{}, fmt.Errorf("%w: rewrite returned empty lyrics", ErrMalformedResponse)
	}
	return out, nil
}

// InferAttributes suggests creative-brief values from an artist reference
// and optional song reference.
func (c *Composer) InferAttributes(ctx context.Context, artist, songRef string) (song.Inferred, error) {
	if strings.TrimSpace(artist) == "" {
		return song.Inferred{}, errors.New("composer: artist reference is required")
	}
	out, err := generate[song.Inferred](ctx, c, c.cfg.FlashModel, inferenceSystem, buildInferencePrompt(artist, songRef), 0.7)
	if err != nil {
		return song.Inferred{}, fmt.Errorf("inferring attributes: %w", err)
	}
	return out, nil
}

// generate runs one structured-output call against the named model and
// unmarshals the payload into T.
func generate[T any](ctx context.Context, c *Composer, model, system, prompt string, temp float32) (T, error) {
	var out T
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(model),
		ai.WithSystem(system),
		ai.WithPrompt(prompt),
		ai.WithOutputType(out),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature: genai.Ptr(temp),
		}),
	)
	if err != nil {
		return out, err
	}
	if err := resp.Output(&out); err != nil {
		return out, err
	}
	return out, nil
}

// generateCoverArt renders a square album cover and returns it as base64
// JPEG bytes.
func (c *Composer) generateCoverArt(ctx context.Context, prompt string) (string, error) {
	resp, err := c.images.GenerateImages(ctx, c.cfg.ImageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/jpeg",
		AspectRatio:    "1:1",
	})
	if err != nil {
		return "", err
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return "", errors.New("image model returned no image data")
	}
	return base64.StdEncoding.EncodeToString(resp.GeneratedImages[0].Image.ImageBytes), nil
}
