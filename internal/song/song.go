package song

import (
	"time"

	"github.com/google/uuid"
)

// StructureType selects the large-scale form the generator should follow.
type StructureType string

const (
	StructureAuto         StructureType = "Auto / Best Fit"
	StructurePop          StructureType = "Pop Standard (V-C-V-C-B-C)"
	StructureEDM          StructureType = "EDM Build (Intro-Build-Drop-Break-Drop)"
	StructureStorytelling StructureType = "Storytelling (Linear Verse progression)"
	StructureExperimental StructureType = "Experimental/Progressive"
)

// Flags records which generation modes were active when a Song's content
// was produced. They are carried forward explicitly on derivation, never
// inherited implicitly.
type Flags struct {
	AdvancedLyricLogic   bool `json:"advancedLyricLogic"`
	CentralMetaphorLogic bool `json:"centralMetaphorLogic"`
}

// Inputs is the creative brief submitted by the user. Empty fields are an
// invitation for the generator to invent something that fits.
type Inputs struct {
	ArtistReference    string        `json:"artistReference"`
	SongReference      string        `json:"songReference"`
	Topic              string        `json:"topic"`
	Mood               string        `json:"mood"`
	Genre              string        `json:"genre"`
	Vocals             string        `json:"vocals"`
	Instruments        []string      `json:"instruments"`
	Structure          StructureType `json:"structure"`
	CustomInstructions string        `json:"customInstructions"`
	SyllablePattern    string        `json:"syllablePattern"`
	Flags              Flags         `json:"flags"`
}

// Inferred holds attribute suggestions derived from an artist/song reference.
type Inferred struct {
	Topic           string   `json:"topic"`
	Mood            string   `json:"mood"`
	Genre           string   `json:"genre"`
	Vocals          string   `json:"vocals"`
	SyllablePattern string   `json:"syllablePattern"`
	Instruments     []string `json:"instruments"`
}

// ScoreComponent is one category in the critique's score breakdown.
type ScoreComponent struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
}

// CinemaAudit grades the concrete imagery of the lyrics: the physical
// objects mentioned, their count, and a letter grade.
type CinemaAudit struct {
	Score       string   `json:"score"`
	ObjectCount int      `json:"objectCount"`
	Objects     []string `json:"objects"`
	Analysis    string   `json:"analysis"`
}

// SonicAnalysis is the producer's-ear substructure of a critique.
type SonicAnalysis struct {
	Phonetics   string      `json:"phonetics"`
	Density     string      `json:"density"`
	CinemaAudit CinemaAudit `json:"cinemaAudit"`
}

// ImprovementSource tags who produced a line improvement.
type ImprovementSource string

const (
	SourceMachine ImprovementSource = "machine"
	SourceUser    ImprovementSource = "user"
)

// LineImprovement is a single line-by-line rewrite suggestion.
type LineImprovement struct {
	Original string            `json:"original"`
	Improved string            `json:"improved"`
	Reason   string            `json:"reason"`
	Source   ImprovementSource `json:"source,omitempty"`
}

// Comparison is the parent-vs-current verdict, present only when the
// critique was given a prior version's lyrics.
type Comparison struct {
	Verdict      string   `json:"verdict"`
	ScoreDelta   float64  `json:"scoreDelta"`
	Improvements []string `json:"improvements"`
	Regressions  []string `json:"regressions"`
}

// Analysis is the full critique attached to a Song by the analysis
// enrichment. Attached at most once per Song; a manual line edit may later
// append a user-tagged LineImprovement.
type Analysis struct {
	OverallScore        float64           `json:"overallScore"`
	ProjectedScore      float64           `json:"projectedScore"`
	Summary             string            `json:"summary"`
	ScoreBreakdown      []ScoreComponent  `json:"scoreBreakdown"`
	ThemeAnalysis       string            `json:"themeAnalysis"`
	StoryArc            string            `json:"storyArc"`
	Sonic               SonicAnalysis     `json:"sonicAnalysis"`
	Strengths           []string          `json:"strengths"`
	Weaknesses          []string          `json:"weaknesses"`
	LineImprovements    []LineImprovement `json:"lineByLineImprovements"`
	CommercialViability string            `json:"commercialViability"`
	Comparison          *Comparison       `json:"comparison,omitempty"`
}

// Variation is one alternative full-lyric rewrite.
type Variation struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Lyrics      string `json:"lyrics"`
	Explanation string `json:"explanation"`
}

// Song is the unit of persisted creative output.
//
// Zero values:
//   - ID: "" (invalid, assign with NewID)
//   - ParentID: "" (original, not derived)
//   - Analysis: nil (not yet analyzed)
//   - Variations: nil (not yet generated)
//   - RenderTaskID: "" (no music render started)
type Song struct {
	ID                   string      `json:"id"`
	ParentID             string      `json:"parentId,omitempty"`
	CreatedAt            int64       `json:"createdAt"` // unix milliseconds
	Title                string      `json:"title"`
	StylePrompt          string      `json:"stylePrompt"`
	NegativePrompt       string      `json:"negativePrompt"`
	Lyrics               string      `json:"lyrics"`
	TechnicalExplanation string      `json:"technicalExplanation"`
	CoverArtPrompt       string      `json:"coverArtPrompt"`
	CoverImageBase64     string      `json:"coverImageBase64,omitempty"`
	Analysis             *Analysis   `json:"analysis,omitempty"`
	Variations           []Variation `json:"variations,omitempty"`
	Flags                Flags       `json:"flags"`

	// Music-render enrichment, attached independently of the critique.
	RenderTaskID     string   `json:"renderTaskId,omitempty"`
	AudioURLs        []string `json:"audioUrls,omitempty"`
	RenderedCoverURL string   `json:"renderedCoverUrl,omitempty"`
}

// Snapshot is the content captured when an enrichment is launched. It is a
// copy, not a live reference: the eventual result describes what was
// actually submitted even if the Song changes underneath it.
type Snapshot struct {
	ID          string
	Title       string
	StylePrompt string
	Lyrics      string
}

// NewID returns a fresh unique song identifier.
func NewID() string {
	return uuid.NewString()
}

// Now returns the creation timestamp for a new Song.
func Now() int64 {
	return time.Now().UnixMilli()
}

// Snapshot captures the analyzable content of the Song.
func (s Song) Snapshot() Snapshot {
	return Snapshot{
		ID:          s.ID,
		Title:       s.Title,
		StylePrompt: s.StylePrompt,
		Lyrics:      s.Lyrics,
	}
}

// Clone returns a deep copy. Song is passed by value everywhere, but the
// pointer and slice fields would otherwise alias the stored entry.
func (s Song) Clone() Song {
	c := s
	if s.Analysis != nil {
		a := *s.Analysis
		a.ScoreBreakdown = append([]ScoreComponent(nil), s.Analysis.ScoreBreakdown...)
		a.Strengths = append([]string(nil), s.Analysis.Strengths...)
		a.Weaknesses = append([]string(nil), s.Analysis.Weaknesses...)
		a.LineImprovements = append([]LineImprovement(nil), s.Analysis.LineImprovements...)
		a.Sonic.CinemaAudit.Objects = append([]string(nil), s.Analysis.Sonic.CinemaAudit.Objects...)
		if s.Analysis.Comparison != nil {
			cmp := *s.Analysis.Comparison
			cmp.Improvements = append([]string(nil), s.Analysis.Comparison.Improvements...)
			cmp.Regressions = append([]string(nil), s.Analysis.Comparison.Regressions...)
			a.Comparison = &cmp
		}
		c.Analysis = &a
	}
	c.Variations = append([]Variation(nil), s.Variations...)
	c.AudioURLs = append([]string(nil), s.AudioURLs...)
	return c
}
