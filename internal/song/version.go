package song

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// versionSuffix matches a trailing " (Vn)" version marker on a title.
var versionSuffix = regexp.MustCompile(`\s*\(V(\d+)\)$`)

// NextVersionLabel computes the label for a version derived from a Song
// with the given title. An unversioned title yields "V2"; "(Vn)" yields
// "Vn+1". A marker with a malformed number is treated as unversioned —
// the title is advisory metadata, not an identifier.
func NextVersionLabel(title string) string {
	m := versionSuffix.FindStringSubmatch(title)
	if m == nil {
		return "V2"
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return "V2"
	}
	return "V" + strconv.Itoa(n+1)
}

// baseTitle strips any existing version marker so suffixes never stack.
func baseTitle(title string) string {
	return strings.TrimSpace(versionSuffix.ReplaceAllString(title, ""))
}

// Derive produces a brand-new Song from base with replaced lyrics and
// rationale. Style, negative prompt and cover fields carry over unchanged;
// analysis and variations are cleared since they described the old lyrics;
// flags are set to exactly what the caller supplies.
func Derive(base Song, newLyrics, newRationale string, flags Flags) Song {
	return Song{
		ID:                   NewID(),
		ParentID:             base.ID,
		CreatedAt:            Now(),
		Title:                fmt.Sprintf("%s (%s)", baseTitle(base.Title), NextVersionLabel(base.Title)),
		StylePrompt:          base.StylePrompt,
		NegativePrompt:       base.NegativePrompt,
		Lyrics:               newLyrics,
		TechnicalExplanation: newRationale,
		CoverArtPrompt:       base.CoverArtPrompt,
		CoverImageBase64:     base.CoverImageBase64,
		Flags:                flags,
	}
}

// FindParent resolves the Song's ParentID against the live store at the
// moment of use. Returns false when the Song is an original or its parent
// was removed by a history clear — comparison is simply unavailable then.
func FindParent(s Song, store *Store) (Song, bool) {
	if s.ParentID == "" {
		return Song{}, false
	}
	return store.Get(s.ParentID)
}
