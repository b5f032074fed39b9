package composer

import (
	"fmt"
	"strings"

	"github.com/thomasrocks006-cmyk/Suno/internal/song"
)

// generationSystem is the standing instruction for the song generator. It
// encodes the Suno v5 prompt conventions: metatags, vocal coloring,
// formatting tricks, and the copyright rule that artist names never leak
// into the style prompt.
const generationSystem = `You are an elite Suno v5 Prompt Engineer and Songwriter. Your goal is to generate the inputs necessary for a user to create a high-quality song in Suno AI, AND a matching album cover description.

**Knowledge Base (Suno v5 Optimization):**
1.  **Structure & Metatags:** You must use standard tags: [Intro], [Verse], [Pre-Chorus], [Chorus], [Hook], [Bridge], [Solo], [Outro], [End].
2.  **Advanced Vocal Coloring (CRITICAL):**
    *   **Performance Tags:** Use tags to direct the singer's delivery based on mood.
        *   *Soft/Intimate:* [Whisper], [Breathy], [Murmur], [Spoken Word].
        *   *High Energy:* [Shouting], [Screaming], [Growl], [Chant], [Gang Vocals], [Belting].
        *   *Stylistic:* [Rap], [Falsetto], [Operatic], [Robotic].
    *   **Production Effects:** [Radio Filter], [Telephone Effect], [Autotune], [Echo], [Delay].
    *   **Ad-libs:** Use parentheses for background vocals and call-and-response: (Ooh-yeah), (Echoing...), (Let's go!).
3.  **Lyric Formatting:**
    *   **Rhythm:** Use line breaks to create pauses.
    *   **Phrasing:** Use commas, ellipses (...), and colons to control phrasing speed.
    *   **Emphasis:** Use ALL CAPS for loud/intense words.
    *   **Flow:** Use hyphens for syl-la-ble el-on-ga-tion or stac-ca-to.
4.  **Style Prompts:** v5 prefers specific sub-genres. Combine Eras (e.g., 1980s), Instruments, and Vibe. Include BPM.
5.  **Exclusions:** Suggest negative prompts (e.g., "Live, muffled, messy, off-key, spoken").
6.  **Rhythmic Precision:** If a syllable count or meter is requested, lyrics MUST strictly follow it.
7.  **Copyright Compliance (CRITICAL):** NEVER include real artist names or band names in the stylePrompt output. Use descriptive terms instead (e.g., instead of "Drake", use "Modern Melodic Trap, Auto-tuned Male Vocals, 140 BPM").

**Task:**
Generate a complete song structure and an Album Cover Prompt.
*   **Input Handling:** If specific inputs (Topic, Genre, Mood) are missing, you MUST creatively invent them to form a cohesive, high-quality song concept. Do not produce generic results.
*   **Lyrics:** Must be creatively written with rich metatags and *frequent* vocal directions.
*   **Cover Art Prompt:** Describe an artistic, high-quality album cover. Mention specific art styles (e.g., Cyberpunk digital art, Oil painting, Minimalist vector), lighting, and subject.`

// advancedLyricInstructions is appended to the generation prompt when the
// advanced lyric logic mode is enabled.
const advancedLyricInstructions = `
### INSTRUCTIONAL METADATA & FORMATTING RULES (STRICT ENFORCEMENT REQUIRED)
You must format all song outputs using specific "Meta-Tags" to guide the Suno AI generation. Do not simply write lyrics; you must direct the audio generation.

**1. Section Headers with Musical Direction**
Every song section must begin with a header in Square Brackets [...]. This header must contain:
* The Section Type (Verse, Chorus, Bridge, Outro).
* The Vocal Texture (e.g., male lead, harmonies, choir).
* Instrumentation details (e.g., stripped back, full band, violin swell).
* Energy Level (Rated 1/10 to 10/10).

*Format:* [Section Type - vocal details, instrument details, X/10 energy]

**2. Inline Vocal Cues**
Use Parentheses (...) at the start of lines to indicate who is singing.
* (M) = Male Lead
* (F) = Female Lead
* (M+F) = Duet / Harmonies
* (Choir) = Background vocals
* You may also use descriptive vocal cues like (Whispered), (Belting), or (Spoken).

**3. Progression & Dynamics**
Ensure the "Energy Level" changes dynamically throughout the song.
* Verses are usually lower energy (3-5/10).
* Choruses should step up (6-8/10).
* Final Choruses should be peak energy (9-10/10).
* Bridges often vary (build-ups or breakdowns).

### SONGWRITING LOGIC & LYRICAL DEPTH

To differentiate this output from generic AI lyrics, you must adhere to the following "Timeless Songwriting" principles.

**1. The "Furniture" Rule (Concrete Imagery)**
* **Never** rely solely on abstract concepts (e.g., "The sorrow was deep," "I felt the pain").
* **Always** anchor emotions to physical objects or "furniture" in the scene.
* *Bad:* "I miss you so much in this empty room."
* *Good:* "The coffee cup is moldy on the coaster where you left it."

**2. Specificity Creates Universality**
* Use specific details to make the song feel real. Mention specific locations, times of day, colors, or brand names/pop culture references if they fit the vibe.
* *Example:* Don't say "We watched a movie"; say "We fell asleep to re-runs of The Office."

**3. "Show, Don't Tell" (Sensory Anchors)**
* Engage the senses: Smell (smoke, rain, perfume), Sound (sirens, whispers, humming fridge), Touch (cold sheets, sticky floors).
* *Instruction:* Every verse must contain at least one sensory detail.

**4. Avoid "AI Clichés" & Forced Rhymes**
* **STRICTLY FORBIDDEN WORDS:** Do not use the words: *Tapestry, Symphony, Realm, Neon (unless Cyberpunk), Unfold, Ignite, Soar, Boundless, Echoes.*
* **Rhyme Scheme:** Avoid basic AABB perfect rhymes (Cat/Hat). Use **Slant Rhymes** (Near Rhymes) for a modern, mature sound.
    * *Example:* "Home" rhymes with "Stone" (Good). "Life" rhymes with "Light" (Good).
* **Conversational Phrasing:** The lyrics should sound like a conversation, not a poem. It is okay to break grammar for rhythm.

**5. Structural Impact**
* **The "Gut Punch" Line:** The end of the Chorus or the Bridge must contain a line that summarizes the emotional conflict in a devastatingly simple way.
* **The Bridge Shift:** The Bridge must not just be a continuation. It must offer a new perspective, a realization, or a tempo change.

**6. Prosody & Rhythm (Phonetics)**
* For High Energy/Anger: Use "Plosive" consonants (P, K, T, B, D).
    * *Ex:* "Break," "Cut," "Stop."
* For Sadness/Intimacy: Use "Sibilant" and "Liquid" sounds (S, Sh, L, M, W).
    * *Ex:* "Slow," "Wash," "Memory," "Lonely."
`

// centralMetaphorInstructions is appended when central metaphor anchoring
// is enabled.
const centralMetaphorInstructions = `
### THE "CENTRAL METAPHOR" ANCHORING PROTOCOL

To ensure lyrical impact and thematic cohesion, you must select (or be given) a **Central Metaphor** before writing lyrics. This metaphor serves as the "Hook" and the governing logic of the song.

**1. Define the Anchor**
* Select one concrete object or concept (The Anchor) that represents the emotional theme (The Meaning).
* *Example:* Anchor = "A Car Running on Fumes"; Meaning = "A relationship that has no love left but keeps moving."
* *Example:* Anchor = "Rust"; Meaning = "Trust decaying slowly over time."

**2. The "Extended Universe" Rule**
* Once the Anchor is chosen, **all** imagery in the song must belong to that universe. Do not mix metaphors.
* *If the Anchor is "The Ocean" (Separation):* You must use words like: Tide, Salt, Blue, Drowning, Waves, Shore, Depths. (Do not suddenly talk about "climbing mountains").
* *If the Anchor is "Gambling" (Risk):* Use words like: Fold, All-in, Bluff, High stakes, Luck, Dice.

**3. Structure of the Metaphor**
* **The Chorus:** Must clearly state the Metaphor as the central thesis. (e.g., "You are the sun, I am the moon.")
* **The Verses:** Must describe the *consequences* or the *setting* of that metaphor without necessarily restating the title.
* **The Bridge:** Must flip, break, or intensify the metaphor.

**4. List of High-Potency Metaphor Archetypes (Use these as inspiration):**
* *The House:* (Cracks in the foundation, locking doors, haunted halls) -> Represents the Mind or a Relationship.
* *The Driver:* (Asleep at the wheel, wrong side of the road, rear-view mirror) -> Represents Control or Regret.
* *The Garden:* (Weeds choking flowers, drought, roots deep underground) -> Represents Growth or Neglect.
* *The Circuit:* (Short fuse, static, disconnected, power outage) -> Represents Communication breakdown.
* *The Season:* (Eternal winter, waiting for the thaw, dead leaves) -> Represents Depression or Waiting.
`

// basicVocalInstructions is the fallback when advanced lyric logic is off.
const basicVocalInstructions = `
CRITICAL: In the lyrics, include specific vocal instructions like [Whisper], [Shout], or [Spoken Word] where emotionally appropriate. Use parenthetical ad-libs (e.g., (Yeah!)) to add depth.
`

const criticSystem = "You are a strict, high-standard music critic and audio engineer. Do not sugarcoat. Be specific."

const rewriteSystem = "You are an elite songwriter polishing a track for final release."

const variationSystem = "You are a creative songwriter exploring alternative drafts."

const inferenceSystem = "You are a helpful music production assistant. Be concise and constructive."

// valueOr returns s unless it is empty, in which case it returns the
// placeholder that tells the model to invent something.
func valueOr(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

// buildGenerationPrompt renders the creative brief for the generator,
// switching in the mode-specific instruction blocks.
func buildGenerationPrompt(in song.Inputs) string {
	structure := string(in.Structure)
	if in.Structure == song.StructureAuto || structure == "" {
		structure = "Choose the OPTIMAL structure for this specific song concept"
	}

	var b strings.Builder
	b.WriteString("Generate a Suno v5 song concept.\n\n")
	b.WriteString("User Inputs (NOTE: If any field below is empty or \"Auto\", you MUST invent a creative choice that fits the other inputs. If References are provided, use them to infer missing style data):\n\n")
	fmt.Fprintf(&b, "- Artist Reference: %s (Use this to infer Genre, Vocals, and Mood ONLY. DO NOT include this name in the final stylePrompt output).\n", valueOr(in.ArtistReference, "None"))
	fmt.Fprintf(&b, "- Song Reference: %s (Use this specific song to narrow down the style/vibe if provided).\n", valueOr(in.SongReference, "None"))
	fmt.Fprintf(&b, "- Topic: %s\n", valueOr(in.Topic, "NOT SPECIFIED - Invent a unique, creative topic."))
	fmt.Fprintf(&b, "- Mood: %s\n", valueOr(in.Mood, "NOT SPECIFIED - Invent a mood that fits the topic/genre (or References)."))
	fmt.Fprintf(&b, "- Genre: %s\n", valueOr(in.Genre, "NOT SPECIFIED - Invent a genre that fits the topic (or References)."))
	fmt.Fprintf(&b, "- Preferred Vocals: %s\n", valueOr(in.Vocals, "NOT SPECIFIED - Select vocals that best fit the genre (or References)."))
	fmt.Fprintf(&b, "- Structure Preference: %s\n", structure)
	fmt.Fprintf(&b, "- Syllable Pattern/Meter: %s\n", valueOr(in.SyllablePattern, "Natural flow appropriate for genre"))
	if len(in.Instruments) > 0 {
		fmt.Fprintf(&b, "- Featured Instruments: %s.\n", strings.Join(in.Instruments, ", "))
	}
	fmt.Fprintf(&b, "- Extra Instructions: %s\n", valueOr(in.CustomInstructions, "None"))
	fmt.Fprintf(&b, "- Advanced Lyric Logic Mode: %s\n", enabledOr(in.Flags.AdvancedLyricLogic))
	fmt.Fprintf(&b, "- Central Metaphor Anchoring: %s\n", enabledOr(in.Flags.CentralMetaphorLogic))

	if in.Flags.AdvancedLyricLogic {
		b.WriteString(advancedLyricInstructions)
	} else {
		b.WriteString(basicVocalInstructions)
	}
	if in.Flags.CentralMetaphorLogic {
		b.WriteString(centralMetaphorInstructions)
	}
	return b.String()
}

func enabledOr(on bool) string {
	if on {
		return "ENABLED"
	}
	return "Disabled"
}

// buildAnalysisPrompt renders the critique request. When parentLyrics is
// non-empty the critic is additionally asked for a version-to-version
// comparison.
func buildAnalysisPrompt(snap song.Snapshot, parentLyrics string) string {
	var b strings.Builder
	b.WriteString("Act as a relentless, world-class music critic and producer. Analyze these song lyrics and concept.\n\n")
	fmt.Fprintf(&b, "Song Title: %s\n", snap.Title)
	fmt.Fprintf(&b, "Style: %s\n", snap.StylePrompt)
	fmt.Fprintf(&b, "Lyrics:\n%s\n", snap.Lyrics)
	b.WriteString(`
Your Goal: Tear this song apart to rebuild it better. Use the following "Pro Level" metrics.

### SECTION 1: CREATIVE AUDIT
1. **Score (0-100):** Rate it based on commercial potential, emotional impact, and cleverness.
2. **Theme Check:** Is the theme clear? Is the message consistent? Analyze the central metaphor if present.
3. **Story Arc:** Does it go somewhere? Does the bridge resolve the conflict?
4. **Line Critique:** Find lines that are "flat", clichéd, or weak. Suggest specifically how to rewrite them.

### SECTION 2: SONIC & STRUCTURAL ANALYSIS (THE PRODUCER'S EAR)
**1. Phonetic "Mouthfeel"**
* *Goal:* Ensure lyrics are percussive and belt-able.
* **The Belting Test:** Check the last word of every Chorus line. Does it end on an Open Vowel (A, O, I) or a Closed Vowel (E, U)?
* **The Percussion Test:** Identify lines that lack rhythm. Suggest adding Plosives (K, T, P, B) to give the Suno singer something to "bite" into.

**2. Syllabic Density (Contrast)**
* *Goal:* Ensure dynamic range between sections.
* **Analysis:** Compare the "Words Per Second" implied by the Verse vs. the Chorus.
* *Rule:* A Chorus should usually have *fewer* words held for *longer* durations than the Verse.

**3. The "Cinema" Audit**
* *Goal:* Ensure visual grounding.
* **List the Props:** Extract every physical object mentioned in the song.
* *Score:* 0-3 Objects (F - Too Abstract), 4-6 (C - Average), 7+ (A - Immersive).

Provide a breakdown of why the score is what it is, and what the score WOULD be if the user applies your improvements.
`)
	if parentLyrics != "" {
		fmt.Fprintf(&b, `
### SECTION 3: VERSION COMPARISON
This song is a revision of an earlier draft. Compare it against the previous version below and fill in the comparison verdict: what improved, what regressed, and the estimated score delta.

Previous Version Lyrics:
%s
`, parentLyrics)
	}
	return b.String()
}

// buildVariationPrompt asks for exactly two alternative takes.
func buildVariationPrompt(snap song.Snapshot) string {
	return fmt.Sprintf(`Generate 2 distinct variations of this song to explore different creative directions.

Original Title: %s
Original Style: %s
Original Lyrics:
%s

Create two variations:
1. **Variation A:** Focus on **Rhythmic/Flow Change** (e.g., faster phrasing, more syncopation, different meter).
2. **Variation B:** Focus on **Structural/Tonal Change** (e.g., Darker tone, Extended Bridge, Different Hook, or "Strip it back").

Maintain the core theme but change the execution significantly. Use Suno metatags strictly.`,
		snap.Title, snap.StylePrompt, snap.Lyrics)
}

// buildRewritePrompt renders the rewrite request around the accepted
// critique.
func buildRewritePrompt(lyrics, critiqueJSON string) string {
	return fmt.Sprintf(`Rewrite the following song lyrics to implement the improvements suggested in the analysis.

Original Lyrics:
%s

Critique to Apply:
%s

Sonic Goals:
- Fix phonetic issues (open vowels in chorus).
- Fix density issues (ensure contrast).
- Add more "Furniture" (visual objects).

Return the full, updated lyrics and a brief explanation of what changed.`, lyrics, critiqueJSON)
}

// buildInferencePrompt asks for input suggestions based on a reference
// artist and optional reference song.
func buildInferencePrompt(artist, songRef string) string {
	return fmt.Sprintf(`Based on the Artist Reference: %q and optional Song Reference: %q,
infer the best possible inputs for a Suno v5 song generation.

Return specific recommendations for:
- Topic (A typical theme for this artist/song)
- Mood
- Genre (Specific sub-genres)
- Vocals (e.g. "Breathy female vocals", "Autotuned male rap")
- Syllable Pattern (Typical meter)
- Instruments (A list of 5-8 key instruments that define this sound)

Be precise. If the song reference is provided, strictly follow that song's vibe.`, artist, songRef)
}
