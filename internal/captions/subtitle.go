package captions

import (
	"fmt"
	"strings"

	"github.com/clipforge/pipeline/internal/models"
)

// Cue is one on-screen subtitle with absolute timings.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

func isSentenceEnd(text string) bool {
	return strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?")
}

// BuildCues groups words into display lines, breaking on sentence ends and
// the character budget.
func BuildCues(words []models.Word, maxChars int) []Cue {
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	cues := make([]Cue, 0)
	var current []models.Word
	length := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		parts := make([]string, len(current))
		for i, w := range current {
			parts[i] = w.Text
		}
		cues = append(cues, Cue{
			Start: current[0].Start,
			End:   current[len(current)-1].End,
			Text:  strings.Join(parts, " "),
		})
		current = nil
		length = 0
	}

	for _, w := range words {
		wordLen := len(w.Text)
		if length > 0 && length+1+wordLen > maxChars {
			flush()
		}
		current = append(current, w)
		if length > 0 {
			length++
		}
		length += wordLen
		if isSentenceEnd(w.Text) {
			flush()
		}
	}
	flush()
	return cues
}

func formatSRTTime(seconds float64) string {
	ms := int(seconds*1000 + 0.5)
	h := ms / 3600000
	m := ms % 3600000 / 60000
	s := ms % 60000 / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}

func formatVTTTime(seconds float64) string {
	return strings.Replace(formatSRTTime(seconds), ",", ".", 1)
}

// FormatSRT renders cues as a SubRip file.
func FormatSRT(cues []Cue) string {
	var b strings.Builder
	for i, cue := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1, formatSRTTime(cue.Start), formatSRTTime(cue.End), cue.Text)
	}
	return b.String()
}

// FormatVTT renders cues as WebVTT.
func FormatVTT(cues []Cue) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, cue := range cues {
		fmt.Fprintf(&b, "%s --> %s\n%s\n\n",
			formatVTTTime(cue.Start), formatVTTTime(cue.End), cue.Text)
	}
	return b.String()
}

// hexToASS converts #RRGGBB to the &HAABBGGRR form ASS expects.
func hexToASS(hex string) string {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return "&H00FFFFFF"
	}
	r, g, b := hex[0:2], hex[2:4], hex[4:6]
	return fmt.Sprintf("&H00%s%s%s", strings.ToUpper(b), strings.ToUpper(g), strings.ToUpper(r))
}

func formatASSTime(seconds float64) string {
	cs := int(seconds*100 + 0.5)
	h := cs / 360000
	m := cs % 360000 / 6000
	s := cs % 6000 / 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs%100)
}

var assAlignment = map[string]int{
	PositionBottom: 2,
	PositionCenter: 5,
}

// FormatASS renders a full ASS subtitle script for burning.
func FormatASS(cues []Cue, style Style, width, height int) string {
	alignment, ok := assAlignment[style.Position]
	if !ok {
		alignment = 2
	}
	fontName := strings.TrimSuffix(style.FontFile, ".ttf")

	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "PlayResX: %d\nPlayResY: %d\n\n", width, height)
	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, OutlineColour, BackColour, Bold, Italic, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV\n")
	fmt.Fprintf(&b, "Style: Default,%s,%.0f,%s,%s,&H80000000,0,0,1,3,1,%d,40,40,60\n\n",
		fontName, style.FontSize, hexToASS(style.Fill), hexToASS(style.Outline), alignment)
	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, cue := range cues {
		text := strings.ReplaceAll(cue.Text, "\n", "\\N")
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASSTime(cue.Start), formatASSTime(cue.End), text)
	}
	return b.String()
}
