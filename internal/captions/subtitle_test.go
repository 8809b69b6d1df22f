package captions

import (
	"strings"
	"testing"

	"github.com/clipforge/pipeline/internal/models"
)

var sampleWords = []models.Word{
	{Text: "Welcome", Start: 0.0, End: 0.4},
	{Text: "back", Start: 0.45, End: 0.7},
	{Text: "everyone.", Start: 0.75, End: 1.2},
	{Text: "Today", Start: 1.5, End: 1.9},
	{Text: "we", Start: 1.95, End: 2.1},
	{Text: "ship", Start: 2.15, End: 2.5},
}

// TestBuildCuesBreaksOnSentenceEnd verifies sentence punctuation closes a
// cue even under the character budget.
func TestBuildCuesBreaksOnSentenceEnd(t *testing.T) {
	cues := BuildCues(sampleWords, 42)
	if len(cues) != 2 {
		t.Fatalf("cues = %d, want 2", len(cues))
	}
	if cues[0].Text != "Welcome back everyone." {
		t.Fatalf("cue[0] = %q", cues[0].Text)
	}
	if cues[0].Start != 0.0 || cues[0].End != 1.2 {
		t.Fatalf("cue[0] timing = %f-%f", cues[0].Start, cues[0].End)
	}
	if cues[1].Text != "Today we ship" {
		t.Fatalf("cue[1] = %q", cues[1].Text)
	}
}

// TestBuildCuesRespectsCharBudget forces wrapping on long runs.
func TestBuildCuesRespectsCharBudget(t *testing.T) {
	words := make([]models.Word, 20)
	for i := range words {
		words[i] = models.Word{Text: "sometext", Start: float64(i), End: float64(i) + 0.5}
	}
	cues := BuildCues(words, 20)
	for i, cue := range cues {
		if len(cue.Text) > 20 {
			t.Fatalf("cue %d length %d exceeds budget: %q", i, len(cue.Text), cue.Text)
		}
	}
}

// TestFormatSRT checks numbering and comma millisecond timestamps.
func TestFormatSRT(t *testing.T) {
	out := FormatSRT(BuildCues(sampleWords, 42))
	if !strings.HasPrefix(out, "1\n00:00:00,000 --> 00:00:01,200\nWelcome back everyone.\n") {
		t.Fatalf("srt output:\n%s", out)
	}
	if !strings.Contains(out, "2\n00:00:01,500 --> 00:00:02,500\n") {
		t.Fatalf("srt missing second cue:\n%s", out)
	}
}

// TestFormatVTT checks the header and dot millisecond timestamps.
func TestFormatVTT(t *testing.T) {
	out := FormatVTT(BuildCues(sampleWords, 42))
	if !strings.HasPrefix(out, "WEBVTT\n\n") {
		t.Fatalf("vtt missing header:\n%s", out)
	}
	if !strings.Contains(out, "00:00:00.000 --> 00:00:01.200") {
		t.Fatalf("vtt timestamps wrong:\n%s", out)
	}
}

// TestFormatASSColors verifies the BGR color order ASS uses.
func TestFormatASSColors(t *testing.T) {
	if got := hexToASS("#FF8000"); got != "&H000080FF" {
		t.Fatalf("hexToASS = %s, want &H000080FF", got)
	}

	style := GetStyle("subtitle")
	style.Fill = "#FF0000"
	out := FormatASS(BuildCues(sampleWords, 42), style, 1080, 1920)
	if !strings.Contains(out, "&H000000FF") {
		t.Fatalf("ass missing red fill in BGR order:\n%s", out)
	}
	if !strings.Contains(out, "PlayResX: 1080") || !strings.Contains(out, "PlayResY: 1920") {
		t.Fatalf("ass missing play resolution:\n%s", out)
	}
	if !strings.Contains(out, "Dialogue: 0,0:00:00.00,0:00:01.20,Default") {
		t.Fatalf("ass dialogue timing wrong:\n%s", out)
	}
}

// TestSRTAndASSCarrySameCues renders the same cue list in both formats and
// checks neither drops, merges or re-times a line, so a static caption burn
// and the sidecar SRT stay in sync.
func TestSRTAndASSCarrySameCues(t *testing.T) {
	cues := BuildCues(sampleWords, 42)
	srt := FormatSRT(cues)
	ass := FormatASS(cues, GetStyle("subtitle"), 1920, 1080)

	if got := strings.Count(srt, " --> "); got != len(cues) {
		t.Fatalf("srt cue count = %d, want %d", got, len(cues))
	}
	if got := strings.Count(ass, "Dialogue: "); got != len(cues) {
		t.Fatalf("ass dialogue count = %d, want %d", got, len(cues))
	}
	for _, cue := range cues {
		if !strings.Contains(srt, "\n"+cue.Text+"\n") {
			t.Fatalf("srt missing cue text %q:\n%s", cue.Text, srt)
		}
		if !strings.Contains(ass, ",,0,0,0,,"+cue.Text+"\n") {
			t.Fatalf("ass missing cue text %q:\n%s", cue.Text, ass)
		}
	}
	// Same instants, two clock formats.
	if !strings.Contains(srt, "00:00:01,500") || !strings.Contains(ass, "0:00:01.50") {
		t.Fatalf("formats disagree on cue timing:\nsrt:\n%s\nass:\n%s", srt, ass)
	}
}

// TestFormatASSAlignment maps positions onto ASS alignment codes.
func TestFormatASSAlignment(t *testing.T) {
	bottom := GetStyle("subtitle")
	if out := FormatASS(nil, bottom, 1080, 1920); !strings.Contains(out, ",2,40,40,60") {
		t.Fatalf("bottom style should use alignment 2:\n%s", out)
	}
	center := GetStyle("neon")
	if out := FormatASS(nil, center, 1080, 1920); !strings.Contains(out, ",5,40,40,60") {
		t.Fatalf("center style should use alignment 5:\n%s", out)
	}
}
