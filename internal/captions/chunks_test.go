package captions

import (
	"math"
	"testing"

	"github.com/clipforge/pipeline/internal/models"
)

func evenWords(count int, spacing float64) []models.Word {
	words := make([]models.Word, count)
	for i := range words {
		start := float64(i) * spacing
		words[i] = models.Word{Text: "word", Start: start, End: start + spacing*0.8}
	}
	return words
}

// TestPlanChunksCoversWholeDuration verifies chunks tile the timeline with
// no gaps or overlap.
func TestPlanChunksCoversWholeDuration(t *testing.T) {
	total := 60.0
	chunks := PlanChunks(evenWords(120, 0.5), total)
	if len(chunks) < 6 {
		t.Fatalf("chunks = %d, want at least 6 for 60s", len(chunks))
	}
	if chunks[0].Start != 0 {
		t.Fatalf("first chunk starts at %f, want 0", chunks[0].Start)
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start != chunks[i-1].End {
			t.Fatalf("gap between chunk %d and %d: %f != %f", i-1, i, chunks[i-1].End, chunks[i].Start)
		}
	}
	last := chunks[len(chunks)-1]
	if math.Abs(last.End-total) > 1e-9 {
		t.Fatalf("last chunk ends at %f, want %f", last.End, total)
	}
}

// TestPlanChunksStaysNearTarget keeps boundaries within the search window
// of the nominal chunk size.
func TestPlanChunksStaysNearTarget(t *testing.T) {
	chunks := PlanChunks(evenWords(100, 0.5), 40.0)
	for i, c := range chunks[:len(chunks)-1] {
		if c.Duration() < ChunkSeconds-boundarySearchWindow-1e-9 || c.Duration() > ChunkSeconds+boundarySearchWindow+1e-9 {
			t.Fatalf("chunk %d duration = %f, want within %f of %f", i, c.Duration(), boundarySearchWindow, ChunkSeconds)
		}
	}
}

// TestPlanChunksPrefersSentenceEnd nudges the boundary to a sentence close
// near the 8s target.
func TestPlanChunksPrefersSentenceEnd(t *testing.T) {
	words := evenWords(60, 0.5)
	// Sentence end at 7.4s, inside the +-2s window around the 8s target.
	words[14].Text = "done."
	sentenceEnd := words[14].End

	chunks := PlanChunks(words, 30.0)
	if math.Abs(chunks[0].End-sentenceEnd) > 1e-9 {
		t.Fatalf("first boundary = %f, want sentence end %f", chunks[0].End, sentenceEnd)
	}
}

// TestChunkWordsAreRebased checks per-chunk word timings start from zero.
func TestChunkWordsAreRebased(t *testing.T) {
	chunks := PlanChunks(evenWords(60, 0.5), 30.0)
	if len(chunks) < 2 {
		t.Fatal("expected multiple chunks")
	}
	second := chunks[1]
	if len(second.Words) == 0 {
		t.Fatal("second chunk has no words")
	}
	for _, w := range second.Words {
		if w.Start < 0 || w.End > second.Duration()+1e-6 {
			t.Fatalf("word timing %f-%f outside rebased chunk of %f", w.Start, w.End, second.Duration())
		}
	}
	if second.Words[0].Start > 1.0 {
		t.Fatalf("first word of chunk starts at %f, expected near zero", second.Words[0].Start)
	}
}

// TestRenderModeThresholds pins the strategy selection.
func TestRenderModeThresholds(t *testing.T) {
	static := GetStyle("subtitle")
	animated := GetStyle("karaoke")

	if got := RenderMode(static, 120); got != ModeBurn {
		t.Fatalf("static style mode = %s, want burn", got)
	}
	if got := RenderMode(animated, 15); got != ModeSinglePass {
		t.Fatalf("15s animated mode = %s, want single-pass", got)
	}
	if got := RenderMode(animated, 15.1); got != ModeChunked {
		t.Fatalf("15.1s animated mode = %s, want chunked", got)
	}
}
