package captions

import (
	"math"

	"github.com/clipforge/pipeline/internal/models"
)

const (
	// Videos at or under this length render animated captions in one pass.
	SinglePassMaxSeconds = 15.0
	// Chunk window for longer videos.
	ChunkSeconds = 8.0

	boundarySearchWindow = 2.0
)

// Chunk is one render window. Words carry timings rebased to the chunk
// start so frames can be rendered independently.
type Chunk struct {
	Index int
	Start float64
	End   float64
	Words []models.Word
}

func (c Chunk) Duration() float64 {
	return c.End - c.Start
}

// PlanChunks splits a transcript into roughly ChunkSeconds windows, nudging
// each boundary toward a sentence end or a long silence near the target so
// captions do not cut mid-phrase.
func PlanChunks(words []models.Word, totalDuration float64) []Chunk {
	chunks := make([]Chunk, 0, int(totalDuration/ChunkSeconds)+1)
	start := 0.0
	index := 0
	for start < totalDuration {
		target := start + ChunkSeconds
		end := totalDuration
		if target < totalDuration {
			end = findBoundary(words, target, totalDuration)
			if end <= start {
				end = math.Min(target, totalDuration)
			}
		}
		chunks = append(chunks, Chunk{
			Index: index,
			Start: start,
			End:   end,
			Words: wordsInWindow(words, start, end),
		})
		start = end
		index++
	}
	return chunks
}

// findBoundary scores word ends within the search window around target.
// Sentence ends win big, long pauses help, distance from the target costs.
func findBoundary(words []models.Word, target, totalDuration float64) float64 {
	best := target
	bestScore := math.Inf(-1)
	for i, w := range words {
		if w.End < target-boundarySearchWindow || w.End > target+boundarySearchWindow {
			continue
		}
		score := 0.0
		if isSentenceEnd(w.Text) {
			score += 10
		}
		if i+1 < len(words) {
			gap := words[i+1].Start - w.End
			score += math.Min(gap*2, 5)
		}
		score -= 0.5 * math.Abs(w.End-target)
		if score > bestScore {
			bestScore = score
			best = w.End
		}
	}
	return math.Min(best, totalDuration)
}

func wordsInWindow(words []models.Word, start, end float64) []models.Word {
	out := make([]models.Word, 0)
	for _, w := range words {
		if w.End <= start || w.Start >= end {
			continue
		}
		shifted := w
		shifted.Start = math.Max(w.Start-start, 0)
		shifted.End = w.End - start
		out = append(out, shifted)
	}
	return out
}
