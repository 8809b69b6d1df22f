package captions

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/pkg/logger"
)

// Render modes.
const (
	ModeBurn       = "burn"
	ModeSinglePass = "single-pass"
	ModeChunked    = "chunked"
)

// Pause between chunk renders so memory from the previous chunk's frame
// sequence is actually released before the next begins.
const chunkPause = 500 * time.Millisecond

// VideoOps is the slice of the transcoder the caption engine needs.
// *render.Runner satisfies it.
type VideoOps interface {
	CutSegment(ctx context.Context, in, out string, start, duration float64) error
	Concat(ctx context.Context, parts []string, out string) error
	OverlayFrames(ctx context.Context, in, framesDir string, fps int, out string) error
	BurnSubtitles(ctx context.Context, in, assPath, out string) error
}

// RenderMode picks the cheapest strategy for a style and duration.
func RenderMode(style Style, duration float64) string {
	if !style.Animated {
		return ModeBurn
	}
	if duration <= SinglePassMaxSeconds {
		return ModeSinglePass
	}
	return ModeChunked
}

type Engine struct {
	ops    VideoOps
	frames FrameRenderer
	logger logger.Logger
}

func NewEngine(ops VideoOps, frames FrameRenderer, logger logger.Logger) *Engine {
	return &Engine{
		ops:    ops,
		frames: frames,
		logger: logger,
	}
}

// Render burns captions onto in and writes the result to out. workDir must
// be a scratch directory owned by the caller. Caption failures degrade to
// the uncaptioned source: the returned bool reports whether that happened.
func (e *Engine) Render(ctx context.Context, in, out, workDir string, words []models.Word, style Style, duration float64, width, height int) (bool, error) {
	if err := e.render(ctx, in, out, workDir, words, style, duration, width, height); err != nil {
		e.logger.Warnf("caption render failed, falling back to uncaptioned source: %v", err)
		if copyErr := copyFile(in, out); copyErr != nil {
			return false, fmt.Errorf("caption fallback copy failed: %w", copyErr)
		}
		return true, nil
	}
	return false, nil
}

func (e *Engine) render(ctx context.Context, in, out, workDir string, words []models.Word, style Style, duration float64, width, height int) error {
	switch RenderMode(style, duration) {
	case ModeBurn:
		return e.renderBurn(ctx, in, out, workDir, words, style, width, height)
	case ModeSinglePass:
		return e.renderSinglePass(ctx, in, out, workDir, words, style, duration, width, height)
	default:
		return e.renderChunked(ctx, in, out, workDir, words, style, duration, width, height)
	}
}

func (e *Engine) renderBurn(ctx context.Context, in, out, workDir string, words []models.Word, style Style, width, height int) error {
	cues := BuildCues(words, style.MaxChars)
	assPath := filepath.Join(workDir, "captions.ass")
	if err := os.WriteFile(assPath, []byte(FormatASS(cues, style, width, height)), 0o644); err != nil {
		return fmt.Errorf("failed to write ass file: %w", err)
	}
	return e.ops.BurnSubtitles(ctx, in, assPath, out)
}

func (e *Engine) renderSinglePass(ctx context.Context, in, out, workDir string, words []models.Word, style Style, duration float64, width, height int) error {
	framesDir := filepath.Join(workDir, "frames")
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create frames dir: %w", err)
	}
	if _, err := e.frames.RenderFrames(words, style, duration, width, height, framesDir); err != nil {
		return err
	}
	return e.ops.OverlayFrames(ctx, in, framesDir, DefaultFPS, out)
}

func (e *Engine) renderChunked(ctx context.Context, in, out, workDir string, words []models.Word, style Style, duration float64, width, height int) error {
	chunks := PlanChunks(words, duration)
	parts := make([]string, 0, len(chunks))

	for _, chunk := range chunks {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		chunkDir := filepath.Join(workDir, fmt.Sprintf("chunk_%03d", chunk.Index))
		framesDir := filepath.Join(chunkDir, "frames")
		if err := os.MkdirAll(framesDir, 0o755); err != nil {
			return fmt.Errorf("failed to create chunk dir: %w", err)
		}

		chunkIn := filepath.Join(chunkDir, "input.mp4")
		if err := e.ops.CutSegment(ctx, in, chunkIn, chunk.Start, chunk.Duration()); err != nil {
			return fmt.Errorf("chunk %d cut: %w", chunk.Index, err)
		}
		if _, err := e.frames.RenderFrames(chunk.Words, style, chunk.Duration(), width, height, framesDir); err != nil {
			return fmt.Errorf("chunk %d frames: %w", chunk.Index, err)
		}
		chunkOut := filepath.Join(chunkDir, "output.mp4")
		if err := e.ops.OverlayFrames(ctx, chunkIn, framesDir, DefaultFPS, chunkOut); err != nil {
			return fmt.Errorf("chunk %d overlay: %w", chunk.Index, err)
		}
		parts = append(parts, chunkOut)

		os.RemoveAll(framesDir)
		runtime.GC()
		time.Sleep(chunkPause)
	}

	return e.ops.Concat(ctx, parts, out)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
