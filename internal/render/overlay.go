package render

import (
	"context"
	"fmt"
	"path/filepath"
)

// BurnSubtitles renders an ASS subtitle file directly onto the video. This
// is the cheap path for static caption styles.
func (r *Runner) BurnSubtitles(ctx context.Context, in, assPath, out string) error {
	return r.run(ctx,
		"-i", in,
		"-vf", fmt.Sprintf("ass=%s", assPath),
		"-c:v", "libx264", "-preset", "fast", "-crf", "23",
		"-c:a", "copy",
		out,
	)
}

// OverlayFrames composites a numbered PNG sequence over the video, used for
// animated caption styles.
func (r *Runner) OverlayFrames(ctx context.Context, in, framesDir string, fps int, out string) error {
	pattern := filepath.Join(framesDir, "frame_%05d.png")
	return r.run(ctx,
		"-i", in,
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", pattern,
		"-filter_complex", "[0:v][1:v]overlay=0:0:shortest=1",
		"-c:v", "libx264", "-preset", "fast", "-crf", "23",
		"-c:a", "copy",
		out,
	)
}
