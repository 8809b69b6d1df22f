package render

import (
	"context"
	"fmt"
)

// Thumbnail grabs a single frame at the given timestamp.
func (r *Runner) Thumbnail(ctx context.Context, in, out string, at float64) error {
	return r.run(ctx,
		"-ss", fmt.Sprintf("%.3f", at),
		"-i", in,
		"-vframes", "1",
		"-vf", "scale=640:-2",
		out,
	)
}
