package render

import (
	"context"
	"fmt"
	"strings"
)

// Watermark burns a text overlay into the bottom-right corner. Applied to
// every export below a paid tier, chunked renders included.
func (r *Runner) Watermark(ctx context.Context, in, out, text string) error {
	escaped := strings.ReplaceAll(text, "'", `\'`)
	filter := fmt.Sprintf(
		"drawtext=text='%s':fontsize=24:fontcolor=white@0.6:box=1:boxcolor=black@0.3:boxborderw=8:x=w-tw-20:y=h-th-20",
		escaped,
	)
	return r.run(ctx,
		"-i", in,
		"-vf", filter,
		"-c:v", "libx264", "-preset", "fast", "-crf", "23",
		"-c:a", "copy",
		out,
	)
}
