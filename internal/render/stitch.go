package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CutSegment re-encodes a window of the input for frame-accurate cuts.
func (r *Runner) CutSegment(ctx context.Context, in, out string, start, duration float64) error {
	return r.run(ctx,
		"-ss", fmt.Sprintf("%.3f", start),
		"-i", in,
		"-t", fmt.Sprintf("%.3f", duration),
		"-c:v", "libx264", "-preset", "fast", "-crf", "23",
		"-c:a", "aac",
		out,
	)
}

// Concat joins parts losslessly with the concat demuxer. All parts must
// share codec parameters.
func (r *Runner) Concat(ctx context.Context, parts []string, out string) error {
	if len(parts) == 0 {
		return fmt.Errorf("nothing to concat")
	}
	if len(parts) == 1 {
		return copyFile(parts[0], out)
	}
	listPath := filepath.Join(filepath.Dir(out), "concat_list.txt")
	var b strings.Builder
	for _, p := range parts {
		fmt.Fprintf(&b, "file '%s'\n", p)
	}
	if err := os.WriteFile(listPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}
	defer os.Remove(listPath)

	return r.run(ctx,
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		out,
	)
}

// CrossfadeOffsets returns the xfade offset for each transition. Offset i is
// the accumulated duration of the first i+1 parts minus the fades already
// consumed.
func CrossfadeOffsets(durations []float64, fade float64) []float64 {
	if len(durations) < 2 {
		return nil
	}
	offsets := make([]float64, 0, len(durations)-1)
	elapsed := 0.0
	for i := 0; i < len(durations)-1; i++ {
		elapsed += durations[i] - fade
		offsets = append(offsets, elapsed)
	}
	return offsets
}

// CrossfadeDuration is the output length: each of the n-1 transitions
// overlaps one fade worth of footage.
func CrossfadeDuration(durations []float64, fade float64) float64 {
	var sum float64
	for _, d := range durations {
		sum += d
	}
	return sum - float64(len(durations)-1)*fade
}

// CrossfadeConcat joins parts with video xfade and audio acrossfade
// transitions. Falls back to a plain concat for a single part.
func (r *Runner) CrossfadeConcat(ctx context.Context, parts []string, durations []float64, fade float64, out string) error {
	if len(parts) != len(durations) {
		return fmt.Errorf("parts/durations mismatch: %d != %d", len(parts), len(durations))
	}
	if len(parts) == 1 {
		return copyFile(parts[0], out)
	}

	args := make([]string, 0, len(parts)*2+8)
	for _, p := range parts {
		args = append(args, "-i", p)
	}

	offsets := CrossfadeOffsets(durations, fade)
	var graph strings.Builder
	prevV, prevA := "[0:v]", "[0:a]"
	for i := 1; i < len(parts); i++ {
		outV := fmt.Sprintf("[v%d]", i)
		outA := fmt.Sprintf("[a%d]", i)
		fmt.Fprintf(&graph, "%s[%d:v]xfade=transition=fade:duration=%.3f:offset=%.3f%s;",
			prevV, i, fade, offsets[i-1], outV)
		fmt.Fprintf(&graph, "%s[%d:a]acrossfade=d=%.3f%s", prevA, i, fade, outA)
		if i < len(parts)-1 {
			graph.WriteString(";")
		}
		prevV, prevA = outV, outA
	}

	args = append(args,
		"-filter_complex", graph.String(),
		"-map", prevV, "-map", prevA,
		"-c:v", "libx264", "-preset", "fast", "-crf", "23",
		"-c:a", "aac",
		out,
	)
	return r.run(ctx, args...)
}

// copyFile streams src to dst. Inputs here are videos, so the copy must not
// buffer the whole file in memory.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy to %s: %w", dst, err)
	}
	return out.Close()
}
