package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type VideoInfo struct {
	Width    int
	Height   int
	Duration float64
	FPS      float64
}

// Probe reads stream and container metadata with ffprobe.
func (r *Runner) Probe(ctx context.Context, path string) (*VideoInfo, error) {
	cmd := exec.CommandContext(ctx, r.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,avg_frame_rate",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %v: %s", err, truncate(stderr.String(), 256))
	}

	info := &VideoInfo{}
	for _, line := range strings.Split(strings.TrimSpace(stdout.String()), "\n") {
		fields := strings.Split(strings.TrimSpace(line), ",")
		if len(fields) >= 3 {
			info.Width, _ = strconv.Atoi(fields[0])
			info.Height, _ = strconv.Atoi(fields[1])
			info.FPS = parseFrameRate(fields[2])
			continue
		}
		if len(fields) == 1 && fields[0] != "" {
			info.Duration, _ = strconv.ParseFloat(fields[0], 64)
		}
	}
	if info.Width == 0 || info.Height == 0 {
		return nil, fmt.Errorf("ffprobe returned no video stream for %s", path)
	}
	return info, nil
}

func parseFrameRate(raw string) float64 {
	parts := strings.Split(raw, "/")
	if len(parts) == 2 {
		num, err1 := strconv.ParseFloat(parts[0], 64)
		den, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 == nil && err2 == nil && den != 0 {
			return num / den
		}
		return 0
	}
	fps, _ := strconv.ParseFloat(raw, 64)
	return fps
}
