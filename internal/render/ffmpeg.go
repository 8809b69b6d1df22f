package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/clipforge/pipeline/internal/config"
	"github.com/clipforge/pipeline/pkg/logger"
)

// Runner shells out to ffmpeg/ffprobe, one operation per invocation.
type Runner struct {
	ffmpegPath  string
	ffprobePath string
	tempRoot    string
	logger      logger.Logger
}

func NewRunner(cfg *config.Config, logger logger.Logger) *Runner {
	ffmpegPath := cfg.Render.FFmpegPath
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	ffprobePath := cfg.Render.FFprobePath
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Runner{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		tempRoot:    cfg.Render.TempDir,
		logger:      logger,
	}
}

func (r *Runner) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, r.ffmpegPath, append([]string{"-y", "-hide_banner", "-loglevel", "error"}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %v: %s", err, truncate(stderr.String(), 512))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// TempDir creates a per-job scratch directory and returns its cleanup func.
func (r *Runner) TempDir(prefix string) (string, func(), error) {
	dir, err := os.MkdirTemp(r.tempRoot, prefix)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			r.logger.Errorf("failed to remove temp dir %s: %v", dir, err)
		}
	}
	return dir, cleanup, nil
}
