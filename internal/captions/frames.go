package captions

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/clipforge/pipeline/internal/config"
	"github.com/clipforge/pipeline/internal/models"
	"github.com/fogleman/gg"
)

// DefaultFPS is the overlay frame rate for animated styles.
const DefaultFPS = 30

const popDuration = 0.15

// FrameRenderer rasterizes caption overlays as a transparent PNG sequence.
type FrameRenderer interface {
	RenderFrames(words []models.Word, style Style, duration float64, width, height int, outDir string) (int, error)
}

type ggFrameRenderer struct {
	fontDir string
}

func NewFrameRenderer(cfg *config.Config) FrameRenderer {
	return &ggFrameRenderer{fontDir: cfg.Captions.FontDir}
}

func (r *ggFrameRenderer) RenderFrames(words []models.Word, style Style, duration float64, width, height int, outDir string) (int, error) {
	cues := BuildCues(words, style.MaxChars)
	frameCount := int(math.Ceil(duration * DefaultFPS))
	fontPath, err := resolveFontPath(r.fontDir, style.FontFile)
	if err != nil {
		return 0, err
	}

	for frame := 0; frame < frameCount; frame++ {
		t := float64(frame) / DefaultFPS
		dc := gg.NewContext(width, height)
		if err := dc.LoadFontFace(fontPath, style.FontSize); err != nil {
			return 0, fmt.Errorf("failed to load font %s: %w", fontPath, err)
		}
		r.drawFrame(dc, cues, words, style, t, width, height)
		path := filepath.Join(outDir, fmt.Sprintf("frame_%05d.png", frame))
		if err := dc.SavePNG(path); err != nil {
			return 0, fmt.Errorf("failed to save frame %d: %w", frame, err)
		}
	}
	return frameCount, nil
}

// resolveFontPath prefers the style's named face but falls back to any font
// shipped in the font directory, so a deployment carrying only a system font
// set still renders animated captions.
func resolveFontPath(fontDir, fontFile string) (string, error) {
	styled := filepath.Join(fontDir, fontFile)
	if _, err := os.Stat(styled); err == nil {
		return styled, nil
	}
	entries, err := os.ReadDir(fontDir)
	if err != nil {
		return "", fmt.Errorf("failed to read font dir %s: %w", fontDir, err)
	}
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".ttf" || ext == ".otf" {
			return filepath.Join(fontDir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("no usable font in %s for %s", fontDir, fontFile)
}

func (r *ggFrameRenderer) drawFrame(dc *gg.Context, cues []Cue, words []models.Word, style Style, t float64, width, height int) {
	cue := activeCue(cues, t)
	if cue == nil {
		return
	}

	y := float64(height) * 0.85
	if style.Position == PositionCenter {
		y = float64(height) * 0.5
	}
	x := float64(width) / 2

	alpha := 1.0
	if style.Animation == AnimationFade {
		alpha = fadeAlpha(cue, t)
	}

	if style.Animation == AnimationKaraoke {
		r.drawKaraoke(dc, cue, words, style, t, x, y)
		return
	}

	scale := 1.0
	if style.Animation == AnimationPop {
		scale = popScale(cue, t)
	}

	dc.Push()
	dc.ScaleAbout(scale, scale, x, y)
	drawOutlined(dc, cue.Text, x, y, style.Outline, style.Fill, alpha)
	dc.Pop()
}

// drawKaraoke colors the word being spoken with the highlight color.
func (r *ggFrameRenderer) drawKaraoke(dc *gg.Context, cue *Cue, words []models.Word, style Style, t, x, y float64) {
	parts := strings.Fields(cue.Text)
	widths := make([]float64, len(parts))
	total := 0.0
	spaceW, _ := dc.MeasureString(" ")
	for i, p := range parts {
		w, _ := dc.MeasureString(p)
		widths[i] = w
		total += w
		if i > 0 {
			total += spaceW
		}
	}

	cursor := x - total/2
	wordIdx := 0
	for _, w := range words {
		if w.Start >= cue.Start && w.End <= cue.End+1e-9 {
			if wordIdx >= len(parts) {
				break
			}
			fill := style.Fill
			if t >= w.Start && t < w.End {
				fill = style.Highlight
			}
			drawOutlinedLeft(dc, parts[wordIdx], cursor, y, style.Outline, fill)
			cursor += widths[wordIdx] + spaceW
			wordIdx++
		}
	}
}

func activeCue(cues []Cue, t float64) *Cue {
	for i := range cues {
		if t >= cues[i].Start && t < cues[i].End {
			return &cues[i]
		}
	}
	return nil
}

func popScale(cue *Cue, t float64) float64 {
	elapsed := t - cue.Start
	if elapsed >= popDuration {
		return 1.0
	}
	// Overshoot to 1.15 then settle.
	progress := elapsed / popDuration
	return 1.0 + 0.15*math.Sin(progress*math.Pi)
}

func fadeAlpha(cue *Cue, t float64) float64 {
	const fade = 0.2
	in := (t - cue.Start) / fade
	out := (cue.End - t) / fade
	return math.Max(0, math.Min(1, math.Min(in, out)))
}

func drawOutlined(dc *gg.Context, text string, x, y float64, outline, fill string, alpha float64) {
	or, og, ob := parseHex(outline)
	fr, fg, fb := parseHex(fill)
	for dx := -2.0; dx <= 2; dx += 2 {
		for dy := -2.0; dy <= 2; dy += 2 {
			if dx == 0 && dy == 0 {
				continue
			}
			dc.SetRGBA(or, og, ob, alpha)
			dc.DrawStringAnchored(text, x+dx, y+dy, 0.5, 0.5)
		}
	}
	dc.SetRGBA(fr, fg, fb, alpha)
	dc.DrawStringAnchored(text, x, y, 0.5, 0.5)
}

func drawOutlinedLeft(dc *gg.Context, text string, x, y float64, outline, fill string) {
	or, og, ob := parseHex(outline)
	fr, fg, fb := parseHex(fill)
	for dx := -2.0; dx <= 2; dx += 2 {
		for dy := -2.0; dy <= 2; dy += 2 {
			if dx == 0 && dy == 0 {
				continue
			}
			dc.SetRGB(or, og, ob)
			dc.DrawStringAnchored(text, x+dx, y+dy, 0, 0.5)
		}
	}
	dc.SetRGB(fr, fg, fb)
	dc.DrawStringAnchored(text, x, y, 0, 0.5)
}

func parseHex(hex string) (float64, float64, float64) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 1, 1, 1
	}
	var r, g, b int
	fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	return float64(r) / 255, float64(g) / 255, float64(b) / 255
}
