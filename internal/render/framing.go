package render

import (
	"context"
	"fmt"
	"math"
)

const (
	ModeCrop  = "crop"
	ModePad   = "pad"
	ModeSmart = "smart"
)

// Output dimensions per supported aspect ratio.
var targetDims = map[string][2]int{
	"9:16": {1080, 1920},
	"16:9": {1920, 1080},
	"1:1":  {1080, 1080},
	"4:5":  {1080, 1350},
}

// Region is a normalized (0..1) rectangle on the source frame, typically a
// detected face cluster.
type Region struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// FramePlan is a computed aspect conversion: crop window on the source plus
// the final scale, or a pad when no cropping is wanted.
type FramePlan struct {
	Mode     string
	CropW    int
	CropH    int
	CropX    int
	CropY    int
	OutW     int
	OutH     int
	PadColor string
}

// PlanFrame computes the conversion for one source/target pair. Smart mode
// centers the crop window on the face region when one is known and falls
// back to a plain center crop otherwise. Vertical crops are biased upward
// since subjects sit in the upper part of the frame.
func PlanFrame(srcW, srcH int, ratio, mode string, face *Region) (*FramePlan, error) {
	dims, ok := targetDims[ratio]
	if !ok {
		return nil, fmt.Errorf("unsupported aspect ratio %q", ratio)
	}
	outW, outH := dims[0], dims[1]
	plan := &FramePlan{Mode: mode, OutW: outW, OutH: outH}

	if mode == ModePad {
		return plan, nil
	}

	srcAR := float64(srcW) / float64(srcH)
	targetAR := float64(outW) / float64(outH)

	if srcAR > targetAR {
		// Crop horizontally.
		plan.CropH = srcH
		plan.CropW = int(math.Round(float64(srcH) * targetAR))
		plan.CropX = (srcW - plan.CropW) / 2
		plan.CropY = 0
		if mode == ModeSmart && face != nil {
			center := (face.X + face.W/2) * float64(srcW)
			plan.CropX = clamp(int(math.Round(center))-plan.CropW/2, 0, srcW-plan.CropW)
		}
	} else {
		// Crop vertically, biased toward the top of the frame.
		plan.CropW = srcW
		plan.CropH = int(math.Round(float64(srcW) / targetAR))
		plan.CropX = 0
		plan.CropY = (srcH - plan.CropH) / 4
		if mode == ModeSmart && face != nil {
			center := (face.Y + face.H/2) * float64(srcH)
			plan.CropY = clamp(int(math.Round(center))-plan.CropH/2, 0, srcH-plan.CropH)
		}
	}
	return plan, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Filter renders the plan as an ffmpeg video filter chain.
func (p *FramePlan) Filter() string {
	if p.Mode == ModePad {
		color := p.PadColor
		if color == "" {
			color = "black"
		}
		return fmt.Sprintf(
			"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=%s",
			p.OutW, p.OutH, p.OutW, p.OutH, color,
		)
	}
	return fmt.Sprintf("crop=%d:%d:%d:%d,scale=%d:%d",
		p.CropW, p.CropH, p.CropX, p.CropY, p.OutW, p.OutH)
}

// Reframe applies a frame plan to a file.
func (r *Runner) Reframe(ctx context.Context, in, out string, plan *FramePlan) error {
	return r.run(ctx,
		"-i", in,
		"-vf", plan.Filter(),
		"-c:v", "libx264", "-preset", "fast", "-crf", "23",
		"-c:a", "aac",
		out,
	)
}
