package app

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcount/internal/body"
	"github.com/ayusman/repcount/internal/counter"
)

// Overlay style.
const (
	overlayMinScore  = 0.3
	limbThickness    = 2
	jointRadius      = 4
	statusFontScale  = 0.8
	statusThickness  = 2
	statusLineHeight = 28
)

var (
	limbColor     = color.RGBA{R: 0, G: 255, B: 128, A: 0}
	jointColor    = color.RGBA{R: 255, G: 64, B: 64, A: 0}
	statusColor   = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	invalidColor  = color.RGBA{R: 255, G: 160, B: 0, A: 0}
	statusOrigins = []image.Point{{X: 12, Y: 30}, {X: 12, Y: 30 + statusLineHeight}}
)

// drawSkeleton draws the pose's limbs and joints onto img. Joints that are
// missing or scored at or below minScore are skipped along with their limbs.
func drawSkeleton(img *gocv.Mat, pose *body.Pose, minScore float64) {
	if pose == nil {
		return
	}
	visible := func(j body.Joint) (image.Point, bool) {
		kp, ok := pose.Joint(j)
		if !ok || !body.IsConfident(kp, minScore) {
			return image.Point{}, false
		}
		return image.Pt(int(kp.X), int(kp.Y)), true
	}

	for _, limb := range body.Skeleton {
		p1, ok1 := visible(limb[0])
		p2, ok2 := visible(limb[1])
		if ok1 && ok2 {
			gocv.Line(img, p1, p2, limbColor, limbThickness)
		}
	}
	for j := body.Joint(0); j < body.NumJoints; j++ {
		if p, ok := visible(j); ok {
			gocv.Circle(img, p, jointRadius, jointColor, -1)
		}
	}
}

// statusLines renders the counter state shown in the top-left corner.
func statusLines(res counter.FrameResult) []string {
	first := fmt.Sprintf("%s: %d", res.Exercise, res.RepCount)
	if res.HoldElapsedSeconds != nil {
		first = fmt.Sprintf("%s: %.1fs", res.Exercise, *res.HoldElapsedSeconds)
	}

	second := string(res.Phase)
	switch {
	case res.Status != counter.StatusEvaluated:
		second = res.Reason
	case res.Summary != "":
		second = res.Summary
	}
	return []string{first, second}
}

// drawStatus writes statusLines onto img.
func drawStatus(img *gocv.Mat, res counter.FrameResult) {
	c := statusColor
	if res.Status != counter.StatusEvaluated {
		c = invalidColor
	}
	for i, line := range statusLines(res) {
		if line == "" {
			continue
		}
		gocv.PutText(img, line, statusOrigins[i], gocv.FontHersheySimplex, statusFontScale, c, statusThickness)
	}
}
