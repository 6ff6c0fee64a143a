package overlay

import (
	"image"
	"image/color"
	"math"

	"hazardcam/internal/model"
	"hazardcam/internal/service/state"
)

var (
	HazardColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	NormalColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}
)

// BoxColor is red for labels in the hazard set and lime for everything else.
func BoxColor(box model.DetectionBox, hazards state.HazardSet) color.RGBA {
	if hazards.Contains(box.Label) {
		return HazardColor
	}
	return NormalColor
}

// FontScale maps the text size preference to a Hershey font scale.
func FontScale(size state.TextSize) float64 {
	switch size {
	case state.TextSmall:
		return 0.4
	case state.TextLarge:
		return 0.9
	default:
		return 0.6
	}
}

// FontThickness grows with the scale so large captions stay legible.
func FontThickness(size state.TextSize) int {
	if size == state.TextLarge {
		return 2
	}
	return 1
}

// PixelRect converts a box to an integer rectangle clipped to the frame.
// ok is false when nothing of the box is inside the frame.
func PixelRect(box model.DetectionBox, width, height int) (image.Rectangle, bool) {
	r := image.Rect(
		int(math.Round(box.X1)), int(math.Round(box.Y1)),
		int(math.Round(box.X2)), int(math.Round(box.Y2)),
	).Intersect(image.Rect(0, 0, width, height))
	return r, !r.Empty()
}

// CaptionOrigin places the caption just above the box, or inside it when the
// box touches the top edge.
func CaptionOrigin(r image.Rectangle, textHeight int) image.Point {
	y := r.Min.Y - 5
	if y-textHeight < 0 {
		y = r.Min.Y + textHeight + 5
	}
	return image.Pt(r.Min.X, y)
}
