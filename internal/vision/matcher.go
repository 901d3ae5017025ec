package vision

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// ErrNoMatch is returned when template matching finds no candidate that
// clears the score floor.
var ErrNoMatch = errors.New("vision: no template match found")

// DefaultMinScore is the correlation floor below which a window is not
// considered a match.
const DefaultMinScore = 0.5

// FrameSource provides the frame a template match runs against. A camera
// satisfies this directly.
type FrameSource interface {
	Capture() (image.Image, error)
}

// Matcher locates a template within frames from a source using normalized
// cross-correlation on grayscale luminance.
//
// Candidates are returned best score first, after non-maximum suppression
// removes overlapping hits, so callers that take the first element get the
// highest-correlation match rather than an arbitrary scan-order one.
type Matcher struct {
	// Source supplies the frame to search.
	Source FrameSource

	// MinScore is the correlation floor in (0, 1]. Values <= 0 fall back
	// to DefaultMinScore.
	MinScore float64

	// BlurRadius is a Gaussian pre-blur applied to the search region to
	// suppress sensor noise. Zero disables it.
	BlurRadius float64
}

// NewMatcher returns a Matcher over the given source with default score
// floor and a light noise blur.
func NewMatcher(source FrameSource) *Matcher {
	return &Matcher{Source: source, MinScore: DefaultMinScore, BlurRadius: 1}
}

// LocateTemplateMatches implements spi.VisionProvider.
//
// The rectangle (x, y, w, h) bounds the search within the captured frame;
// a non-positive width or height searches the whole frame. roll is accepted
// for interface compatibility and ignored (the matcher is axis-aligned).
// contrast, when positive, is a floor on the Lab lightness range of a
// candidate window, rejecting matches found in flat image areas.
//
// Returned points are top-left corners of matches in full-frame pixel
// coordinates, ordered best score first. Returns ErrNoMatch when nothing
// clears the floor.
func (m *Matcher) LocateTemplateMatches(x, y, w, h int, roll, contrast float64, template image.Image) ([]image.Point, error) {
	_ = roll

	if template == nil {
		return nil, errors.New("vision: nil template")
	}
	frame, err := m.Source.Capture()
	if err != nil {
		return nil, fmt.Errorf("vision: capture failed: %w", err)
	}

	bounds := frame.Bounds()
	if w <= 0 || h <= 0 {
		x, y = bounds.Min.X, bounds.Min.Y
		w, h = bounds.Dx(), bounds.Dy()
	}
	area := image.Rect(x, y, x+w, y+h).Intersect(bounds)
	if area.Empty() {
		return nil, fmt.Errorf("vision: area of interest (%d,%d %dx%d) outside frame bounds %v", x, y, w, h, bounds)
	}

	search := imaging.Crop(frame, area)
	searchGray := search
	if m.BlurRadius > 0 {
		searchGray = imaging.Clone(blur.Gaussian(search, m.BlurRadius))
	}

	sLuma, sw, sh := lumaPlane(searchGray)
	tLuma, tw, th := lumaPlane(template)
	if tw > sw || th > sh {
		return nil, fmt.Errorf("vision: template %dx%d larger than search area %dx%d", tw, th, sw, sh)
	}

	tMean, tDev := meanDeviation(tLuma)
	if tDev == 0 {
		return nil, errors.New("vision: template has no contrast")
	}

	minScore := m.MinScore
	if minScore <= 0 {
		minScore = DefaultMinScore
	}

	type candidate struct {
		pt    image.Point
		score float64
	}
	var candidates []candidate

	for wy := 0; wy <= sh-th; wy++ {
		for wx := 0; wx <= sw-tw; wx++ {
			score := correlate(sLuma, sw, wx, wy, tLuma, tw, th, tMean, tDev)
			if score < minScore {
				continue
			}
			if contrast > 0 && lightnessRange(search, wx, wy, tw, th) < contrast {
				continue
			}
			candidates = append(candidates, candidate{image.Pt(wx, wy), score})
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	// Non-maximum suppression: drop candidates overlapping a better one by
	// more than half the template extent.
	var points []image.Point
	for _, c := range candidates {
		keep := true
		for _, p := range points {
			dx, dy := c.pt.X-(p.X-area.Min.X), c.pt.Y-(p.Y-area.Min.Y)
			if abs(dx) < tw/2+1 && abs(dy) < th/2+1 {
				keep = false
				break
			}
		}
		if keep {
			points = append(points, c.pt.Add(area.Min))
		}
	}

	if len(points) == 0 {
		return nil, ErrNoMatch
	}
	return points, nil
}

// lumaPlane converts an image to a flat float64 luminance plane.
func lumaPlane(img image.Image) ([]float64, int, int) {
	gray := effect.Grayscale(img)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	luma := make([]float64, w*h)
	for yy := 0; yy < h; yy++ {
		row := gray.Pix[yy*gray.Stride:]
		for xx := 0; xx < w; xx++ {
			luma[yy*w+xx] = float64(row[xx*4])
		}
	}
	return luma, w, h
}

func meanDeviation(vals []float64) (mean, dev float64) {
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	for _, v := range vals {
		d := v - mean
		dev += d * d
	}
	return mean, dev
}

// correlate computes the zero-mean normalized cross-correlation between the
// template and the search window at (wx, wy). Result is in [-1, 1].
func correlate(sLuma []float64, sw, wx, wy int, tLuma []float64, tw, th int, tMean, tDev float64) float64 {
	var wMean float64
	for ty := 0; ty < th; ty++ {
		base := (wy+ty)*sw + wx
		for tx := 0; tx < tw; tx++ {
			wMean += sLuma[base+tx]
		}
	}
	wMean /= float64(tw * th)

	var cov, wDev float64
	for ty := 0; ty < th; ty++ {
		base := (wy+ty)*sw + wx
		for tx := 0; tx < tw; tx++ {
			ws := sLuma[base+tx] - wMean
			cov += ws * (tLuma[ty*tw+tx] - tMean)
			wDev += ws * ws
		}
	}
	if wDev == 0 {
		return 0
	}
	return cov / math.Sqrt(wDev*tDev)
}

// lightnessRange measures the Lab lightness spread of a window, in [0, 1].
func lightnessRange(img image.Image, x, y, w, h int) float64 {
	b := img.Bounds()
	minL, maxL := 1.0, 0.0
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			c, ok := colorful.MakeColor(img.At(b.Min.X+xx, b.Min.Y+yy))
			if !ok {
				continue
			}
			l, _, _ := c.Lab()
			if l < minL {
				minL = l
			}
			if l > maxL {
				maxL = l
			}
		}
	}
	if maxL < minL {
		return 0
	}
	return maxL - minL
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
