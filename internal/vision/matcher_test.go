package vision

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

type staticSource struct {
	img image.Image
	err error
}

func (s staticSource) Capture() (image.Image, error) { return s.img, s.err }

// blankFrame returns a w x h frame filled with the given gray level.
func blankFrame(w, h int, level uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, 0, 0, w, h, level)
	return img
}

func fill(img *image.RGBA, x, y, w, h int, level uint8) {
	c := color.RGBA{level, level, level, 255}
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			img.Set(xx, yy, c)
		}
	}
}

// fiducialTemplate is a 12x12 patch: light background with a centered 8x8
// feature at the given gray level.
func fiducialTemplate(feature uint8) *image.RGBA {
	tmpl := blankFrame(12, 12, 255)
	fill(tmpl, 2, 2, 8, 8, feature)
	return tmpl
}

// frameWithFeature draws an 8x8 feature so that the matching template
// top-left lands at (x, y).
func frameWithFeature(x, y int, bg, feature uint8) *image.RGBA {
	frame := blankFrame(100, 100, bg)
	fill(frame, x+2, y+2, 8, 8, feature)
	return frame
}

func TestMatcherFindsTemplate(t *testing.T) {
	m := &Matcher{Source: staticSource{img: frameWithFeature(38, 28, 255, 20)}, MinScore: 0.8}

	points, err := m.LocateTemplateMatches(0, 0, 0, 0, 0, 0, fiducialTemplate(20))
	if err != nil {
		t.Fatalf("LocateTemplateMatches failed: %v", err)
	}
	if len(points) == 0 {
		t.Fatal("expected at least one match")
	}
	if points[0] != image.Pt(38, 28) {
		t.Errorf("best match: got %v, want (38,28)", points[0])
	}
}

func TestMatcherWithBlurStillFinds(t *testing.T) {
	m := NewMatcher(staticSource{img: frameWithFeature(38, 28, 255, 20)})

	points, err := m.LocateTemplateMatches(0, 0, 0, 0, 0, 0, fiducialTemplate(20))
	if err != nil {
		t.Fatalf("LocateTemplateMatches failed: %v", err)
	}
	best := points[0]
	if abs(best.X-38) > 1 || abs(best.Y-28) > 1 {
		t.Errorf("best match: got %v, want within 1px of (38,28)", best)
	}
}

func TestMatcherAreaOfInterest(t *testing.T) {
	frame := frameWithFeature(38, 28, 255, 20)

	tests := []struct {
		name       string
		x, y, w, h int
		wantFound  bool
	}{
		{"area containing feature", 20, 10, 50, 50, true},
		{"area excluding feature", 60, 60, 40, 40, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Matcher{Source: staticSource{img: frame}, MinScore: 0.8}
			points, err := m.LocateTemplateMatches(tt.x, tt.y, tt.w, tt.h, 0, 0, fiducialTemplate(20))

			if !tt.wantFound {
				if !errors.Is(err, ErrNoMatch) {
					t.Fatalf("got err %v, want ErrNoMatch", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LocateTemplateMatches failed: %v", err)
			}
			// Points come back in full-frame coordinates.
			if points[0] != image.Pt(38, 28) {
				t.Errorf("best match: got %v, want (38,28)", points[0])
			}
		})
	}
}

func TestMatcherNoMatchOnBlankFrame(t *testing.T) {
	m := &Matcher{Source: staticSource{img: blankFrame(100, 100, 255)}, MinScore: 0.8}

	_, err := m.LocateTemplateMatches(0, 0, 0, 0, 0, 0, fiducialTemplate(20))
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("got err %v, want ErrNoMatch", err)
	}
}

func TestMatcherFlatTemplate(t *testing.T) {
	m := &Matcher{Source: staticSource{img: blankFrame(100, 100, 255)}}

	_, err := m.LocateTemplateMatches(0, 0, 0, 0, 0, 0, blankFrame(10, 10, 128))
	if err == nil {
		t.Error("expected error for template with no contrast")
	}
}

func TestMatcherNilTemplate(t *testing.T) {
	m := &Matcher{Source: staticSource{img: blankFrame(100, 100, 255)}}

	if _, err := m.LocateTemplateMatches(0, 0, 0, 0, 0, 0, nil); err == nil {
		t.Error("expected error for nil template")
	}
}

func TestMatcherContrastFloor(t *testing.T) {
	// A faint feature correlates perfectly (correlation is normalized) but
	// has almost no lightness spread; the contrast floor rejects it.
	faint := frameWithFeature(38, 28, 250, 238)
	m := &Matcher{Source: staticSource{img: faint}, MinScore: 0.8}

	if _, err := m.LocateTemplateMatches(0, 0, 0, 0, 0, 0, fiducialTemplate(20)); err != nil {
		t.Fatalf("without contrast floor: %v", err)
	}

	_, err := m.LocateTemplateMatches(0, 0, 0, 0, 0, 0.3, fiducialTemplate(20))
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("with contrast floor: got err %v, want ErrNoMatch", err)
	}
}

func TestMatcherMultipleMatches(t *testing.T) {
	frame := blankFrame(100, 100, 255)
	fill(frame, 22, 22, 8, 8, 20) // template top-left (20, 20)
	fill(frame, 62, 62, 8, 8, 20) // template top-left (60, 60)

	m := &Matcher{Source: staticSource{img: frame}, MinScore: 0.8}
	points, err := m.LocateTemplateMatches(0, 0, 0, 0, 0, 0, fiducialTemplate(20))
	if err != nil {
		t.Fatalf("LocateTemplateMatches failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d matches after suppression, want 2", len(points))
	}

	found := map[image.Point]bool{}
	for _, p := range points {
		found[p] = true
	}
	if !found[image.Pt(20, 20)] || !found[image.Pt(60, 60)] {
		t.Errorf("matches %v, want both (20,20) and (60,60)", points)
	}
}

func TestMatcherCaptureFailure(t *testing.T) {
	m := &Matcher{Source: staticSource{err: errors.New("camera offline")}}

	if _, err := m.LocateTemplateMatches(0, 0, 0, 0, 0, 0, fiducialTemplate(20)); err == nil {
		t.Error("expected capture error to propagate")
	}
}
