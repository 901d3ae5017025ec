package config

import (
	"encoding/xml"
	"fmt"
	"image"
	"os"

	"github.com/openplacer/tapefeeder/internal/feeder"
	"github.com/openplacer/tapefeeder/internal/units"
	"github.com/openplacer/tapefeeder/internal/vision"
)

type locationXML struct {
	Units    string  `xml:"units,attr"`
	X        float64 `xml:"x,attr"`
	Y        float64 `xml:"y,attr"`
	Z        float64 `xml:"z,attr"`
	Rotation float64 `xml:"rotation,attr"`
}

type lengthXML struct {
	Units string  `xml:"units,attr"`
	Value float64 `xml:"value,attr"`
}

type regionXML struct {
	X      int `xml:"x,attr"`
	Y      int `xml:"y,attr"`
	Width  int `xml:"width,attr"`
	Height int `xml:"height,attr"`
}

type visionXML struct {
	Enabled             bool        `xml:"enabled,attr"`
	Template            string      `xml:"template,attr,omitempty"`
	AreaOfInterest      regionXML   `xml:"area-of-interest"`
	TemplateTopLeft     locationXML `xml:"template-top-left"`
	TemplateBottomRight locationXML `xml:"template-bottom-right"`
}

type feederXML struct {
	XMLName    xml.Name    `xml:"tape-feeder"`
	ID         string      `xml:"id,attr"`
	ActuatorID string      `xml:"actuator-id,attr,omitempty"`
	FeedStart  locationXML `xml:"feed-start-location"`
	FeedEnd    locationXML `xml:"feed-end-location"`
	FeedRate   *lengthXML  `xml:"feed-rate"`
	Vision     *visionXML  `xml:"vision"`
}

func locationToXML(loc units.Location) locationXML {
	return locationXML{
		Units:    loc.Units.String(),
		X:        loc.X,
		Y:        loc.Y,
		Z:        loc.Z,
		Rotation: loc.Rotation,
	}
}

func locationFromXML(l locationXML) (units.Location, error) {
	u, err := units.ParseLengthUnit(l.Units)
	if err != nil {
		return units.Location{}, err
	}
	return units.NewLocation(u, l.X, l.Y, l.Z, l.Rotation), nil
}

// LoadFeeder reads a feeder configuration document and returns the feeder.
// The vision template raster, if any, is bound for lazy loading from the
// store and is not decoded here.
func LoadFeeder(path string, store *Store) (*feeder.TapeFeeder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeder config: %w", err)
	}

	var doc feederXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse feeder config: %w", err)
	}

	f := feeder.NewTapeFeeder(doc.ID)

	start, err := locationFromXML(doc.FeedStart)
	if err != nil {
		return nil, fmt.Errorf("feed-start-location: %w", err)
	}
	f.SetFeedStartLocation(start)

	end, err := locationFromXML(doc.FeedEnd)
	if err != nil {
		return nil, fmt.Errorf("feed-end-location: %w", err)
	}
	f.SetFeedEndLocation(end)

	if doc.FeedRate != nil {
		u, err := units.ParseLengthUnit(doc.FeedRate.Units)
		if err != nil {
			return nil, fmt.Errorf("feed-rate: %w", err)
		}
		f.SetFeedRate(units.NewLength(doc.FeedRate.Value, u))
	}

	if doc.ActuatorID != "" {
		f.SetActuatorID(doc.ActuatorID)
	}

	if doc.Vision != nil {
		cfg := &vision.Config{
			Enabled:      doc.Vision.Enabled,
			TemplateName: doc.Vision.Template,
			AreaOfInterest: vision.Region{
				X:      doc.Vision.AreaOfInterest.X,
				Y:      doc.Vision.AreaOfInterest.Y,
				Width:  doc.Vision.AreaOfInterest.Width,
				Height: doc.Vision.AreaOfInterest.Height,
			},
		}
		if cfg.TemplateTopLeft, err = locationFromXML(doc.Vision.TemplateTopLeft); err != nil {
			return nil, fmt.Errorf("template-top-left: %w", err)
		}
		if cfg.TemplateBottomRight, err = locationFromXML(doc.Vision.TemplateBottomRight); err != nil {
			return nil, fmt.Errorf("template-bottom-right: %w", err)
		}
		if name := doc.Vision.Template; name != "" && store != nil {
			cfg.BindTemplate(func() (image.Image, error) {
				return store.Load(name)
			})
		}
		f.SetVision(cfg)
	}

	return f, nil
}

// SaveFeeder writes the feeder configuration document. When the vision
// template raster is dirty it is first persisted to the store, allocating a
// tmpl_*.png resource name on first save, and the dirty flag cleared; a
// clean raster is never re-encoded.
func SaveFeeder(path string, store *Store, f *feeder.TapeFeeder) error {
	cfg := f.Vision()

	if cfg.TemplateDirty() && store != nil {
		img, err := cfg.Template()
		if err != nil {
			return fmt.Errorf("failed to load template for persist: %w", err)
		}
		if img != nil {
			if cfg.TemplateName == "" {
				name, err := store.Create("tmpl_", ".png")
				if err != nil {
					return err
				}
				cfg.TemplateName = name
			}
			if err := store.Save(cfg.TemplateName, img); err != nil {
				return err
			}
		}
		cfg.ClearTemplateDirty()
	}

	doc := feederXML{
		ID:         f.ID(),
		ActuatorID: f.ActuatorID(),
		FeedStart:  locationToXML(f.FeedStartLocation()),
		FeedEnd:    locationToXML(f.FeedEndLocation()),
		Vision: &visionXML{
			Enabled:  cfg.Enabled,
			Template: cfg.TemplateName,
			AreaOfInterest: regionXML{
				X:      cfg.AreaOfInterest.X,
				Y:      cfg.AreaOfInterest.Y,
				Width:  cfg.AreaOfInterest.Width,
				Height: cfg.AreaOfInterest.Height,
			},
			TemplateTopLeft:     locationToXML(cfg.TemplateTopLeft),
			TemplateBottomRight: locationToXML(cfg.TemplateBottomRight),
		},
	}
	if rate, ok := f.FeedRate(); ok {
		doc.FeedRate = &lengthXML{Units: rate.Units.String(), Value: rate.Value}
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal feeder config: %w", err)
	}

	content := append([]byte(xml.Header), out...)
	content = append(content, '\n')
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write feeder config: %w", err)
	}
	return nil
}
