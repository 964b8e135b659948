package config

import (
	"errors"
	"fmt"

	"github.com/simp-lee/epubcards/measure"
	"github.com/simp-lee/epubcards/reflow"
	"github.com/simp-lee/epubcards/segment"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultConfig returns a phone-sized viewport with comfortable density.
func DefaultConfig() *Config {
	style := measure.DefaultStyle()
	opts := segment.DefaultOptions()
	return &Config{
		Viewport: ViewportCfg{Width: 360, Height: 640, Chrome: 96},
		Density:  reflow.Comfortable.String(),
		Font: FontCfg{
			Size:         style.FontSize,
			LineSpacing:  style.LineSpacing,
			TextScale:    style.TextScale,
			HeadingScale: style.HeadingScale,
			ParagraphGap: style.ParagraphGap,
		},
		Segment: SegmentCfg{
			MaxWords:    opts.MaxWords,
			TargetWords: opts.TargetWords,
			MergeBelow:  opts.MergeBelow,
		},
	}
}

// Validate reports the first setting that cannot produce a layout.
func (c *Config) Validate() error {
	if !(c.Viewport.Width > 0) {
		return fmt.Errorf("%w: viewport.width must be positive, got %v", ErrInvalidConfig, c.Viewport.Width)
	}
	if !(c.Viewport.Height > 0) {
		return fmt.Errorf("%w: viewport.height must be positive, got %v", ErrInvalidConfig, c.Viewport.Height)
	}
	if c.Viewport.Chrome < 0 {
		return fmt.Errorf("%w: viewport.chrome must not be negative, got %v", ErrInvalidConfig, c.Viewport.Chrome)
	}
	if _, err := reflow.ParseDensity(c.Density); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Font.Size < 0 || c.Font.TextScale < 0 {
		return fmt.Errorf("%w: font sizes must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Style converts the font settings for measure.New.
func (c *Config) Style() measure.Style {
	return measure.Style{
		FontSize:     c.Font.Size,
		LineSpacing:  c.Font.LineSpacing,
		TextScale:    c.Font.TextScale,
		HeadingScale: c.Font.HeadingScale,
		ParagraphGap: c.Font.ParagraphGap,
	}
}

// Params returns the reflow parameters for the configured viewport and
// density.
func (c *Config) Params() (reflow.Params, error) {
	d, err := reflow.ParseDensity(c.Density)
	if err != nil {
		return reflow.Params{}, err
	}
	return reflow.Params{
		ViewportWidth: c.Viewport.Width,
		HeightBudget:  reflow.Budget(c.Viewport.Height, c.Viewport.Chrome, d),
	}, nil
}

// Measurer returns a font measurer for the configured width and style.
func (c *Config) Measurer() (*measure.Measurer, error) {
	return measure.New(c.Viewport.Width, c.Style())
}

// SegmentOptions converts the segmentation settings. A nil keyword list
// keeps the stock keywords.
func (c *Config) SegmentOptions() segment.Options {
	return segment.Options{
		MaxWords:    c.Segment.MaxWords,
		TargetWords: c.Segment.TargetWords,
		MergeBelow:  c.Segment.MergeBelow,
		Keywords:    c.Segment.Keywords,
	}
}
