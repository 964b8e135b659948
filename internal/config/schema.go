package config

// Config holds the reader settings.
// Stored at: ./epubcards.yaml or $HOME/.config/epubcards/epubcards.yaml
type Config struct {
	Viewport ViewportCfg `mapstructure:"viewport" yaml:"viewport"`
	Density  string      `mapstructure:"density" yaml:"density"` // compact, cozy, comfortable, full
	Font     FontCfg     `mapstructure:"font" yaml:"font"`
	Segment  SegmentCfg  `mapstructure:"segment" yaml:"segment"`
}

// ViewportCfg describes the card area in pixels.
type ViewportCfg struct {
	Width  float64 `mapstructure:"width" yaml:"width"`
	Height float64 `mapstructure:"height" yaml:"height"`
	// Chrome is the height taken by fixed UI around the card.
	Chrome float64 `mapstructure:"chrome" yaml:"chrome"`
}

// FontCfg configures text measurement.
type FontCfg struct {
	Size         float64 `mapstructure:"size" yaml:"size"`
	LineSpacing  float64 `mapstructure:"line_spacing" yaml:"line_spacing"`
	TextScale    float64 `mapstructure:"text_scale" yaml:"text_scale"` // accessibility scaling
	HeadingScale float64 `mapstructure:"heading_scale" yaml:"heading_scale"`
	ParagraphGap float64 `mapstructure:"paragraph_gap" yaml:"paragraph_gap"` // in lines
}

// SegmentCfg tunes segmentation. Zero values select the built-in defaults.
type SegmentCfg struct {
	MaxWords    int      `mapstructure:"max_words" yaml:"max_words"`
	TargetWords int      `mapstructure:"target_words" yaml:"target_words"`
	MergeBelow  int      `mapstructure:"merge_below" yaml:"merge_below"`
	Keywords    []string `mapstructure:"keywords" yaml:"keywords,omitempty"`
}
