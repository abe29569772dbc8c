package docx

import (
	"time"

	"go.uber.org/zap"
)

// Options holds user options for rendering a report to DOCX
type Options struct {
	Font     FontConfig
	MarginCm float64     // Page margin on every side
	Logger   *zap.Logger // Warnings for degraded assets (nil = no logging)
	Title    string      // Core property title
	Author   string      // Core property author
	Created  time.Time   // Core property creation date (zero = omitted)
}

// DefaultOptions returns a config with sensible defaults
func DefaultOptions() Options {
	return Options{
		Font:     DefaultFont,
		MarginCm: 2.54,
		Title:    "Laudo Pericial",
	}
}

// FontConfig contains font settings for the document text
type FontConfig struct {
	Name        string  // Font family written on every run
	Size        float64 // Body font size
	TableSize   float64 // Default table font size
	CaptionSize float64 // Captions and footer text
	LineHeight  float64 // Line height as a multiple of a single line
}

// DefaultFont is Arial, the font the PDF renderer approximates with Helvetica
var DefaultFont = FontConfig{
	Name:        "Arial",
	Size:        11,
	TableSize:   10,
	CaptionSize: 9,
	LineHeight:  1.4,
}
