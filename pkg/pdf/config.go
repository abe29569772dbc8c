package pdf

import (
	"go.uber.org/zap"
)

// Options holds user options for rendering a report to PDF
type Options struct {
	Font         FontConfig
	FontDir      string      // Directory holding Arial or DejaVu TTF files (empty = core Helvetica)
	MarginCm     float64     // Page margin on every side
	Logger       *zap.Logger // Warnings for degraded assets (nil = no logging)
	Debug        bool        // Outline image slots
	Attachments  bool        // Append PDF attachments after the body
	Uncompressed bool        // Write content streams without compression
	Title        string      // Document title metadata
	Author       string      // Document author metadata
}

// DefaultOptions returns a config with sensible defaults
func DefaultOptions() Options {
	return Options{
		Font:        DefaultFont,
		FontDir:     "",
		MarginCm:    2.54,
		Logger:      nil,
		Debug:       false,
		Attachments: true,
		Title:       "Laudo Pericial",
	}
}

// FontConfig contains font settings for the document text
type FontConfig struct {
	Name        string  // Core font family used without FontDir (e.g., "Helvetica")
	Size        float64 // Body font size
	TableSize   float64 // Default table font size
	CaptionSize float64 // Captions and footer text
	LineHeight  float64 // Line height as a multiple of the font size
}

// DefaultFont is Helvetica, metric-compatible with the Arial used by the document renderer
var DefaultFont = FontConfig{
	Name:        "Helvetica",
	Size:        11,
	TableSize:   10,
	CaptionSize: 9,
	LineHeight:  1.4,
}

// utf8Fonts are the TTF files looked up in FontDir, in order of preference.
var utf8Fonts = []struct {
	family, regular, bold, italic string
}{
	{"Arial", "Arial.ttf", "Arial-Bold.ttf", "Arial-Italic.ttf"},
	{"Arial", "arial.ttf", "arialbd.ttf", "ariali.ttf"},
	{"DejaVu", "DejaVuSans.ttf", "DejaVuSans-Bold.ttf", "DejaVuSans-Oblique.ttf"},
}
