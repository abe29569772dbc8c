package casedata

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ReportConfig is the report_config sub-object of a case.
type ReportConfig struct {
	Header         Band           `json:"header"`
	Footer         Band           `json:"footer"`
	Signature      Band           `json:"signature"`
	Flags          Flags          `json:"flags"`
	AnalysisTables AnalysisTables `json:"analysis_tables"`
	EPIReplacement EPIReplacement `json:"epi_replacement_periodicity"`
	Questionnaires Questionnaires `json:"questionnaires"`
	Galleries      Galleries      `json:"galleries"`
}

// Band configures a header, footer or signature image.
// Width and height are in centimeters; zero means derive from the image's natural ratio.
type Band struct {
	ImageURL       Text   `json:"imageUrl"`
	AttachmentPath Text   `json:"attachment_path"`
	Text           Text   `json:"text"`
	WidthCm        Number `json:"width_cm"`
	HeightCm       Number `json:"height_cm"`
	Alignment      Text   `json:"alignment"`
	FillPage       Bool   `json:"fill_page"`
	SpacingCm      Number `json:"spacing_cm"`
}

// Source returns the image reference of the band: a URL, a DataURL or a storage object path.
func (b Band) Source() string {
	if s := b.ImageURL.Trim(); s != "" {
		return s
	}
	return b.AttachmentPath.Trim()
}

// Align returns the normalized alignment: "left", "center" or "right".
func (b Band) Align() string {
	switch strings.ToLower(b.Alignment.Trim()) {
	case "left", "esquerda", "start":
		return "left"
	case "right", "direita", "end":
		return "right"
	}
	return "center"
}

// Flags holds the feature switches of a report.
type Flags struct {
	SafeMode              Bool    `json:"safeMode"`
	ReportType            Text    `json:"reportType"`
	IncludeTOC            OptBool `json:"includeToc"`
	IncludeInsalubridade  OptBool `json:"includeInsalubridade"`
	IncludePericulosidade OptBool `json:"includePericulosidade"`
}

// TableOfContents reports whether the table of contents page is rendered. It defaults to true.
func (f Flags) TableOfContents() bool {
	return !f.IncludeTOC.False()
}

// AnalysisTables holds explicit NR-15 and NR-16 exposure rows.
type AnalysisTables struct {
	NR15 List[ExposureRow] `json:"nr15"`
	NR16 List[ExposureRow] `json:"nr16"`
}

// ExposureRow is one structured row of the exposure analysis table.
type ExposureRow struct {
	Annex       Text `json:"annex"`
	Agent       Text `json:"agent"`
	Exposure    Text `json:"exposure"`
	Observation Text `json:"observation"`
	Obs         Text `json:"obs"`
}

// Note returns the observation, accepting both spellings of the key.
func (r ExposureRow) Note() string {
	if s := r.Observation.Plain(); s != "" {
		return s
	}
	return r.Obs.Plain()
}

// EPIReplacement configures the EPI replacement periodicity analysis.
type EPIReplacement struct {
	Enabled         Bool                 `json:"enabled"`
	Text            Text                 `json:"text"`
	Rows            List[DeliveryRow]    `json:"rows"`
	UsefulLife      List[UsefulLifeItem] `json:"useful_life_items"`
	Training        OptBool              `json:"training"`
	CAValid         OptBool              `json:"ca_valid"`
	Inspection      OptBool              `json:"inspection"`
	ImprescritoOnly Bool                 `json:"imprescrito_only"`
}

// DeliveryRow is one EPI delivery. Date is ISO (YYYY-MM-DD) or DD/MM/YYYY.
type DeliveryRow struct {
	Equipment     Text `json:"equipment"`
	CA            Text `json:"ca"`
	Date          Text `json:"date"`
	Quantity      Text `json:"quantity"`
	EstimatedLife Text `json:"estimated_life"`
}

// UsefulLifeItem declares the useful life of one equipment as free text ("6 meses").
type UsefulLifeItem struct {
	Equipment  Text `json:"equipment"`
	UsefulLife Text `json:"useful_life"`
}

// Questionnaires holds the free-text questionnaires of each party.
type Questionnaires struct {
	Claimant  Text `json:"claimant"`
	Defendant Text `json:"defendant"`
	Court     Text `json:"court"`
}

// Galleries holds the optional photo galleries.
type Galleries struct {
	Diligence    List[Photo] `json:"diligence"`
	Insalubrity  List[Photo] `json:"insalubrity"`
	Periculosity List[Photo] `json:"periculosity"`
}

// Photo is one captioned gallery image.
type Photo struct {
	Caption        Text `json:"caption"`
	ImageURL       Text `json:"imageUrl"`
	AttachmentPath Text `json:"attachment_path"`
}

// Source returns the image reference of the photo.
func (p Photo) Source() string {
	if s := p.ImageURL.Trim(); s != "" {
		return s
	}
	return p.AttachmentPath.Trim()
}

// maxConfigDecodeDepth bounds how many times a string-wrapped configuration is unwrapped.
const maxConfigDecodeDepth = 3

// UnmarshalJSON accepts an object, a JSON string holding an object (possibly encoded more
// than once) or null. A key that fails to decode keeps its zero value without affecting
// the others, and anything that is not an object yields the zero configuration.
func (rc *ReportConfig) UnmarshalJSON(b []byte) error {
	*rc = ParseReportConfig(b)
	return nil
}

// ParseReportConfig decodes report_config with fallback to the zero configuration.
func ParseReportConfig(raw []byte) ReportConfig {
	b := bytes.TrimSpace(raw)
	for depth := 0; depth < maxConfigDecodeDepth && len(b) > 0 && b[0] == '"'; depth++ {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return ReportConfig{}
		}
		b = bytes.TrimSpace([]byte(s))
	}
	if len(b) == 0 || b[0] != '{' {
		return ReportConfig{}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return ReportConfig{}
	}
	// Keys match case-insensitively like struct fields do, an exact match winning.
	keys := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		lk := strings.ToLower(k)
		if _, seen := keys[lk]; !seen || k == lk {
			keys[lk] = v
		}
	}
	return ReportConfig{
		Header:         field[Band](keys, "header"),
		Footer:         field[Band](keys, "footer"),
		Signature:      field[Band](keys, "signature"),
		Flags:          field[Flags](keys, "flags"),
		AnalysisTables: field[AnalysisTables](keys, "analysis_tables"),
		EPIReplacement: field[EPIReplacement](keys, "epi_replacement_periodicity"),
		Questionnaires: field[Questionnaires](keys, "questionnaires"),
		Galleries:      field[Galleries](keys, "galleries"),
	}
}

// field decodes one key of an object. An absent key or one that does not decode yields
// the zero value.
func field[T any](fields map[string]json.RawMessage, key string) T {
	var v T
	raw, ok := fields[key]
	if !ok {
		return v
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero
	}
	return v
}
