package textnorm

import (
	"regexp"
	"strings"
)

// ExposureRow is one row of the exposure analysis table.
type ExposureRow struct {
	Annex       string
	Agent       string
	Exposure    string
	Observation string
}

// exposurePatterns are tried from the most to the least specific.
var exposurePatterns = []*regexp.Regexp{
	// - Anexo 13 — Agentes químicos (Ocorre exposição) [confirmado]
	regexp.MustCompile(`(?i)^[-•*\s]*anexo\s+(?:n[º°o.]*\s*)?(\d{1,2})\s*[—–-]+\s*(.+?)\s*\(([^()]*)\)\s*\[([^\]]*)\]\s*\.?$`),
	// - Anexo 13 — Agentes químicos (Ocorre exposição)
	regexp.MustCompile(`(?i)^[-•*\s]*anexo\s+(?:n[º°o.]*\s*)?(\d{1,2})\s*[—–-]+\s*(.+?)\s*\(([^()]*)\)\s*\.?$`),
	// - Anexo 13 — Agentes químicos
	regexp.MustCompile(`(?i)^[-•*\s]*anexo\s+(?:n[º°o.]*\s*)?(\d{1,2})\s*[—–-]+\s*(.+?)\s*\.?$`),
}

// ParseExposureRows extracts exposure rows from an exposure-analysis narrative, one per
// matching line. Identical rows are reported once.
func ParseExposureRows(text string) []ExposureRow {
	var rows []ExposureRow
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if row, ok := parseExposureLine(line); ok {
			rows = append(rows, row)
		}
	}
	return DedupeRows(rows)
}

func parseExposureLine(line string) (ExposureRow, bool) {
	for _, p := range exposurePatterns {
		m := p.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		row := ExposureRow{Annex: m[1], Agent: collapseSpaces(m[2])}
		if len(m) > 3 {
			row.Exposure = collapseSpaces(m[3])
		}
		if len(m) > 4 {
			row.Observation = collapseSpaces(m[4])
		}
		return row, true
	}
	return ExposureRow{}, false
}

// DedupeRows drops rows identical (case-insensitively, ignoring spacing) to an earlier row.
func DedupeRows(rows []ExposureRow) []ExposureRow {
	seen := make(map[string]bool, len(rows))
	out := make([]ExposureRow, 0, len(rows))
	for _, r := range rows {
		key := strings.ToLower(strings.Join([]string{
			collapseSpaces(r.Annex), collapseSpaces(r.Agent),
			collapseSpaces(r.Exposure), collapseSpaces(r.Observation),
		}, "\x00"))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
