// Package textnorm parses and tidies the semi-structured narrative text typed by experts.
//
// The case-editing application stores results and exposure analyses as free text in which
// experts encode tables by convention, for example:
//
//	Resultado Anexo 13 — Agentes químicos | Exposição: Ocorre | Obs: manuseio de óleos
//
// This package turns such text back into rows. The parsing is heuristic and exists for
// compatibility with records typed before structured rows were available; structured rows
// from report_config always take precedence.
//
// Main Functions:
//
// - ParseAnnexChunks / RenderAnnexChunks: results narrative <-> annex chunks
// - ParseExposureRows: exposure-analysis narrative -> exposure rows
// - FixGrammar: corrects a known gender-agreement artifact and collapses whitespace
// - SanitizeLawyerFromName: removes a lawyer name glued to a party name
package textnorm

import (
	"regexp"
	"strconv"
	"strings"
)

// ChunkKind distinguishes annex chunks from free paragraphs.
type ChunkKind int

const (
	ChunkText ChunkKind = iota
	ChunkAnnex
)

// Placeholder is the body experts type when an annex result is still pending.
const Placeholder = "----------"

// AnnexChunk is either a free paragraph (Kind == ChunkText, Text set) or one annex result
// (Kind == ChunkAnnex, Annex/Title/Lines set).
type AnnexChunk struct {
	Kind  ChunkKind
	Text  string
	Annex int
	Title string
	Lines []string
}

var (
	// headingPattern matches "Resultado Anexo 13 — Theme" at the start of a chunk.
	headingPattern = regexp.MustCompile(`(?i)^\s*(?:resultado\s+(?:do\s+)?)?anexo\s+(?:n[º°o.]*\s*)?(\d{1,2})\s*[—–-]+\s*(.*)$`)
	// inlineHeadingPattern finds a heading that starts in the middle of a line.
	inlineHeadingPattern = regexp.MustCompile(`(?i)resultado\s+(?:do\s+)?anexo\s+(?:n[º°o.]*\s*)?(\d{1,2})\s*[—–-]+`)
	blankLinePattern     = regexp.MustCompile(`\n[ \t]*\n`)
	labelPattern         = regexp.MustCompile(`(?i)\s*\b(Exposição:|Obs:|Observações:|Enquadramento:)`)
	dashSeparator        = regexp.MustCompile(`\s*[—–]\s*|\s+-\s+`)
)

// ParseAnnexChunks splits a results narrative into annex chunks and free paragraphs.
// Adjacent chunks of the same annex are merged. A chunk without a recognizable heading is
// returned as a text chunk.
func ParseAnnexChunks(text string) []AnnexChunk {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var chunks []AnnexChunk
	for _, raw := range splitChunks(text) {
		chunk := parseChunk(raw)
		if n := len(chunks); n > 0 && chunk.Kind == ChunkAnnex &&
			chunks[n-1].Kind == ChunkAnnex && chunks[n-1].Annex == chunk.Annex {
			chunks[n-1] = mergeChunks(chunks[n-1], chunk)
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitChunks cuts text at blank lines and again in front of every "Resultado Anexo N —"
// heading, including headings glued to the end of the previous sentence.
func splitChunks(text string) []string {
	var out []string
	for _, block := range blankLinePattern.Split(text, -1) {
		locs := inlineHeadingPattern.FindAllStringIndex(block, -1)
		start := 0
		for _, loc := range locs {
			if loc[0] == 0 {
				continue
			}
			if isDuplicateHeading(block, start, loc) {
				continue
			}
			out = appendNonBlank(out, block[start:loc[0]])
			start = loc[0]
		}
		out = appendNonBlank(out, block[start:])
	}
	return out
}

// isDuplicateHeading reports whether the heading at loc repeats the heading of the chunk
// that starts at start on the same line (a copy-paste artifact rather than a new chunk).
func isDuplicateHeading(block string, start int, loc []int) bool {
	prefix := block[start:loc[0]]
	if strings.Contains(prefix, "\n") || strings.Contains(prefix, "|") {
		return false
	}
	first := inlineHeadingPattern.FindStringSubmatch(prefix)
	if first == nil {
		return false
	}
	second := inlineHeadingPattern.FindStringSubmatch(block[loc[0]:loc[1]])
	return second != nil && first[1] == second[1]
}

func appendNonBlank(out []string, s string) []string {
	if strings.TrimSpace(s) == "" {
		return out
	}
	return append(out, strings.TrimSpace(s))
}

func parseChunk(raw string) AnnexChunk {
	firstLine, rest, _ := strings.Cut(raw, "\n")
	m := headingPattern.FindStringSubmatch(firstLine)
	if m == nil {
		return AnnexChunk{Kind: ChunkText, Text: raw}
	}
	annex, err := strconv.Atoi(m[1])
	if err != nil {
		return AnnexChunk{Kind: ChunkText, Text: raw}
	}

	headingRest := m[2]
	title, inlineBody, _ := strings.Cut(headingRest, "|")
	title, leaked := cleanTitle(title)

	var body []string
	if leaked != "" {
		body = append(body, leaked)
	}
	if strings.TrimSpace(inlineBody) != "" {
		body = append(body, inlineBody)
	}
	if strings.TrimSpace(rest) != "" {
		body = append(body, rest)
	}
	return AnnexChunk{
		Kind:  ChunkAnnex,
		Annex: annex,
		Title: title,
		Lines: bodyLines(strings.Join(body, "\n")),
	}
}

// cleanTitle removes a duplicated heading from the theme label. It returns the cleaned
// title and any label text ("Exposição: ...") that was glued to the title.
func cleanTitle(title string) (string, string) {
	var leaked string
	if loc := labelPattern.FindStringIndex(title); loc != nil {
		leaked = strings.TrimSpace(title[loc[0]:])
		title = title[:loc[0]]
	}
	if loc := inlineHeadingPattern.FindStringIndex(title); loc != nil {
		title = title[:loc[0]] + " " + title[loc[1]:]
	}
	title = collapseSpaces(title)
	return dedupeTheme(title), leaked
}

// dedupeTheme collapses a theme that was pasted twice, either separated by a dash
// ("Ruído — Ruído") or back to back ("Ruído contínuo Ruído contínuo").
func dedupeTheme(title string) string {
	parts := dashSeparator.Split(title, -1)
	if len(parts) > 1 {
		allSame := true
		for _, p := range parts[1:] {
			if !strings.EqualFold(strings.TrimSpace(p), strings.TrimSpace(parts[0])) {
				allSame = false
				break
			}
		}
		if allSame {
			return strings.TrimSpace(parts[0])
		}
	}
	words := strings.Fields(title)
	if n := len(words); n >= 2 && n%2 == 0 {
		half := n / 2
		if strings.EqualFold(strings.Join(words[:half], " "), strings.Join(words[half:], " ")) {
			return strings.Join(words[:half], " ")
		}
	}
	return strings.TrimSpace(title)
}

// bodyLines turns pipes into line breaks and forces label prefixes onto their own lines.
func bodyLines(body string) []string {
	body = strings.ReplaceAll(body, "|", "\n")
	body = labelPattern.ReplaceAllString(body, "\n$1")
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		if line = collapseSpaces(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// isPlaceholder reports whether an annex body is only the pending-result placeholder.
func isPlaceholder(lines []string) bool {
	return len(lines) == 1 && strings.TrimSpace(lines[0]) == Placeholder
}

// mergeChunks merges two chunks of the same annex. A placeholder body is always replaced
// by a real one; otherwise lines are concatenated without repeating identical lines.
func mergeChunks(a, b AnnexChunk) AnnexChunk {
	out := a
	if out.Title == "" {
		out.Title = b.Title
	}
	switch {
	case isPlaceholder(b.Lines) || len(b.Lines) == 0:
		if len(out.Lines) == 0 {
			out.Lines = b.Lines
		}
	case isPlaceholder(a.Lines) || len(a.Lines) == 0:
		out.Lines = append([]string(nil), b.Lines...)
	default:
		seen := make(map[string]bool, len(a.Lines))
		lines := make([]string, 0, len(a.Lines)+len(b.Lines))
		for _, l := range a.Lines {
			seen[strings.TrimSpace(l)] = true
			lines = append(lines, l)
		}
		for _, l := range b.Lines {
			if key := strings.TrimSpace(l); !seen[key] {
				seen[key] = true
				lines = append(lines, l)
			}
		}
		out.Lines = lines
	}
	return out
}

// RenderAnnexChunks writes chunks back into the narrative convention understood by
// ParseAnnexChunks.
func RenderAnnexChunks(chunks []AnnexChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c.Kind == ChunkText {
			parts = append(parts, strings.TrimSpace(c.Text))
			continue
		}
		var b strings.Builder
		b.WriteString("Resultado Anexo ")
		b.WriteString(strconv.Itoa(c.Annex))
		b.WriteString(" — ")
		b.WriteString(c.Title)
		for _, l := range c.Lines {
			b.WriteString(" | ")
			b.WriteString(l)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
