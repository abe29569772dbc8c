package textnorm

import (
	"regexp"
	"strings"
)

var (
	// agreementPattern finds "atividade ... não enquadrado" within one sentence.
	agreementPattern = regexp.MustCompile(`(?i)(atividades?\b[^.\n]*?\bn[ãa]o\s+)(enquadrad)o\b`)
	spacesPattern    = regexp.MustCompile(`[ \t\x{00A0}]{2,}`)
	lawyerPattern    = regexp.MustCompile(`(?is)ADVOGAD[OA]\s*:\s*.*`)
	trailingJunk     = regexp.MustCompile(`[\s,;\-–—/]+$`)
)

// FixGrammar corrects "atividade ... não enquadrado" to "não enquadrada" and collapses
// runs of spaces. Line breaks are kept because annex parsing depends on them.
func FixGrammar(text string) string {
	text = agreementPattern.ReplaceAllString(text, "${1}${2}a")
	text = spacesPattern.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Join(lines, "\n")
}

// SanitizeLawyerFromName removes "ADVOGADO: ..." that was concatenated to a party name.
func SanitizeLawyerFromName(name string) string {
	name = lawyerPattern.ReplaceAllString(name, "")
	name = strings.Join(strings.Fields(name), " ")
	return trailingJunk.ReplaceAllString(name, "")
}
