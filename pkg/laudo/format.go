package laudo

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Format is an output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ParseFormat accepts a format name or file extension in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case FormatPDF, FormatDOCX:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// noProcessNumber stands in for a blank process number in file names.
const noProcessNumber = "sem_numero"

// Filename returns laudo_{process number}_{yyyy-mm-dd}.{ext}, with every character of the
// process number outside [a-zA-Z0-9-_.] replaced by an underscore.
func Filename(processNumber string, day time.Time, f Format) string {
	n := strings.TrimSpace(processNumber)
	if n == "" {
		n = noProcessNumber
	}
	return fmt.Sprintf("laudo_%s_%s.%s", unsafeFilenameChars.ReplaceAllString(n, "_"), day.Format(time.DateOnly), f.Extension())
}
