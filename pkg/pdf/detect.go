package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
)

var (
	errNotPDF    = errors.New("attachment is not a PDF")
	errEncrypted = errors.New("attachment is encrypted")
)

var (
	pagePattern    = regexp.MustCompile(`/Type\s*/Page\b`)
	encryptPattern = regexp.MustCompile(`/Encrypt\b`)
	versionPattern = regexp.MustCompile(`^%PDF-(\d\.\d)`)
)

// pdfInfo is what a raw scan of a PDF reveals without parsing its object graph.
type pdfInfo struct {
	Version   string
	Pages     int  // page objects found; compressed object streams hide them
	Encrypted bool // the importer cannot read encrypted documents
}

// inspectPDF scans raw PDF bytes. It only rejects data that does not start like a PDF;
// the page count is a lower bound.
func inspectPDF(data []byte) (pdfInfo, error) {
	var info pdfInfo
	head := data[:min(len(data), 1024)]
	start := bytes.Index(head, []byte("%PDF-"))
	if start < 0 {
		return info, errNotPDF
	}
	if m := versionPattern.FindSubmatch(data[start:]); m != nil {
		info.Version = string(m[1])
	}
	info.Pages = len(pagePattern.FindAllIndex(data, -1))
	info.Encrypted = encryptPattern.Match(data)
	return info, nil
}

// checkAttachment returns the reason an attachment cannot be imported, if any.
func checkAttachment(data []byte) (pdfInfo, error) {
	if len(data) == 0 {
		return pdfInfo{}, fmt.Errorf("%w: empty data", errNotPDF)
	}
	info, err := inspectPDF(data)
	if err != nil {
		return info, err
	}
	if info.Encrypted {
		return info, errEncrypted
	}
	return info, nil
}
