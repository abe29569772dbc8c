// Package docx renders an assembled laudo to a Word document.
//
// The document is written directly as WordprocessingML parts zipped into an OOXML
// package, so no document library or license is involved.
//
// The document has up to three sections. The cover shows the header image only and no
// page number. The optional table of contents is a native TOC field that Word refreshes
// when the file is opened. The body carries the full header and footer, and its page
// numbering restarts at 1. Pagination itself is left to the word processor.
//
// Main Functions:
//
// - Render: report.Report + prefetched assets -> DOCX bytes
package docx

import (
	"bytes"
	"fmt"

	"go.uber.org/zap"

	"github.com/gardar/laudo/pkg/imaging"
	"github.com/gardar/laudo/pkg/report"
)

// Render builds the document and returns the DOCX bytes. Missing images degrade to a
// placeholder; an encoding failure is returned as an error and no bytes.
func Render(r *report.Report, assets *imaging.Set, opts Options) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("report is nil")
	}
	w, err := newWriter(r, assets, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare document: %w", err)
	}

	w.blocks(r.Cover)
	w.endSection(sectionCover)

	if r.IncludeTOC {
		w.toc(r.TOC)
		w.endSection(sectionTOC)
	}

	w.blocks(r.Body)
	w.finish()

	var buf bytes.Buffer
	core := coreProps{title: w.opts.Title, author: w.opts.Author, created: w.opts.Created}
	if err := w.pkg.write(&buf, core); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	w.log.Debug("document rendered",
		zap.Int("media", len(w.pkg.media)),
		zap.Int("drawings", w.drawings),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}
