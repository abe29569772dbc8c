// Package pdf renders an assembled laudo to an A4 PDF.
//
// Pagination is manual: a running vertical cursor is advanced for every line, table row
// and image, and a page break happens whenever the next item would cross the bottom limit
// left by the footer band. Header and footer bands are redrawn on every page.
//
// The table of contents needs the page each section starts on, which is only known once
// the body has been laid out. Render therefore lays the whole document out twice on
// identical input: a dry pass records the body page of every section heading and the
// final pass prints those numbers. The reserved number column keeps both passes on the
// same page boundaries.
//
// Key Features:
//
// - Word justification for long non-final lines, matching the word processor output
// - Tables with explicit width ratios, column spans and header rows repeated per page
// - Image galleries with a text placeholder for images that could not be loaded
// - PDF attachments (safety data sheets) appended as imported pages
// - Core Helvetica with Windows-1252 transcoding, or UTF-8 TrueType fonts from a directory
//
// Main Functions:
//
// - Render: report.Report + prefetched assets -> PDF bytes
package pdf

import (
	"bytes"
	"fmt"

	"go.uber.org/zap"

	"github.com/gardar/laudo/pkg/imaging"
	"github.com/gardar/laudo/pkg/report"
)

// Render lays the report out and returns the PDF bytes. Missing images degrade to a
// placeholder; only a failure of the drawing library itself is returned as an error.
func Render(r *report.Report, assets *imaging.Set, opts Options) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("report is nil")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// Dry pass: record the body page of every section.
	dry, err := layout(r, assets, opts, zap.NewNop(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to lay out document: %w", err)
	}

	final, err := layout(r, assets, opts, log, dry.sectionPages)
	if err != nil {
		return nil, fmt.Errorf("failed to draw document: %w", err)
	}
	if opts.Attachments {
		final.attachments(r.Attachments)
	}
	if final.enc.misses > 0 {
		log.Debug("characters transliterated for the core font", zap.Int("count", final.enc.misses))
	}

	var buf bytes.Buffer
	if err := final.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// layout draws the cover, the optional table of contents and the body.
func layout(r *report.Report, assets *imaging.Set, opts Options, log *zap.Logger, tocPages map[string]int) (*writer, error) {
	w, err := newWriter(r, assets, opts, log)
	if err != nil {
		return nil, err
	}
	w.tocPages = tocPages

	w.kind = pageCover
	w.newPage()
	w.blocks(r.Cover)

	if r.IncludeTOC {
		w.kind = pageTOC
		w.newPage()
		w.toc(r.TOC)
	}

	w.kind = pageBody
	w.bodyStart = w.pdf.PageNo() + 1
	w.newPage()
	w.blocks(r.Body)

	if err := w.pdf.Error(); err != nil {
		return nil, err
	}
	return w, nil
}

// SectionPages lays the report out and returns the body page on which every section
// starts, as printed in the table of contents.
func SectionPages(r *report.Report, assets *imaging.Set, opts Options) (map[string]int, error) {
	w, err := layout(r, assets, opts, zap.NewNop(), nil)
	if err != nil {
		return nil, err
	}
	return w.sectionPages, nil
}
