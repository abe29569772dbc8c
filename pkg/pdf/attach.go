package pdf

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"go.uber.org/zap"

	"github.com/gardar/laudo/pkg/report"
)

// importedPage is one page of an attachment imported as a template.
type importedPage struct {
	tpl  int
	w, h float64
}

// attachments appends every attachment after the body: an "ANEXOS" page listing them,
// then the imported pages of each one that could be read. An attachment that is missing
// or cannot be imported is listed as not available.
func (w *writer) attachments(list []report.Attachment) {
	if len(list) == 0 {
		return
	}
	importer := gofpdi.NewImporter()
	imported := make([][]importedPage, len(list))
	for i, a := range list {
		data, ok := w.assets.File(a.Ref)
		if !ok {
			w.warn("attachment not available", zap.String("ref", abbreviate(a.Ref)))
			continue
		}
		pages, err := w.importAttachment(importer, data)
		if err != nil {
			w.warn("attachment could not be imported", zap.String("ref", abbreviate(a.Ref)), zap.Error(err))
			continue
		}
		imported[i] = pages
	}

	w.kind = pageBody
	w.newPage()
	w.paragraph(&report.Paragraph{
		Runs:       []report.Run{{Text: "ANEXOS", Bold: true}},
		Align:      report.AlignCenter,
		Style:      report.StyleSubtitle,
		SpaceAfter: 16,
	})
	for i, a := range list {
		title := fmt.Sprintf("Anexo %d – %s", i+1, a.Title)
		if len(imported[i]) == 0 {
			title += " (não disponível)"
		}
		w.paragraph(&report.Paragraph{Runs: []report.Run{{Text: title}}, Align: report.AlignLeft, Bullet: true})
	}

	for i, pages := range imported {
		if err := w.placeAttachment(importer, pages); err != nil {
			w.warn("attachment could not be placed", zap.String("ref", abbreviate(list[i].Ref)), zap.Error(err))
		}
	}
}

// importAttachment imports every page of a PDF into the document as templates. The
// importer panics on malformed input, so panics are turned into errors here.
func (w *writer) importAttachment(importer *gofpdi.Importer, data []byte) (pages []importedPage, err error) {
	info, err := checkAttachment(data)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("failed to import PDF: %v", r)
		}
	}()

	rs := io.ReadSeeker(bytes.NewReader(data))
	first := importer.ImportPageFromStream(w.pdf, &rs, 1, "/MediaBox")
	sizes := importer.GetPageSizes()
	count := len(sizes)
	if count == 0 {
		count = max(info.Pages, 1)
	}
	for n := 1; n <= count; n++ {
		tpl := first
		if n > 1 {
			tpl = importer.ImportPageFromStream(w.pdf, &rs, n, "/MediaBox")
		}
		page := importedPage{tpl: tpl, w: w.pageW, h: w.pageH}
		if box, ok := sizes[n]["/MediaBox"]; ok && box["w"] > 0 && box["h"] > 0 {
			page.w, page.h = box["w"], box["h"]
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// placeAttachment adds one output page per imported page, at the page's own size.
func (w *writer) placeAttachment(importer *gofpdi.Importer, pages []importedPage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to place imported page: %v", r)
		}
	}()
	for _, p := range pages {
		w.pdf.AddPageFormat("P", fpdf.SizeType{Wd: p.w, Ht: p.h})
		importer.UseImportedTemplate(w.pdf, p.tpl, 0, 0, p.w, 0)
	}
	return nil
}
