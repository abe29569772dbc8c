package docx

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/gardar/laudo/pkg/imaging"
)

const (
	nsW     = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP    = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA     = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic   = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	nsRels  = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsTypes = "http://schemas.openxmlformats.org/package/2006/content-types"

	relBase     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
	relDocument = relBase + "officeDocument"
	relApp      = relBase + "extended-properties"
	relCore     = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relStyles   = relBase + "styles"
	relSettings = relBase + "settings"
	relHeader   = relBase + "header"
	relFooter   = relBase + "footer"
	relImage    = relBase + "image"

	ctWord     = "application/vnd.openxmlformats-officedocument.wordprocessingml."
	ctDocument = ctWord + "document.main+xml"
	ctStyles   = ctWord + "styles+xml"
	ctSettings = ctWord + "settings+xml"
	ctHeader   = ctWord + "header+xml"
	ctFooter   = ctWord + "footer+xml"
	ctRels     = "application/vnd.openxmlformats-package.relationships+xml"
	ctCore     = "application/vnd.openxmlformats-package.core-properties+xml"
	ctApp      = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
)

// wordNamespaces are declared on the root of every part that holds document content.
var wordNamespaces = []string{
	"xmlns:w", nsW,
	"xmlns:r", nsR,
	"xmlns:wp", nsWP,
	"xmlns:a", nsA,
	"xmlns:pic", nsPic,
}

type relationship struct {
	id, typ, target string
}

// part is one XML part of the package together with its relationships.
type part struct {
	name        string // path inside the package, e.g. word/header1.xml
	contentType string
	root        string
	x           *xmlWriter
	data        []byte // finished content of a part built up front
	rels        []relationship
	relIDs      map[string]string
}

func newPart(name, contentType, root string, attrs ...string) *part {
	p := &part{name: name, contentType: contentType, root: root, x: newXMLWriter(), relIDs: map[string]string{}}
	p.x.start(root, attrs...)
	return p
}

// fixedPart wraps content that is complete when the part is created.
func fixedPart(name, contentType string, data []byte) *part {
	return &part{name: name, contentType: contentType, data: data, relIDs: map[string]string{}}
}

// bytes closes the root element and returns the encoded part.
func (p *part) bytes() ([]byte, error) {
	if p.x == nil {
		return p.data, nil
	}
	p.x.end(p.root)
	return p.x.bytes()
}

// rel returns the id of the relationship to target, adding it on first use. Targets are
// relative to the directory of the part.
func (p *part) rel(typ, target string) string {
	if id, ok := p.relIDs[typ+"|"+target]; ok {
		return id
	}
	id := "rId" + itoa(len(p.rels)+1)
	p.rels = append(p.rels, relationship{id: id, typ: typ, target: target})
	p.relIDs[typ+"|"+target] = id
	return id
}

// relsName is the path of the relationships part of name.
func relsName(name string) string {
	dir, file := path.Split(name)
	return dir + "_rels/" + file + ".rels"
}

type mediaFile struct {
	name string // path inside the package
	data []byte
}

// pkg collects the parts and media of a document before they are zipped.
type pkg struct {
	parts []*part
	media []mediaFile
	byRef map[string]string
}

func newPkg() *pkg {
	return &pkg{byRef: map[string]string{}}
}

func (k *pkg) add(p *part) *part {
	k.parts = append(k.parts, p)
	return p
}

// addMedia stores an image once per reference and returns its target relative to word/.
func (k *pkg) addMedia(ref string, img *imaging.Image) (string, error) {
	if target, ok := k.byRef[ref]; ok {
		return target, nil
	}
	ext, err := mediaExt(img.Format)
	if err != nil {
		return "", err
	}
	target := fmt.Sprintf("media/image%d.%s", len(k.media)+1, ext)
	k.media = append(k.media, mediaFile{name: "word/" + target, data: img.Data})
	k.byRef[ref] = target
	return target, nil
}

func mediaExt(format string) (string, error) {
	switch format {
	case imaging.FormatPNG:
		return "png", nil
	case imaging.FormatJPEG:
		return "jpeg", nil
	}
	return "", fmt.Errorf("%w: %q", imaging.ErrUnsupportedFormat, format)
}

// coreProps are the document properties shown by the word processor.
type coreProps struct {
	title   string
	author  string
	created time.Time
}

type zipEntry struct {
	name string
	data func() ([]byte, error)
}

// write zips the package. The content types part comes first, as readers expect.
func (k *pkg) write(w io.Writer, core coreProps) error {
	entries := []zipEntry{
		{"[Content_Types].xml", k.contentTypes},
		{"_rels/.rels", rootRels},
		{"docProps/core.xml", core.xml},
		{"docProps/app.xml", appXML},
	}
	for _, p := range k.parts {
		entries = append(entries, zipEntry{p.name, p.bytes})
		if len(p.rels) > 0 {
			rels := p.rels
			entries = append(entries, zipEntry{relsName(p.name), func() ([]byte, error) { return relsXML(rels) }})
		}
	}

	zw := zip.NewWriter(w)
	for _, e := range entries {
		data, err := e.data()
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", e.name, err)
		}
		if err := writeZipFile(zw, e.name, data, zip.Deflate); err != nil {
			return err
		}
	}
	for _, m := range k.media {
		// Images are already compressed.
		if err := writeZipFile(zw, m.name, m.data, zip.Store); err != nil {
			return err
		}
	}
	return zw.Close()
}

func writeZipFile(zw *zip.Writer, name string, data []byte, method uint16) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (k *pkg) contentTypes() ([]byte, error) {
	x := newXMLWriter()
	x.start("Types", "xmlns", nsTypes)
	x.empty("Default", "Extension", "rels", "ContentType", ctRels)
	x.empty("Default", "Extension", "xml", "ContentType", "application/xml")
	x.empty("Default", "Extension", "png", "ContentType", "image/png")
	x.empty("Default", "Extension", "jpeg", "ContentType", "image/jpeg")
	x.empty("Override", "PartName", "/docProps/core.xml", "ContentType", ctCore)
	x.empty("Override", "PartName", "/docProps/app.xml", "ContentType", ctApp)
	for _, p := range k.parts {
		x.empty("Override", "PartName", "/"+p.name, "ContentType", p.contentType)
	}
	x.end("Types")
	return x.bytes()
}

func rootRels() ([]byte, error) {
	return relsXML([]relationship{
		{id: "rId1", typ: relDocument, target: "word/document.xml"},
		{id: "rId2", typ: relCore, target: "docProps/core.xml"},
		{id: "rId3", typ: relApp, target: "docProps/app.xml"},
	})
}

func relsXML(rels []relationship) ([]byte, error) {
	x := newXMLWriter()
	x.start("Relationships", "xmlns", nsRels)
	for _, r := range rels {
		x.empty("Relationship", "Id", r.id, "Type", r.typ, "Target", r.target)
	}
	x.end("Relationships")
	return x.bytes()
}

func (c coreProps) xml() ([]byte, error) {
	x := newXMLWriter()
	x.start("cp:coreProperties",
		"xmlns:cp", "http://schemas.openxmlformats.org/package/2006/metadata/core-properties",
		"xmlns:dc", "http://purl.org/dc/elements/1.1/",
		"xmlns:dcterms", "http://purl.org/dc/terms/",
		"xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	if c.title != "" {
		x.element("dc:title", c.title)
	}
	if c.author != "" {
		x.element("dc:creator", c.author)
	}
	if !c.created.IsZero() {
		stamp := c.created.UTC().Format("2006-01-02T15:04:05Z")
		x.element("dcterms:created", stamp, "xsi:type", "dcterms:W3CDTF")
		x.element("dcterms:modified", stamp, "xsi:type", "dcterms:W3CDTF")
	}
	x.end("cp:coreProperties")
	return x.bytes()
}

func appXML() ([]byte, error) {
	x := newXMLWriter()
	x.start("Properties", "xmlns", "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties")
	x.element("Application", "laudo")
	x.end("Properties")
	return x.bytes()
}

// stylesXML defines the default run font and the styles the body refers to: Heading1 for
// section headings (picked up by the TOC field) and TOC1 for its entries.
func stylesXML(font FontConfig, tocTab float64) ([]byte, error) {
	x := newXMLWriter()
	x.start("w:styles", "xmlns:w", nsW)

	x.start("w:docDefaults")
	x.start("w:rPrDefault")
	x.start("w:rPr")
	x.empty("w:rFonts", "w:ascii", font.Name, "w:hAnsi", font.Name, "w:eastAsia", font.Name, "w:cs", font.Name)
	x.val("w:sz", itoa(halfPoints(font.Size)))
	x.val("w:szCs", itoa(halfPoints(font.Size)))
	x.val("w:lang", "pt-BR")
	x.end("w:rPr")
	x.end("w:rPrDefault")
	x.start("w:pPrDefault")
	x.start("w:pPr")
	x.empty("w:spacing", "w:after", "0", "w:line", "240", "w:lineRule", "auto")
	x.end("w:pPr")
	x.end("w:pPrDefault")
	x.end("w:docDefaults")

	x.start("w:style", "w:type", "paragraph", "w:default", "1", "w:styleId", "Normal")
	x.val("w:name", "Normal")
	x.empty("w:qFormat")
	x.end("w:style")

	x.start("w:style", "w:type", "character", "w:default", "1", "w:styleId", "DefaultParagraphFont")
	x.val("w:name", "Default Paragraph Font")
	x.val("w:uiPriority", "1")
	x.empty("w:semiHidden")
	x.end("w:style")

	x.start("w:style", "w:type", "table", "w:default", "1", "w:styleId", "TableNormal")
	x.val("w:name", "Normal Table")
	x.start("w:tblPr")
	x.empty("w:tblInd", "w:w", "0", "w:type", "dxa")
	cellMargins(x, cellMarginPt)
	x.end("w:tblPr")
	x.end("w:style")

	x.start("w:style", "w:type", "paragraph", "w:styleId", styleHeading)
	x.val("w:name", "heading 1")
	x.val("w:basedOn", "Normal")
	x.val("w:next", "Normal")
	x.val("w:uiPriority", "9")
	x.empty("w:qFormat")
	x.start("w:pPr")
	x.empty("w:keepNext")
	x.val("w:outlineLvl", "0")
	x.end("w:pPr")
	x.start("w:rPr")
	x.empty("w:b")
	x.end("w:rPr")
	x.end("w:style")

	x.start("w:style", "w:type", "paragraph", "w:styleId", styleTOC)
	x.val("w:name", "toc 1")
	x.val("w:basedOn", "Normal")
	x.val("w:next", "Normal")
	x.val("w:uiPriority", "39")
	x.start("w:pPr")
	x.start("w:tabs")
	x.empty("w:tab", "w:val", "right", "w:leader", "dot", "w:pos", itoa(twips(tocTab)))
	x.end("w:tabs")
	x.empty("w:spacing", "w:after", "100")
	x.end("w:pPr")
	x.end("w:style")

	x.end("w:styles")
	return x.bytes()
}

// settingsXML asks the word processor to refresh fields, the TOC among them, on open.
func settingsXML() ([]byte, error) {
	x := newXMLWriter()
	x.start("w:settings", "xmlns:w", nsW)
	x.val("w:defaultTabStop", "708")
	x.val("w:characterSpacingControl", "doNotCompress")
	x.val("w:updateFields", "true")
	x.start("w:compat")
	x.empty("w:compatSetting", "w:name", "compatibilityMode", "w:uri", "http://schemas.microsoft.com/office/word", "w:val", "15")
	x.end("w:compat")
	x.end("w:settings")
	return x.bytes()
}
