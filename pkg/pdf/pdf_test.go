package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/laudo/pkg/casedata"
	"github.com/gardar/laudo/pkg/imaging"
	"github.com/gardar/laudo/pkg/report"
)

var testToday = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func assemble(t *testing.T, raw string) *report.Report {
	t.Helper()
	c, err := casedata.Parse([]byte(raw))
	require.NoError(t, err)
	return report.Assemble(c, report.Options{Today: testToday})
}

func testPNG(t *testing.T) *imaging.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.RGBA{B: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	out, err := imaging.Normalize(buf.Bytes())
	require.NoError(t, err)
	return out
}

func attachmentPDF(t *testing.T, pages int) []byte {
	t.Helper()
	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for i := 0; i < pages; i++ {
		doc.AddPage()
		doc.Text(72, 72, "FISPQ")
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func pageCount(t *testing.T, data []byte) int {
	t.Helper()
	info, err := inspectPDF(data)
	require.NoError(t, err)
	return info.Pages
}

func TestShouldJustify(t *testing.T) {
	six := make([]word, 6)
	five := make([]word, 5)
	tests := []struct {
		name   string
		l      line
		bullet bool
		want   bool
	}{
		{name: "long full line", l: line{words: six, width: 80}, want: true},
		{name: "exactly three quarters", l: line{words: six, width: 75}, want: true},
		{name: "too short", l: line{words: six, width: 74}},
		{name: "too few words", l: line{words: five, width: 99}},
		{name: "final line", l: line{words: six, width: 99, final: true}},
		{name: "bullet", l: line{words: six, width: 99}, bullet: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldJustify(tt.l, 100, tt.bullet))
		})
	}
}

func TestEncoder(t *testing.T) {
	core := &encoder{}
	assert.Equal(t, "a\xe7\xe3o \x97 n\xba", core.String("ação — nº"))
	assert.Equal(t, "\xe3", core.String("ã"), "composed before transcoding")
	assert.Equal(t, "a", core.String("α"))
	assert.Equal(t, 1, core.misses)

	utf := &encoder{utf8: true}
	assert.Equal(t, "ã", utf.String("ã"))
}

func TestLayoutWraps(t *testing.T) {
	w, err := newWriter(&report.Report{}, nil, DefaultOptions(), nil)
	require.NoError(t, err)
	st := w.style(report.StyleBody)
	text := strings.Repeat("perícia técnica realizada no local de trabalho ", 20)
	lines := w.layout([]report.Run{{Text: text}}, st, 200)
	require.Greater(t, len(lines), 5)
	for i, l := range lines {
		assert.LessOrEqual(t, l.width, 200.0)
		assert.Equal(t, i == len(lines)-1, l.final)
	}

	broken := w.layout([]report.Run{{Text: "linha um\nlinha dois"}}, st, 400)
	require.Len(t, broken, 2)
	assert.True(t, broken[0].final)

	long := w.layout([]report.Run{{Text: strings.Repeat("x", 300)}}, st, 100)
	assert.Greater(t, len(long), 1)
}

func TestRenderEmptyCase(t *testing.T) {
	r := assemble(t, `{"process_number":"1234567-89.2024.5.02.0001","report_config":{}}`)
	data, err := Render(r, nil, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.GreaterOrEqual(t, pageCount(t, data), 3)

	r.IncludeTOC = false
	without, err := Render(r, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, pageCount(t, data)-1, pageCount(t, without))
}

func TestSectionPages(t *testing.T) {
	long := strings.Repeat("O reclamante relata exposição habitual e permanente a agentes nocivos durante toda a jornada. ", 400)
	r := assemble(t, `{"initial_narrative":"`+long+`"}`)

	pages, err := SectionPages(r, nil, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, pages, len(r.TOC))
	assert.Equal(t, 1, pages[report.KeyIdentification])

	prev := 0
	for _, e := range r.TOC {
		assert.GreaterOrEqual(t, pages[e.Key], prev, e.Key)
		prev = pages[e.Key]
	}
	assert.Greater(t, pages[report.KeyDefenseClaims], pages[report.KeyInitialClaims])

	again, err := SectionPages(r, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, pages, again)

	data, err := Render(r, nil, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestSafeModeDrawsNoImages(t *testing.T) {
	const ref = "https://example.com/header.png"
	assets := imaging.NewSet()
	assets.PutImage(ref, testPNG(t))

	raw := `{"report_config":{"flags":{"safeMode":%s},"header":{"imageUrl":"` + ref + `","text":"Perícia"}}}`

	safe, err := Render(assemble(t, strings.Replace(raw, "%s", "true", 1)), assets, DefaultOptions())
	require.NoError(t, err)
	assert.NotContains(t, string(safe), "/Subtype /Image")

	full, err := Render(assemble(t, strings.Replace(raw, "%s", "false", 1)), assets, DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, string(full), "/Subtype /Image")
}

func TestMissingImageRendersPlaceholder(t *testing.T) {
	r := assemble(t, `{"report_config":{"signature":{"imageUrl":"https://example.com/sig.png"}}}`)
	opts := DefaultOptions()
	opts.Uncompressed = true

	data, err := Render(r, imaging.NewSet(), opts)
	require.NoError(t, err)
	assert.Contains(t, string(data), "(dispon\xedvel]) Tj")
	assert.NotContains(t, string(data), "/Subtype /Image")
}

func TestFillPageFooterReservesSpace(t *testing.T) {
	const ref = "https://example.com/footer.png"
	assets := imaging.NewSet()
	assets.PutImage(ref, testPNG(t))
	r := assemble(t, `{"report_config":{"footer":{"imageUrl":"`+ref+`","fill_page":true,"height_cm":3}}}`)

	w, err := newWriter(r, assets, DefaultOptions(), nil)
	require.NoError(t, err)
	assert.InDelta(t, w.pageW, w.footer.w, 1e-9)
	assert.InDelta(t, 3*ptPerCm, w.footer.h, 1e-9)
	assert.InDelta(t, w.pageH-3*ptPerCm, w.footer.y, 1e-9)
	assert.Less(t, w.bottom, w.footer.y)
}

func TestAttachmentsAppended(t *testing.T) {
	const ref = "fispq/diesel.pdf"
	r := assemble(t, `{"flammable_products":[{"name":"Diesel","attachment_path":"`+ref+`"}]}`)
	require.Len(t, r.Attachments, 1)

	opts := DefaultOptions()
	opts.Attachments = false
	base, err := Render(r, nil, opts)
	require.NoError(t, err)

	opts.Attachments = true
	missing, err := Render(r, imaging.NewSet(), opts)
	require.NoError(t, err)
	assert.Equal(t, pageCount(t, base)+1, pageCount(t, missing))

	broken := imaging.NewSet()
	broken.PutFile(ref, []byte("%PDF-1.4 not really"))
	data, err := Render(r, broken, opts)
	require.NoError(t, err)
	assert.Equal(t, pageCount(t, base)+1, pageCount(t, data))

	good := imaging.NewSet()
	good.PutFile(ref, attachmentPDF(t, 2))
	data, err = Render(r, good, opts)
	require.NoError(t, err)
	assert.Equal(t, pageCount(t, base)+3, pageCount(t, data))
}

func TestInspectPDF(t *testing.T) {
	_, err := inspectPDF([]byte("<html>"))
	assert.ErrorIs(t, err, errNotPDF)

	_, err = checkAttachment([]byte("%PDF-1.6\n1 0 obj <</Type /Page>> trailer <</Encrypt 5 0 R>>"))
	assert.ErrorIs(t, err, errEncrypted)

	info, err := inspectPDF(attachmentPDF(t, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, info.Pages)
	assert.NotEmpty(t, info.Version)
}
