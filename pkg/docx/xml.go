package docx

import (
	"bytes"
	"encoding/xml"
	"strconv"
)

// xmlWriter streams one XML part. The first encoding error sticks and is reported by
// bytes, so callers can write a whole part without checking every element.
type xmlWriter struct {
	buf bytes.Buffer
	enc *xml.Encoder
	err error
}

func newXMLWriter() *xmlWriter {
	x := &xmlWriter{}
	x.enc = xml.NewEncoder(&x.buf)
	x.token(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="UTF-8" standalone="yes"`)})
	return x
}

func (x *xmlWriter) token(t xml.Token) {
	if x.err == nil {
		x.err = x.enc.EncodeToken(t)
	}
}

// start opens an element. attrs are name, value pairs with the prefix in the name.
func (x *xmlWriter) start(name string, attrs ...string) {
	se := xml.StartElement{Name: xml.Name{Local: name}}
	for i := 0; i+1 < len(attrs); i += 2 {
		se.Attr = append(se.Attr, xml.Attr{Name: xml.Name{Local: attrs[i]}, Value: attrs[i+1]})
	}
	x.token(se)
}

func (x *xmlWriter) end(name string) {
	x.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (x *xmlWriter) empty(name string, attrs ...string) {
	x.start(name, attrs...)
	x.end(name)
}

// val writes the common <name w:val="v"/> form.
func (x *xmlWriter) val(name, v string) {
	x.empty(name, "w:val", v)
}

func (x *xmlWriter) text(s string) {
	x.token(xml.CharData(s))
}

// element writes <name>text</name>.
func (x *xmlWriter) element(name, text string, attrs ...string) {
	x.start(name, attrs...)
	x.text(text)
	x.end(name)
}

func (x *xmlWriter) bytes() ([]byte, error) {
	if x.err == nil {
		x.err = x.enc.Flush()
	}
	return x.buf.Bytes(), x.err
}

func itoa(n int) string { return strconv.Itoa(n) }
