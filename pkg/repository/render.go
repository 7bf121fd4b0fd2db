package repository

import (
	"io"

	"github.com/beevik/etree"
)

// Renderer serializes a document model to bytes
type Renderer interface {
	Render(w io.Writer, doc *etree.Document) error
}

// RendererFunc adapts a function to the Renderer interface
type RendererFunc func(w io.Writer, doc *etree.Document) error

func (f RendererFunc) Render(w io.Writer, doc *etree.Document) error {
	return f(w, doc)
}

// XMLRenderer writes documents with etree. With Indent > 0 a copy of the
// document is indented before writing; the caller's document is not changed.
type XMLRenderer struct {
	Indent int
}

func (r XMLRenderer) Render(w io.Writer, doc *etree.Document) error {
	if doc == nil {
		return errNilDocument
	}
	if r.Indent > 0 {
		doc = doc.Copy()
		doc.Indent(r.Indent)
	}
	_, err := doc.WriteTo(w)
	return err
}
