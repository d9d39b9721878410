package source

import (
	"io"

	"github.com/beevik/etree"
)

/*
Source is one in-memory representation of a single xml document. The set of variants is
closed:

• *StreamSource holds the raw bytes.

• *EventSource exposes the document as a sequence of parse events.

• *TreeSource holds a fully materialized etree.Document.

Every variant writes itself through io.WriterTo, which is the only serialization path
used by Write.
*/
type Source interface {
	io.WriterTo

	// Representation reports which variant this is.
	Representation() Representation

	sealed()
}

// StreamSource wraps the raw document bytes. Nothing is parsed. StreamSource is itself
// an io.Reader so it can be handed back to Read without being wrapped twice.
type StreamSource struct {
	Reader io.Reader
}

// NewStreamSource wraps reader. If reader is already a *StreamSource it is returned as-is.
func NewStreamSource(reader io.Reader) *StreamSource {
	if stream, ok := reader.(*StreamSource); ok {
		return stream
	}
	return &StreamSource{Reader: reader}
}

func (stream *StreamSource) Read(p []byte) (int, error) {
	return stream.Reader.Read(p)
}

// WriteTo copies the remaining bytes to writer.
func (stream *StreamSource) WriteTo(writer io.Writer) (int64, error) {
	return io.Copy(writer, stream.Reader)
}

func (stream *StreamSource) Representation() Representation {
	return RepresentationStream
}

func (stream *StreamSource) sealed() {}

// TreeSource wraps a materialized document tree.
type TreeSource struct {
	Document *etree.Document

	// spaces to indent by when writing, 0 writes the tree as-is.
	indent int
}

// NewTreeSource wraps document.
func NewTreeSource(document *etree.Document) *TreeSource {
	return &TreeSource{Document: document}
}

// Root returns the document element.
func (tree *TreeSource) Root() *etree.Element {
	return tree.Document.Root()
}

// WriteTo serializes the tree to writer. The wrapped document is never modified.
func (tree *TreeSource) WriteTo(writer io.Writer) (int64, error) {
	document := tree.Document
	if tree.indent > 0 {
		document = document.Copy()
		document.Indent(tree.indent)
	}
	return document.WriteTo(writer)
}

func (tree *TreeSource) Representation() Representation {
	return RepresentationTree
}

func (tree *TreeSource) sealed() {}
