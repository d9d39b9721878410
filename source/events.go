package source

import (
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"strings"

	"github.com/illuscio-dev/xmlsource-go/sourceerrors"
	"golang.org/x/net/html/charset"
)

/*
EventSource exposes a document as a sequence of parse events. Wrapping a reader is free:
nothing is read until the first call to Next.

Tokens are returned as the raw tokens of encoding/xml: element and attribute names keep
their prefix in Name.Space rather than a resolved namespace url, so that a document can
be written back out exactly as it came in. Well-formedness is still checked while
pulling: end tags must match their start tags, there must be exactly one root element and
the document must not end inside an element. Violations are returned as
sourceerrors.MalformedDocument.

An EventSource can be consumed once. Once Next has been called, the source can no longer
be written or converted as a whole.

With Options.Charsets set, documents declaring another encoding are decoded to utf-8 and
the encoding of their xml declaration is reported as UTF-8.
*/
type EventSource struct {
	decoder *xml.Decoder
	reader  *recordingReader
	// rewrite the encoding declaration of decoded documents.
	charsets bool

	// tokens handed out so far.
	pulled int

	// open elements, innermost last.
	stack []xml.Name
	// root elements seen so far.
	roots int
	// sticky error, io.EOF once the document has been read.
	err error
}

// NewEventSource wraps reader with the default options.
func NewEventSource(reader io.Reader) *EventSource {
	return newEventSource(reader, DefaultOptions())
}

func newEventSource(reader io.Reader, options Options) *EventSource {
	recording := &recordingReader{reader: reader}

	decoder := xml.NewDecoder(recording)
	if options.Permissive {
		decoder.Strict = false
		decoder.Entity = xml.HTMLEntity
	}
	if options.Charsets {
		decoder.CharsetReader = charset.NewReaderLabel
	}
	return &EventSource{decoder: decoder, reader: recording, charsets: options.Charsets}
}

// recordingReader keeps the last error of the wrapped reader so caller io failures can
// be told apart from decoder failures.
type recordingReader struct {
	reader io.Reader
	err    error
}

func (recording *recordingReader) Read(p []byte) (int, error) {
	read, err := recording.reader.Read(p)
	if err != nil && err != io.EOF {
		recording.err = err
	}
	return read, err
}

// Consumed reports whether tokens have already been pulled from events.
func (events *EventSource) Consumed() bool {
	return events.pulled > 0 || events.err != nil
}

// whole returns an error unless events is still positioned at the start of the
// document.
func (events *EventSource) whole() error {
	if events.err != nil && events.err != io.EOF {
		return events.err
	}
	if events.Consumed() {
		return sourceerrors.ConversionError.New(
			"event source has already been read from", nil, nil,
		)
	}
	return nil
}

func (events *EventSource) malformed(message string, cause error) error {
	events.err = sourceerrors.MalformedDocument.Wrap(message, cause)
	return events.err
}

// Next returns the next token of the document, or io.EOF once the whole document has
// been read. The token is a copy and stays valid after later calls.
func (events *EventSource) Next() (xml.Token, error) {
	if events.err != nil {
		return nil, events.err
	}

	token, err := events.decoder.RawToken()
	if err == io.EOF {
		if len(events.stack) > 0 {
			open := events.stack[len(events.stack)-1]
			return nil, events.malformed(
				"document ended inside element <"+qualifiedName(open)+">", nil,
			)
		}
		if events.roots == 0 {
			return nil, events.malformed("document has no root element", nil)
		}
		events.err = io.EOF
		return nil, io.EOF
	}
	if err != nil {
		// Reader failures belong to the caller and are returned untouched.
		if events.reader.err != nil && err == events.reader.err {
			events.err = err
			return nil, err
		}
		return nil, events.malformed("could not parse document", err)
	}

	switch typed := token.(type) {
	case xml.StartElement:
		if len(events.stack) == 0 {
			if events.roots > 0 {
				return nil, events.malformed(
					"second root element <"+qualifiedName(typed.Name)+">", nil,
				)
			}
			events.roots++
		}
		events.stack = append(events.stack, typed.Name)
	case xml.EndElement:
		if len(events.stack) == 0 {
			return nil, events.malformed(
				"unexpected end element </"+qualifiedName(typed.Name)+">", nil,
			)
		}
		open := events.stack[len(events.stack)-1]
		if open != typed.Name {
			return nil, events.malformed(
				"element <"+qualifiedName(open)+"> closed by </"+
					qualifiedName(typed.Name)+">",
				nil,
			)
		}
		events.stack = events.stack[:len(events.stack)-1]
	case xml.CharData:
		if len(events.stack) == 0 && len(bytes.TrimSpace(typed)) > 0 {
			return nil, events.malformed("text outside of the root element", nil)
		}
	case xml.ProcInst:
		if events.charsets && typed.Target == "xml" {
			events.pulled++
			return xml.ProcInst{
				Target: typed.Target,
				Inst:   declareUTF8(typed.Inst),
			}, nil
		}
	}

	events.pulled++
	return xml.CopyToken(token), nil
}

var encodingParam = regexp.MustCompile(`encoding\s*=\s*("[^"]*"|'[^']*')`)

// declareUTF8 rewrites the encoding of an xml declaration to UTF-8. Tokens are utf-8
// once the decoder has switched charsets, so the original label no longer applies.
func declareUTF8(inst []byte) []byte {
	return encodingParam.ReplaceAll(bytes.Clone(inst), []byte(`encoding="UTF-8"`))
}

// Walk calls handler with every remaining token of the document. Walk stops at the
// first error returned by handler and returns it.
func (events *EventSource) Walk(handler func(token xml.Token) error) error {
	for {
		token, err := events.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := handler(token); err != nil {
			return err
		}
	}
}

// WriteTo serializes the remaining tokens to writer. Elements without content are
// written in their short form.
//
// WriteTo returns sourceerrors.ConversionError if tokens were already pulled from events.
func (events *EventSource) WriteTo(writer io.Writer) (int64, error) {
	if err := events.whole(); err != nil {
		return 0, err
	}
	tokens := &tokenWriter{writer: writer}
	err := events.Walk(tokens.write)
	if err == nil {
		err = tokens.flush()
	}
	return tokens.written, err
}

func (events *EventSource) Representation() Representation {
	return RepresentationEvents
}

func (events *EventSource) sealed() {}

func qualifiedName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#xD;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;",
	)
)

// tokenWriter writes raw tokens back out as text.
type tokenWriter struct {
	writer  io.Writer
	written int64
	err     error

	// start element waiting to see whether it has content.
	pending *xml.StartElement
}

func (tokens *tokenWriter) writeString(text string) {
	if tokens.err != nil {
		return
	}
	written, err := io.WriteString(tokens.writer, text)
	tokens.written += int64(written)
	tokens.err = err
}

func (tokens *tokenWriter) writeStart(start *xml.StartElement, empty bool) {
	tokens.writeString("<" + qualifiedName(start.Name))
	for _, attr := range start.Attr {
		tokens.writeString(
			" " + qualifiedName(attr.Name) + `="` + attrEscaper.Replace(attr.Value) + `"`,
		)
	}
	if empty {
		tokens.writeString("/>")
	} else {
		tokens.writeString(">")
	}
}

func (tokens *tokenWriter) flush() error {
	if tokens.pending != nil {
		tokens.writeStart(tokens.pending, false)
		tokens.pending = nil
	}
	return tokens.err
}

func (tokens *tokenWriter) write(token xml.Token) error {
	if end, ok := token.(xml.EndElement); ok && tokens.pending != nil {
		if end.Name == tokens.pending.Name {
			tokens.writeStart(tokens.pending, true)
			tokens.pending = nil
			return tokens.err
		}
	}
	if err := tokens.flush(); err != nil {
		return err
	}

	switch typed := token.(type) {
	case xml.StartElement:
		tokens.pending = &typed
	case xml.EndElement:
		tokens.writeString("</" + qualifiedName(typed.Name) + ">")
	case xml.CharData:
		tokens.writeString(textEscaper.Replace(string(typed)))
	case xml.Comment:
		tokens.writeString("<!--" + string(typed) + "-->")
	case xml.ProcInst:
		if len(typed.Inst) == 0 {
			tokens.writeString("<?" + typed.Target + "?>")
		} else {
			tokens.writeString("<?" + typed.Target + " " + string(typed.Inst) + "?>")
		}
	case xml.Directive:
		tokens.writeString("<!" + string(typed) + ">")
	}

	return tokens.err
}
