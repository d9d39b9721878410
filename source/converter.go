package source

import (
	"bytes"
	"io"

	"github.com/beevik/etree"
	"github.com/illuscio-dev/xmlsource-go/sourceerrors"
	"github.com/sirupsen/logrus"
)

// Options holds the parser and writer settings of a Converter.
type Options struct {
	// Accept documents that are not strictly well-formed at the lexical level (unquoted
	// attributes, html entities). Tag matching and the single root rule still apply.
	Permissive bool

	// Decode documents that declare a non utf-8 encoding.
	Charsets bool

	// Spaces to indent tree output by. 0 writes trees as they are.
	Indent int
}

// DefaultOptions returns the options used by DefaultConverter.
func DefaultOptions() Options {
	return Options{
		Permissive: false,
		Charsets:   true,
		Indent:     0,
	}
}

// Recorder receives an observation for every conversion. See the metrics package for
// a prometheus implementation.
type Recorder interface {
	ObserveRead(target Target, produced Representation)
	ObserveConvert(target Target, produced Representation)
	ObserveWrite(written Representation)
	ObserveFailure(operation string, err error)
}

// Operation names passed to Recorder.ObserveFailure.
const (
	operationRead    = "read"
	operationConvert = "convert"
	operationWrite   = "write"
)

type noopRecorder struct{}

func (noopRecorder) ObserveRead(Target, Representation)    {}
func (noopRecorder) ObserveConvert(Target, Representation) {}
func (noopRecorder) ObserveWrite(Representation)           {}
func (noopRecorder) ObserveFailure(string, error)          {}

/*
Converter turns message bodies into Source values and back.

A Converter holds no per-call state and is safe for concurrent use as long as every call
gets its own reader or writer. It never closes the readers and writers it is handed.

Instantiation

Use NewConverter() to create a Converter, then WithLogger() and WithRecorder() to attach
a logger or metrics. Both return a new Converter and leave the receiver untouched.
*/
type Converter struct {
	options  Options
	log      logrus.FieldLogger
	recorder Recorder
}

// NewConverter returns a Converter that does not log or record metrics.
func NewConverter(options Options) *Converter {
	discard := logrus.New()
	discard.Out = io.Discard

	return &Converter{
		options:  options,
		log:      discard,
		recorder: noopRecorder{},
	}
}

// WithLogger returns a copy of converter that logs to log.
func (converter *Converter) WithLogger(log logrus.FieldLogger) *Converter {
	copied := *converter
	copied.log = log
	return &copied
}

// WithRecorder returns a copy of converter that reports to recorder.
func (converter *Converter) WithRecorder(recorder Recorder) *Converter {
	copied := *converter
	copied.recorder = recorder
	return &copied
}

// Options returns the options converter was created with.
func (converter *Converter) Options() Options {
	return converter.options
}

func (converter *Converter) unsupported(operation string, message string) error {
	err := sourceerrors.UnsupportedRepresentation.New(message, nil, nil)
	converter.recorder.ObserveFailure(operation, err)
	return err
}

/*
Read converts the bytes of reader into the representation asked for by target.

• TargetStream wraps reader as-is.

• TargetTree parses the whole document.

• TargetSAX and TargetEvents wrap reader in an EventSource without reading from it.

• TargetSource does the same as TargetEvents unless format is FormatDOM, in which case it
parses a tree.

If reader is already a *StreamSource it is not wrapped a second time. An unknown target
returns sourceerrors.UnsupportedRepresentation before reader is touched.
*/
func (converter *Converter) Read(target Target, format Format, reader io.Reader) (Source, error) {
	if !Readable(target) {
		return nil, converter.unsupported(operationRead, "cannot read into target "+target.String())
	}
	if reader == nil {
		return nil, converter.unsupported(operationRead, "no reader to read from")
	}
	return converter.convert(operationRead, NewStreamSource(reader), target, format)
}

/*
Convert turns src into the representation asked for by target. Conversions are lossless
with respect to elements, attributes, text, comments and processing instructions.

Converting to the representation src already has returns src itself, so an event-backed
source is never wrapped in a second event adapter. TargetSource accepts any
representation but a raw stream; streams become event-backed unless format says
otherwise.

Converting out of an EventSource or StreamSource consumes it.
*/
func (converter *Converter) Convert(src Source, target Target, format Format) (Source, error) {
	if !Readable(target) {
		return nil, converter.unsupported(
			operationConvert, "cannot convert to target "+target.String(),
		)
	}
	if !Writeable(src) {
		return nil, converter.unsupported(operationConvert, "no source to convert")
	}
	return converter.convert(operationConvert, src, target, format)
}

func (converter *Converter) convert(
	operation string, src Source, target Target, format Format,
) (converted Source, err error) {
	produce := resolve(target, format, src.Representation())

	log := converter.log.WithFields(logrus.Fields{
		"operation": operation,
		"target":    target.String(),
		"format":    string(format),
		"from":      src.Representation().String(),
		"to":        produce.String(),
	})

	switch produce {
	case RepresentationStream:
		converted, err = converter.toStream(src)
	case RepresentationEvents:
		converted, err = converter.toEvents(src)
	default:
		converted, err = converter.toTree(src)
	}

	if err != nil {
		log.WithError(err).Debug("conversion failed")
		converter.recorder.ObserveFailure(operation, err)
		return nil, err
	}

	log.Debug("converted source")
	if operation == operationRead {
		converter.recorder.ObserveRead(target, produce)
	} else {
		converter.recorder.ObserveConvert(target, produce)
	}
	return converted, nil
}

// serialize writes src to a buffer for conversions that have to go through text.
func (converter *Converter) serialize(src Source) (*bytes.Buffer, error) {
	buffer := new(bytes.Buffer)
	if _, err := src.WriteTo(buffer); err != nil {
		return nil, err
	}
	return buffer, nil
}

func (converter *Converter) toStream(src Source) (Source, error) {
	if stream, ok := src.(*StreamSource); ok {
		return stream, nil
	}
	buffer, err := converter.serialize(src)
	if err != nil {
		return nil, err
	}
	return NewStreamSource(buffer), nil
}

func (converter *Converter) toEvents(src Source) (Source, error) {
	switch typed := src.(type) {
	case *EventSource:
		return typed, nil
	case *StreamSource:
		return newEventSource(typed.Reader, converter.options), nil
	}
	buffer, err := converter.serialize(src)
	if err != nil {
		return nil, err
	}
	return newEventSource(buffer, converter.options), nil
}

func (converter *Converter) toTree(src Source) (Source, error) {
	var events *EventSource

	switch typed := src.(type) {
	case *TreeSource:
		return typed, nil
	case *EventSource:
		events = typed
	case *StreamSource:
		events = newEventSource(typed.Reader, converter.options)
	}

	document, err := buildTree(events)
	if err != nil {
		return nil, err
	}
	return &TreeSource{Document: document, indent: converter.options.Indent}, nil
}

// Writeable reports whether src is a representation Write can serialize.
func Writeable(src Source) bool {
	switch typed := src.(type) {
	case *StreamSource:
		return typed != nil && typed.Reader != nil
	case *EventSource:
		return typed != nil && typed.decoder != nil && typed.err != io.EOF
	case *TreeSource:
		return typed != nil && typed.Document != nil
	}
	return false
}

// Write serializes src to writer. Every representation goes through its WriteTo
// method. writer is not closed, and errors returned by writer are passed back as-is.
func (converter *Converter) Write(src Source, writer io.Writer) error {
	if !Writeable(src) {
		return converter.unsupported(operationWrite, "cannot write an empty or fully read source")
	}
	if writer == nil {
		return converter.unsupported(operationWrite, "no writer to write to")
	}

	log := converter.log.WithField("representation", src.Representation().String())

	written, err := src.WriteTo(writer)
	if err != nil {
		log.WithError(err).Debug("write failed")
		converter.recorder.ObserveFailure(operationWrite, err)
		return err
	}

	log.WithField("bytes", written).Debug("wrote source")
	converter.recorder.ObserveWrite(src.Representation())
	return nil
}

// Document materializes src as a document tree.
func (converter *Converter) Document(src Source) (*etree.Document, error) {
	tree, err := converter.Convert(src, TargetTree, FormatUnset)
	if err != nil {
		return nil, err
	}
	return tree.(*TreeSource).Document, nil
}

// DefaultConverter is used by the package level functions.
var DefaultConverter = NewConverter(DefaultOptions())

// Read calls DefaultConverter.Read.
func Read(target Target, format Format, reader io.Reader) (Source, error) {
	return DefaultConverter.Read(target, format, reader)
}

// Convert calls DefaultConverter.Convert.
func Convert(src Source, target Target, format Format) (Source, error) {
	return DefaultConverter.Convert(src, target, format)
}

// Write calls DefaultConverter.Write.
func Write(src Source, writer io.Writer) error {
	return DefaultConverter.Write(src, writer)
}
