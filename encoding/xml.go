package encoding

import (
	"fmt"
	"io"

	"github.com/beevik/etree"
	"github.com/illuscio-dev/xmlsource-go/source"
	"github.com/illuscio-dev/xmlsource-go/sourceerrors"
)

/*
SourceProvider is the encoder / decoder registered for xml mimetypes. It hands message
bodies to application code as xml sources, and writes sources back out.

The type of the content receiver picks the representation:

• *source.Source receives whatever the converter picks for TargetSource, an
*source.EventSource unless the preferred format is "dom".

• **source.StreamSource receives the body untouched.

• **source.EventSource receives an event-backed source.

• **source.TreeSource and **etree.Document receive a parsed tree.

Any other receiver is rejected with sourceerrors.UnsupportedRepresentation before the
body is read.
*/
type SourceProvider struct {
	converter *source.Converter

	// Used when a message carries no preferred format.
	defaultFormat source.Format
}

// NewSourceProvider returns a provider that converts through converter. A nil converter
// uses source.DefaultConverter.
func NewSourceProvider(converter *source.Converter, defaultFormat source.Format) *SourceProvider {
	if converter == nil {
		converter = source.DefaultConverter
	}
	return &SourceProvider{
		converter:     converter,
		defaultFormat: defaultFormat,
	}
}

// Converter returns the converter the provider reads and writes with.
func (provider *SourceProvider) Converter() *source.Converter {
	return provider.converter
}

// targetFor maps a content receiver to the target it asks for.
func targetFor(contentReceiver interface{}) (source.Target, bool) {
	switch typed := contentReceiver.(type) {
	case *source.Source:
		return source.TargetSource, typed != nil
	case **source.StreamSource:
		return source.TargetStream, typed != nil
	case **source.EventSource:
		return source.TargetEvents, typed != nil
	case **source.TreeSource:
		return source.TargetTree, typed != nil
	case **etree.Document:
		return source.TargetTree, typed != nil
	}
	return source.TargetSource, false
}

// IsReadable reports whether Decode can fill contentReceiver.
func (provider *SourceProvider) IsReadable(contentReceiver interface{}) bool {
	_, ok := targetFor(contentReceiver)
	return ok
}

// sourceFor returns the source to write for content, or nil if content is not one.
func sourceFor(content interface{}) source.Source {
	switch typed := content.(type) {
	case *source.Source:
		if typed == nil {
			return nil
		}
		return *typed
	case source.Source:
		return typed
	case **source.StreamSource:
		if typed == nil || *typed == nil {
			return nil
		}
		return *typed
	case **source.EventSource:
		if typed == nil || *typed == nil {
			return nil
		}
		return *typed
	case **source.TreeSource:
		if typed == nil || *typed == nil {
			return nil
		}
		return *typed
	case *etree.Document:
		if typed == nil {
			return nil
		}
		return source.NewTreeSource(typed)
	}
	return nil
}

// IsWriteable reports whether Encode can write content.
func (provider *SourceProvider) IsWriteable(content interface{}) bool {
	return source.Writeable(sourceFor(content))
}

func (provider *SourceProvider) Decode(
	engine ContentEngine, reader io.Reader, contentReceiver interface{}, hints Hints,
) error {
	target, ok := targetFor(contentReceiver)
	if !ok {
		return sourceerrors.UnsupportedRepresentation.New(
			fmt.Sprintf("cannot decode xml into %T", contentReceiver), nil, nil,
		)
	}

	format := hints.PreferredFormat
	if format == source.FormatUnset {
		format = provider.defaultFormat
	}

	decoded, err := provider.converter.Read(target, format, reader)
	if err != nil {
		return err
	}

	switch typed := contentReceiver.(type) {
	case *source.Source:
		*typed = decoded
	case **source.StreamSource:
		*typed = decoded.(*source.StreamSource)
	case **source.EventSource:
		*typed = decoded.(*source.EventSource)
	case **source.TreeSource:
		*typed = decoded.(*source.TreeSource)
	case **etree.Document:
		*typed = decoded.(*source.TreeSource).Document
	}

	return nil
}

func (provider *SourceProvider) Encode(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	src := sourceFor(content)
	if !source.Writeable(src) {
		return sourceerrors.UnsupportedRepresentation.New(
			fmt.Sprintf("cannot encode %T as xml", content), nil, nil,
		)
	}
	return provider.converter.Write(src, writer)
}
