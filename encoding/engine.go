package encoding

import (
	"bytes"
	"fmt"
	"io"

	"github.com/beevik/etree"
	"github.com/illuscio-dev/xmlsource-go/mimetype"
	"github.com/illuscio-dev/xmlsource-go/source"
	"github.com/illuscio-dev/xmlsource-go/sourceerrors"
	"golang.org/x/xerrors"
)

// Type helpers
type encoderMapping map[mimetype.MimeType]Encoder
type decoderMapping map[mimetype.MimeType]Decoder

/*
ContentEngine details the contract for a content encoding engine. The goal of the
content engine is to allow a common decoding and encoding methodology for any
supported mimetype, so a message body can be handed to a handler in the shape it asks
for without the handler calling mimetype-specific code.
*/
type ContentEngine interface {
	// Registers an encoder for a given mimetype.
	SetEncoder(mimeType mimetype.MimeType, encoder Encoder)

	// Registers a decoder for a given mimetype.
	SetDecoder(mimeType mimetype.MimeType, decoder Decoder)

	// Returns true if the engine has a registered encoder for the mimetype.
	HandlesEncode(mimeType mimetype.MimeType) bool

	// Returns true if the engine has a registered decoder for the mimetype.
	HandlesDecode(mimeType mimetype.MimeType) bool

	// Returns true if the engine has a registered encoder AND decoder for the mimetype.
	Handles(mimeType mimetype.MimeType) bool

	// Whether the engine will attempt to decode unknown mimetypes.
	SniffType() bool

	// Decode mimeType content from reader using the decoder for mimeType. Decoded
	// content is stored in contentReceiver.
	Decode(
		mimeType mimetype.MimeType,
		contentReceiver interface{},
		reader io.Reader,
		hints Hints,
	) error

	// Encode content as mimetype using registered mimeType to writer.
	Encode(
		mimeType mimetype.MimeType,
		content interface{},
		writer io.Writer,
	) error
}

/*
SourceEngine is the default implementation of the ContentEngine interface.
Implementation is done through an Interface so that the Engine can be extended
through type wrapping.

Instantiation

Use NewContentEngine() to create a new SourceEngine.

Default Mimetypes

• application/xml and text/xml, handled by a SourceProvider.

• text/plain

Unknown Mimetypes

When no mimetype is known, xml sources and documents are decoded / encoded as
application/xml and strings as text/plain. For any other receiver, if created with
"allowSniff" set to true, SourceEngine will attempt each decoder in registration order
until one does not return an error or panic. Sniffing buffers the whole body.

Readers and Writers

SourceEngine never closes the readers and writers it is handed. A stream source decoded
from a reader still reads from it after Decode returns.

Panics

If an encoder or decoder panics during execution, that panic is caught and returned as
a sourceerrors.ConversionError.
*/
type SourceEngine struct {
	// MimeType:Encoder mapping
	encoders encoderMapping
	// MimeType:Decoder mapping
	decoders decoderMapping
	// Registered mimetypes in registration order. Used for sniffing.
	decoderOrder []mimetype.MimeType
	// Whether to attempt decoding when no explicit mimetype is known.
	sniffMimeType bool

	// Provider registered for the xml mimetypes.
	provider *SourceProvider
	// Engine to pass to Encoder.Encode() and Decoder.Decode() methods.
	passedEngine ContentEngine
}

// Change the engine passed into Encoder.Encode() and Decoder.Decode()
func (engine *SourceEngine) SetPassedEngine(newEngine ContentEngine) {
	engine.passedEngine = newEngine
}

// Register an encoder for a given mimeType
func (engine *SourceEngine) SetEncoder(mimeType mimetype.MimeType, encoder Encoder) {
	engine.encoders[mimeType] = encoder
}

// Register a decoder for a given mimeType
func (engine *SourceEngine) SetDecoder(mimeType mimetype.MimeType, decoder Decoder) {
	if _, ok := engine.decoders[mimeType]; !ok {
		engine.decoderOrder = append(engine.decoderOrder, mimeType)
	}
	engine.decoders[mimeType] = decoder
}

// Whether SourceEngine will attempt to decode UNKNOWN content.
func (engine *SourceEngine) SniffType() bool {
	return engine.sniffMimeType
}

// Whether the SourceEngine has a registered encoder for mimeType.
func (engine *SourceEngine) HandlesEncode(mimeType mimetype.MimeType) bool {
	_, ok := engine.encoders[mimeType]
	return ok
}

// Whether the SourceEngine has a registered decoder for mimeType.
func (engine *SourceEngine) HandlesDecode(mimeType mimetype.MimeType) bool {
	_, ok := engine.decoders[mimeType]
	return ok
}

// Whether the SourceEngine has a registered decoder AND encoder for mimeType.
func (engine *SourceEngine) Handles(mimeType mimetype.MimeType) bool {
	return engine.HandlesEncode(mimeType) && engine.HandlesDecode(mimeType)
}

// Provider returns the SourceProvider registered for xml.
func (engine *SourceEngine) Provider() *SourceProvider {
	return engine.provider
}

// Select what engine to pass into the encoder / decoder in case we are extending
// the engine type.
func (engine *SourceEngine) getEngine() (passEngine ContentEngine) {
	if engine.passedEngine != nil {
		passEngine = engine.passedEngine
	} else {
		passEngine = engine
	}

	return passEngine
}

// recoveredError reports a recovered panic as a ConversionError.
func recoveredError(operation string, recovered interface{}) error {
	if recoveredErr, ok := recovered.(error); ok {
		return sourceerrors.ConversionError.Wrap("panic during "+operation, recoveredErr)
	}
	return sourceerrors.ConversionError.New(
		fmt.Sprintf("panic during %v: %v", operation, recovered), nil, nil,
	)
}

// Uses an encoder while catching panics to return as errors
func (engine *SourceEngine) safeEncode(
	encoder Encoder, writer io.Writer, content interface{},
) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = recoveredError("encode", recovered)
		}
	}()

	passEngine := engine.getEngine()
	err = encoder.Encode(passEngine, writer, content)
	return err
}

// Uses a decoder while catching panics to return as errors
func (engine *SourceEngine) safeDecode(
	decoder Decoder, reader io.Reader, contentReceiver interface{}, hints Hints,
) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = recoveredError("decode", recovered)
		}
	}()

	passEngine := engine.getEngine()
	err = decoder.Decode(passEngine, reader, contentReceiver, hints)

	return err
}

// Attempts to decode content with all registered decoders until one succeeds or all
// fail.
func (engine *SourceEngine) sniffContent(
	contentReceiver interface{},
	reader io.Reader,
	hints Hints,
) error {
	// We need to read the content multiple times, so lets load the bytes into a var.
	// This will cause a slight performance hit, which is why this is a separate process
	// from loading a KNOWN mimetype.
	contentBuffer := bytes.NewBuffer(make([]byte, 0))
	if _, err := contentBuffer.ReadFrom(reader); err != nil {
		return xerrors.Errorf("error reading contentBytes: %w", err)
	}

	var decoderErr error

	for _, mimeType := range engine.decoderOrder {
		// Make a reader for this attempt, otherwise we'll run out of bytes.
		thisReader := bytes.NewReader(contentBuffer.Bytes())
		thisErr := engine.safeDecode(
			engine.decoders[mimeType], thisReader, contentReceiver, hints,
		)

		if thisErr == nil {
			return nil
		}
		if decoderErr == nil {
			decoderErr = thisErr
		} else {
			decoderErr = xerrors.Errorf(
				"decoding error: %v after: %w", thisErr, decoderErr,
			)
		}
	}

	if decoderErr == nil {
		decoderErr = xerrors.New("no decoders registered")
	}
	return decoderErr
}

// Picks the mimetype for encoding / decoding objects when source or target mimetype is
// unknown.
func pickContentMimeType(
	mimeType mimetype.MimeType, content interface{},
) mimetype.MimeType {
	if mimeType != mimetype.UNKNOWN {
		return mimeType
	}

	switch content.(type) {
	case string, *string:
		return mimetype.TEXT
	case source.Source, *source.Source, **source.StreamSource, **source.EventSource,
		**source.TreeSource, *etree.Document, **etree.Document:
		return mimetype.XML
	}
	return mimetype.UNKNOWN
}

func (engine *SourceEngine) Decode(
	mimeType mimetype.MimeType,
	contentReceiver interface{},
	reader io.Reader,
	hints Hints,
) error {
	mimeType = pickContentMimeType(mimeType, contentReceiver)

	// If we want to sniff
	if mimeType == mimetype.UNKNOWN {
		if !engine.SniffType() {
			return xerrors.New("mimetype is unknown and sniffing is disabled")
		}
		return engine.sniffContent(contentReceiver, reader, hints)
	}

	decoder, ok := engine.decoders[mimeType]
	if !ok {
		return xerrors.New("no decoder for " + string(mimeType))
	}

	err := engine.safeDecode(decoder, reader, contentReceiver, hints)
	if err != nil {
		return xerrors.Errorf("decode err: %w", err)
	}

	return nil
}

func (engine *SourceEngine) Encode(
	mimeType mimetype.MimeType,
	content interface{},
	writer io.Writer,
) error {
	mimeType = pickContentMimeType(mimeType, content)

	encoder, ok := engine.encoders[mimeType]
	if !ok {
		return xerrors.New("no encoder for " + string(mimeType))
	}

	err := engine.safeEncode(encoder, writer, content)
	if err != nil {
		return xerrors.Errorf("encode err: %w", err)
	}
	return nil
}

// NewContentEngine returns a SourceEngine with the default encoders and decoders
// registered. xml is read and written through provider; a nil provider uses
// source.DefaultConverter with no preferred format.
func NewContentEngine(allowSniff bool, provider *SourceProvider) *SourceEngine {
	if provider == nil {
		provider = NewSourceProvider(nil, source.FormatUnset)
	}

	// Create the content engine.
	engine := &SourceEngine{
		encoders:      make(encoderMapping),
		decoders:      make(decoderMapping),
		sniffMimeType: allowSniff,
		provider:      provider,
	}

	// Add the encoders.
	engine.SetEncoder(mimetype.XML, provider)
	engine.SetEncoder(mimetype.TEXTXML, provider)
	engine.SetEncoder(mimetype.TEXT, &textEncoder{})

	// Add the default decoders.
	engine.SetDecoder(mimetype.XML, provider)
	engine.SetDecoder(mimetype.TEXTXML, provider)
	engine.SetDecoder(mimetype.TEXT, &textEncoder{})

	return engine
}
