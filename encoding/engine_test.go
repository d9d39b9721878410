package encoding_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/illuscio-dev/xmlsource-go/encoding"
	"github.com/illuscio-dev/xmlsource-go/mimetype"
	"github.com/illuscio-dev/xmlsource-go/source"
	"github.com/illuscio-dev/xmlsource-go/sourceerrors"
	"github.com/stretchr/testify/assert"
	"golang.org/x/xerrors"
)

const testDocument = "<test/>"

var errMock = xerrors.New("mock reader error")

type PanickyEncoder struct{}

func (encoder *PanickyEncoder) Encode(
	handler encoding.ContentEngine, writer io.Writer, content interface{},
) error {
	panic(xerrors.New("encode panicked"))
}

func (encoder *PanickyEncoder) Decode(
	handler encoding.ContentEngine,
	reader io.Reader,
	contentReceiver interface{},
	hints encoding.Hints,
) error {
	panic("decode panicked")
}

// Decodes one line per value into a *[]string.
type lineDecoder struct{}

func (decoder *lineDecoder) Decode(
	handler encoding.ContentEngine,
	reader io.Reader,
	contentReceiver interface{},
	hints encoding.Hints,
) error {
	lines, ok := contentReceiver.(*[]string)
	if !ok {
		return xerrors.New("content receiver must be a string slice pointer")
	}
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		*lines = append(*lines, scanner.Text())
	}
	return scanner.Err()
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errMock
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errMock
}

func createEngine(test *testing.T) *encoding.SourceEngine {
	engine := encoding.NewContentEngine(true, nil)
	if engine == nil {
		test.Fatal("no engine created")
	}
	return engine
}

func TestCreateEngineDefault(test *testing.T) {
	assert := assert.New(test)

	engine := encoding.NewContentEngine(false, nil)
	assert.NotNil(engine)
	assert.NotNil(engine.Provider())
	assert.Same(source.DefaultConverter, engine.Provider().Converter())

	// Test that all the defaults registered appropriately.
	assert.True(engine.Handles(mimetype.XML))
	assert.True(engine.Handles(mimetype.TEXTXML))
	assert.True(engine.Handles(mimetype.TEXT))

	assert.False(engine.Handles(mimetype.MimeType("text/csv")))
	assert.False(engine.HandlesEncode(mimetype.MimeType("text/csv")))
	assert.False(engine.HandlesDecode(mimetype.MimeType("text/csv")))

	assert.False(engine.SniffType())
}

func TestDecodeReceivers(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	var general source.Source
	err := engine.Decode(
		mimetype.XML, &general, strings.NewReader(testDocument), encoding.Hints{},
	)
	assert.NoError(err)
	assert.IsType(&source.EventSource{}, general)

	var stream *source.StreamSource
	err = engine.Decode(
		mimetype.XML, &stream, strings.NewReader(testDocument), encoding.Hints{},
	)
	assert.NoError(err)
	assert.NotNil(stream)

	var events *source.EventSource
	err = engine.Decode(
		mimetype.TEXTXML, &events, strings.NewReader(testDocument), encoding.Hints{},
	)
	assert.NoError(err)
	assert.NotNil(events)

	var tree *source.TreeSource
	err = engine.Decode(
		mimetype.XML, &tree, strings.NewReader(testDocument), encoding.Hints{},
	)
	assert.NoError(err)
	assert.Equal("test", tree.Root().Tag)

	var document *etree.Document
	err = engine.Decode(
		mimetype.XML, &document, strings.NewReader(testDocument), encoding.Hints{},
	)
	assert.NoError(err)
	assert.Equal("test", document.Root().Tag)
}

func TestDecodePreferredFormat(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	var general source.Source
	err := engine.Decode(
		mimetype.XML,
		&general,
		strings.NewReader(testDocument),
		encoding.Hints{PreferredFormat: source.FormatDOM},
	)
	assert.NoError(err)
	assert.IsType(&source.TreeSource{}, general)

	err = engine.Decode(
		mimetype.XML,
		&general,
		strings.NewReader(testDocument),
		encoding.Hints{PreferredFormat: source.FormatSAX},
	)
	assert.NoError(err)
	assert.IsType(&source.EventSource{}, general)

	// Pinned receivers ignore the hint.
	var stream *source.StreamSource
	err = engine.Decode(
		mimetype.XML,
		&stream,
		strings.NewReader(testDocument),
		encoding.Hints{PreferredFormat: source.FormatDOM},
	)
	assert.NoError(err)
	assert.NotNil(stream)
}

func TestProviderDefaultFormat(test *testing.T) {
	assert := assert.New(test)

	provider := encoding.NewSourceProvider(nil, source.FormatDOM)
	engine := encoding.NewContentEngine(false, provider)
	assert.Same(provider, engine.Provider())

	var general source.Source
	err := engine.Decode(
		mimetype.XML, &general, strings.NewReader(testDocument), encoding.Hints{},
	)
	assert.NoError(err)
	assert.IsType(&source.TreeSource{}, general)

	// A hint on the message wins over the default.
	err = engine.Decode(
		mimetype.XML,
		&general,
		strings.NewReader(testDocument),
		encoding.Hints{PreferredFormat: source.FormatSAX},
	)
	assert.NoError(err)
	assert.IsType(&source.EventSource{}, general)
}

func TestHintsFromHeader(test *testing.T) {
	assert := assert.New(test)

	header := make(http.Header)
	assert.Equal(source.FormatUnset, encoding.HintsFromHeader(header).PreferredFormat)

	header.Set(encoding.PreferredFormatHeader, "SAX")
	assert.Equal(source.FormatSAX, encoding.HintsFromHeader(header).PreferredFormat)

	header.Set(encoding.PreferredFormatHeader, "dom")
	assert.Equal(source.FormatDOM, encoding.HintsFromHeader(header).PreferredFormat)
}

func TestProviderReadableWriteable(test *testing.T) {
	assert := assert.New(test)

	provider := encoding.NewSourceProvider(nil, source.FormatUnset)

	var general source.Source
	var stream *source.StreamSource
	var events *source.EventSource
	var tree *source.TreeSource
	var document *etree.Document
	var text string

	assert.True(provider.IsReadable(&general))
	assert.True(provider.IsReadable(&stream))
	assert.True(provider.IsReadable(&events))
	assert.True(provider.IsReadable(&tree))
	assert.True(provider.IsReadable(&document))
	assert.False(provider.IsReadable(&text))
	assert.False(provider.IsReadable(general))
	assert.False(provider.IsReadable(nil))

	assert.True(provider.IsWriteable(source.NewStreamSource(strings.NewReader(""))))
	assert.True(provider.IsWriteable(source.NewEventSource(strings.NewReader(""))))
	assert.True(provider.IsWriteable(source.NewTreeSource(etree.NewDocument())))
	assert.True(provider.IsWriteable(etree.NewDocument()))
	assert.False(provider.IsWriteable(&general))
	assert.False(provider.IsWriteable(&stream))
	assert.False(provider.IsWriteable(&tree))
	assert.False(provider.IsWriteable("<test/>"))
	assert.False(provider.IsWriteable(nil))
}

func TestEncodeSources(test *testing.T) {
	engine := createEngine(test)

	stream := source.NewStreamSource(strings.NewReader(testDocument))

	document := etree.NewDocument()
	if err := document.ReadFromString(testDocument); err != nil {
		test.Fatal(err)
	}

	var general source.Source = source.NewEventSource(strings.NewReader(testDocument))

	for name, content := range map[string]interface{}{
		"stream":   stream,
		"document": document,
		"general":  &general,
	} {
		test.Run(name, func(test *testing.T) {
			buffer := new(bytes.Buffer)
			err := engine.Encode(mimetype.XML, content, buffer)
			assert.NoError(test, err)
			assert.Contains(test, buffer.String(), testDocument)
		})
	}
}

func TestEncodeDecodedReceivers(test *testing.T) {
	engine := createEngine(test)

	var stream *source.StreamSource
	var events *source.EventSource
	var tree *source.TreeSource

	for name, receiver := range map[string]interface{}{
		"stream": &stream,
		"events": &events,
		"tree":   &tree,
	} {
		test.Run(name, func(test *testing.T) {
			assert := assert.New(test)

			err := engine.Decode(
				mimetype.XML, receiver, strings.NewReader(testDocument), encoding.Hints{},
			)
			if err != nil {
				test.Fatal(err)
			}

			buffer := new(bytes.Buffer)
			err = engine.Encode(mimetype.XML, receiver, buffer)
			assert.NoError(err)
			assert.Equal(testDocument, buffer.String())
		})
	}
}

func TestXMLRoundTrip(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	var tree *source.TreeSource
	err := engine.Decode(
		mimetype.XML,
		&tree,
		strings.NewReader(`<a x="1"><b>text</b></a>`),
		encoding.Hints{},
	)
	if err != nil {
		test.Fatal(err)
	}

	buffer := new(bytes.Buffer)
	err = engine.Encode(mimetype.XML, tree, buffer)
	assert.NoError(err)
	assert.Equal(`<a x="1"><b>text</b></a>`, buffer.String())
}

func TestUnknownMimeTypeUsesXML(test *testing.T) {
	assert := assert.New(test)
	engine := encoding.NewContentEngine(false, nil)

	var tree *source.TreeSource
	err := engine.Decode(
		mimetype.UNKNOWN, &tree, strings.NewReader(testDocument), encoding.Hints{},
	)
	assert.NoError(err)
	assert.Equal("test", tree.Root().Tag)

	buffer := new(bytes.Buffer)
	err = engine.Encode(mimetype.UNKNOWN, tree, buffer)
	assert.NoError(err)
	assert.Equal(testDocument, buffer.String())
}

func TestDecodeUnsupportedReceiver(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	reader := strings.NewReader(testDocument)
	receiver := make(map[string]interface{})

	err := engine.Decode(mimetype.XML, &receiver, reader, encoding.Hints{})
	assert.EqualError(
		err,
		"decode err: UnsupportedRepresentation (2001) - cannot decode xml into "+
			"*map[string]interface {}",
	)
	assert.True(xerrors.Is(err, sourceerrors.UnsupportedRepresentation))

	// The body was not touched.
	assert.Equal(len(testDocument), reader.Len())
}

func TestEncodeUnsupportedContent(test *testing.T) {
	engine := createEngine(test)

	err := engine.Encode(mimetype.XML, 42, new(bytes.Buffer))
	assert.EqualError(
		test, err, "encode err: UnsupportedRepresentation (2001) - cannot encode int as xml",
	)
	assert.True(test, xerrors.Is(err, sourceerrors.UnsupportedRepresentation))
}

func TestDecodeMalformed(test *testing.T) {
	engine := createEngine(test)

	var tree *source.TreeSource
	err := engine.Decode(mimetype.XML, &tree, strings.NewReader("<test"), encoding.Hints{})

	assert.True(test, xerrors.Is(err, sourceerrors.MalformedDocument))
	assert.Nil(test, tree)
}

func TestReaderWriterErrorsPassedThrough(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	var tree *source.TreeSource
	err := engine.Decode(mimetype.XML, &tree, failingReader{}, encoding.Hints{})
	assert.True(xerrors.Is(err, errMock))
	assert.False(xerrors.Is(err, sourceerrors.MalformedDocument))

	stream := source.NewStreamSource(strings.NewReader(testDocument))
	err = engine.Encode(mimetype.XML, stream, failingWriter{})
	assert.True(xerrors.Is(err, errMock))
}

func TestTextRoundTrip(test *testing.T) {
	engine := encoding.NewContentEngine(false, nil)

	stringPayload := "Test String."
	buffer := bytes.Buffer{}

	err := engine.Encode(mimetype.TEXT, stringPayload, &buffer)
	if err != nil {
		test.Error(err)
	}

	loaded := ""
	err = engine.Decode(mimetype.TEXT, &loaded, &buffer, encoding.Hints{})
	if err != nil {
		test.Error(err)
	}

	assert.Equal(test, stringPayload, loaded)
}

func TestTextRoundUnknown(test *testing.T) {
	engine := createEngine(test)

	stringPayload := "Test String."
	buffer := bytes.Buffer{}

	err := engine.Encode(mimetype.UNKNOWN, stringPayload, &buffer)
	if err != nil {
		test.Error(err)
	}

	loaded := ""
	err = engine.Decode(mimetype.UNKNOWN, &loaded, &buffer, encoding.Hints{})
	if err != nil {
		test.Error(err)
	}

	assert.Equal(test, stringPayload, loaded)
}

func TestNoDecoderError(test *testing.T) {
	engine := createEngine(test)
	buffer := &bytes.Buffer{}
	receiver := make(map[string]interface{})

	err := engine.Decode("text/csv", receiver, buffer, encoding.Hints{})

	assert.EqualError(test, err, "no decoder for text/csv")
}

func TestNoEncoderError(test *testing.T) {
	engine := createEngine(test)
	buffer := &bytes.Buffer{}
	data := make(map[string]interface{})

	err := engine.Encode("text/csv", data, buffer)

	assert.EqualError(test, err, "no encoder for text/csv")
}

func TestEncodePanicsError(test *testing.T) {
	engine := createEngine(test)
	buffer := &bytes.Buffer{}

	encoder := &PanickyEncoder{}
	engine.SetEncoder("text/csv", encoder)

	data := make(map[string]interface{})
	err := engine.Encode("text/csv", data, buffer)

	assert.EqualError(
		test, err, "encode err: ConversionError (2000) - panic during encode: encode panicked",
	)
	assert.True(test, xerrors.Is(err, sourceerrors.ConversionError))
}

func TestDecoderPanicsError(test *testing.T) {
	engine := createEngine(test)
	buffer := &bytes.Buffer{}

	decoder := &PanickyEncoder{}
	engine.SetDecoder("text/csv", decoder)

	data := make(map[string]interface{})
	err := engine.Decode("text/csv", data, buffer, encoding.Hints{})

	assert.EqualError(
		test, err, "decode err: ConversionError (2000) - panic during decode: decode panicked",
	)
	assert.True(test, xerrors.Is(err, sourceerrors.ConversionError))
}

func TestNoSniffError(test *testing.T) {
	engine := encoding.NewContentEngine(false, nil)

	buffer := &bytes.Buffer{}
	receiver := make(map[string]interface{})

	err := engine.Decode(mimetype.UNKNOWN, receiver, buffer, encoding.Hints{})
	assert.EqualError(
		test, err, "mimetype is unknown and sniffing is disabled",
	)
}

func TestSniffFailsError(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	receiver := make(map[string]interface{})

	err := engine.Decode(
		mimetype.UNKNOWN, receiver, strings.NewReader(testDocument), encoding.Hints{},
	)
	assert.Contains(
		err.Error(),
		"content receiver must be a string pointer to receive a string",
	)
	assert.Contains(
		err.Error(),
		"cannot decode xml into map[string]interface {}",
	)
	assert.True(xerrors.Is(err, sourceerrors.UnsupportedRepresentation))
}

func TestSniffSucceeds(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)
	engine.SetDecoder("text/csv", &lineDecoder{})

	lines := make([]string, 0)
	err := engine.Decode(
		mimetype.UNKNOWN, &lines, strings.NewReader("a,b\nc,d"), encoding.Hints{},
	)

	assert.NoError(err)
	assert.Equal([]string{"a,b", "c,d"}, lines)
}

func TestSniffErrorReadingBytes(test *testing.T) {
	engine := createEngine(test)
	receiver := make(map[string]interface{})

	err := engine.Decode(mimetype.UNKNOWN, receiver, failingReader{}, encoding.Hints{})
	assert.EqualError(
		test, err, "error reading contentBytes: mock reader error",
	)
}

type TestCloser struct {
	Buffer *bytes.Buffer
	Closed bool
}

func (closer *TestCloser) Read(p []byte) (n int, err error) {
	return closer.Buffer.Read(p)
}

func (closer *TestCloser) Close() error {
	closer.Closed = true
	return nil
}

func TestDoesNotCloseReader(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	for _, receiver := range []interface{}{
		new(*source.StreamSource),
		new(*source.EventSource),
		new(*source.TreeSource),
		new(source.Source),
	} {
		closer := &TestCloser{
			Buffer: bytes.NewBufferString(testDocument),
		}

		err := engine.Decode(mimetype.XML, receiver, closer, encoding.Hints{})
		assert.NoError(err)
		assert.False(closer.Closed)
	}
}

func TestStreamReadsAfterDecode(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	closer := &TestCloser{
		Buffer: bytes.NewBufferString(testDocument),
	}

	var stream *source.StreamSource
	err := engine.Decode(mimetype.XML, &stream, closer, encoding.Hints{})
	assert.NoError(err)
	assert.Equal(len(testDocument), closer.Buffer.Len())

	buffer := new(bytes.Buffer)
	assert.NoError(engine.Encode(mimetype.XML, stream, buffer))
	assert.Equal(testDocument, buffer.String())
}

// Custom Engine and encoder we are going to use in the next test
type CustomEngine struct {
	*encoding.SourceEngine
	AppName string
}

type CustomTextEncoder struct{}

func (encoder CustomTextEncoder) Encode(
	engine encoding.ContentEngine, writer io.Writer, content interface{},
) error {
	// Make a type assert to convert the engine interface passed in to the encoder
	// to our engine type.
	ourEngine := engine.(*CustomEngine)

	// This Encoder is only going to accept strings, so we're going to assert the
	// type here.
	contentString := content.(string)
	contentString = ourEngine.AppName + " says: '" + contentString + "'."

	_, err := writer.Write([]byte(contentString))
	if err != nil {
		return xerrors.Errorf("error writing text to payload: %w", err)
	}
	return nil
}

func TestExtendEngine(test *testing.T) {
	engine := encoding.NewContentEngine(false, nil)

	ourEngine := &CustomEngine{
		SourceEngine: engine,
		AppName:      "MyAwesomeApp",
	}
	ourEngine.SetPassedEngine(ourEngine)

	ourEngine.SetEncoder(mimetype.TEXT, &CustomTextEncoder{})

	buffer := new(bytes.Buffer)
	err := ourEngine.Encode(mimetype.TEXT, "some message", buffer)
	if err != nil {
		test.Fatal(err)
	}

	assert.Equal(
		test, "MyAwesomeApp says: 'some message'.", buffer.String(),
	)
}
