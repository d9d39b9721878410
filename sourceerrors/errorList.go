package sourceerrors

// Base Error. Used when a conversion fails for a reason not covered below.
var ConversionError = NewSourceErrorType(
	"ConversionError",
	2000,
	500,
)

// The requested representation is not one the converter can produce or accept.
var UnsupportedRepresentation = NewSourceErrorType(
	"UnsupportedRepresentation",
	2001,
	415,
)

// Content could not be parsed as a single well-formed xml document.
var MalformedDocument = NewSourceErrorType(
	"MalformedDocument",
	2002,
	400,
)

// List of default SourceError definitions.
var ErrorList = [3]*SourceErrorType{
	ConversionError,
	UnsupportedRepresentation,
	MalformedDocument,
}

// Used to make ErrorTypeCodeIndex.
func makeDefaultErrorCodeIndex() map[int]*SourceErrorType {
	index := make(map[int]*SourceErrorType)
	for _, errorType := range ErrorList {
		index[errorType.apiCode] = errorType
	}
	return index
}

// ApiCode:*ErrorType indexing of default errors.
var ErrorTypeCodeIndex = makeDefaultErrorCodeIndex()
