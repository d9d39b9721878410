package sourceerrors

import (
	"strconv"
	"strings"

	uuid "github.com/satori/go.uuid"
	"github.com/ugorji/go/codec"
	"golang.org/x/xerrors"
)

// json handle shared by header encoding / decoding of error data.
var jsonHandle = &codec.JsonHandle{}

// NewSourceErrorType declares an error type. Declare each type once, in a shared
// package, so every service reports it with the same name and codes.
func NewSourceErrorType(name string, apiCode int, httpCode int) *SourceErrorType {
	return &SourceErrorType{
		name:     name,
		apiCode:  apiCode,
		httpCode: httpCode,
	}
}

type headerFetcher interface {
	Get(key string) string
}

/*
ErrorFromHeaders rebuilds an error written by SourceError.ToHeader, looking its type up
in index by api code.

hasError reports whether the headers carry an error code at all. When they do but the
error cannot be rebuilt (unknown code, bad id, bad data), hasError is true and err
explains why. When they do not, sourceError is nil, hasError is false and err says so.
*/
func ErrorFromHeaders(
	headers headerFetcher, index map[int]*SourceErrorType,
) (sourceError *SourceError, hasError bool, err error) {
	codeHeader := headers.Get(headerCode)
	if codeHeader == "" {
		return nil, false, xerrors.New("no error in headers")
	}

	code, err := strconv.Atoi(codeHeader)
	if err != nil {
		return nil, false, xerrors.New("error-code not int")
	}

	if index == nil {
		return nil, true, xerrors.New("no error index provided")
	}
	errorType, ok := index[code]
	if !ok {
		return nil, true, xerrors.New("no known error for code " + codeHeader)
	}

	id, err := uuid.FromString(headers.Get(headerID))
	if err != nil {
		return nil, true, xerrors.New("error id is not valid UUID")
	}

	var errorData map[string]interface{}
	if dataHeader := headers.Get(headerData); dataHeader != "" {
		errorData = make(map[string]interface{})
		decoder := codec.NewDecoder(strings.NewReader(dataHeader), jsonHandle)
		if err := decoder.Decode(&errorData); err != nil {
			return nil, true, xerrors.New("error data could not be parsed as JSON")
		}
	}

	sourceError = errorType.New(headers.Get(headerMessage), errorData, nil)
	sourceError.ID = id
	return sourceError, true, nil
}
