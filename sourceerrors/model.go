package sourceerrors

import (
	"bytes"
	"fmt"
	"runtime/debug"
	"strconv"

	uuid "github.com/satori/go.uuid"
	"github.com/ugorji/go/codec"
	"golang.org/x/xerrors"
)

// Header keys written by ToHeader and read by ErrorFromHeaders.
const (
	headerName    = "error-name"
	headerCode    = "error-code"
	headerMessage = "error-message"
	headerID      = "error-id"
	headerData    = "error-data"
)

// Anything with a Set(key, value) method, such as http.Header.
type headerSetter interface {
	Set(key string, value string)
}

/*
SourceErrorType is one kind of failure a conversion can report. Names and api codes are
unique; codes 2000-2999 belong to this package.

Fields are private so other packages cannot change a shared type. Declare new types with
NewSourceErrorType().
*/
type SourceErrorType struct {
	name     string
	apiCode  int
	httpCode int
}

func (errorType *SourceErrorType) newError(
	message string, errorData map[string]interface{}, cause error,
) *SourceError {
	return &SourceError{
		SourceErrorType: errorType,
		Message:         message,
		ID:              uuid.NewV4(),
		ErrorData:       errorData,
		cause:           cause,
		stack:           debug.Stack(),
		frame:           xerrors.Caller(2),
	}
}

// New returns an error of this type. cause may be nil.
func (errorType *SourceErrorType) New(
	message string, errorData map[string]interface{}, cause error,
) *SourceError {
	return errorType.newError(message, errorData, cause)
}

// Wrap returns an error of this type caused by cause, with the message of cause
// appended to message.
func (errorType *SourceErrorType) Wrap(message string, cause error) *SourceError {
	if cause != nil {
		message += ": " + cause.Error()
	}
	return errorType.newError(message, nil, cause)
}

func (errorType *SourceErrorType) Name() string {
	return errorType.name
}

func (errorType *SourceErrorType) ApiCode() int {
	return errorType.apiCode
}

// HttpCode is the status a transport should answer with.
func (errorType *SourceErrorType) HttpCode() int {
	return errorType.httpCode
}

// Error makes the type itself usable as an error, as a target for xerrors.Is.
func (errorType *SourceErrorType) Error() string {
	return errorType.name + " (" + strconv.Itoa(errorType.apiCode) + ")"
}

// SourceError is a single failure of a given SourceErrorType.
type SourceError struct {
	*SourceErrorType

	// What went wrong, safe to show to a client.
	Message string

	// Identifies this failure in logs and responses.
	ID uuid.UUID

	// Extra client-facing detail, sent as json by ToHeader.
	ErrorData map[string]interface{}

	cause error
	stack []byte
	frame xerrors.Frame
}

// IsType compares by name and code so types copied for another package still match.
func (sourceError *SourceError) IsType(errorType *SourceErrorType) bool {
	return sourceError.SourceErrorType.Error() == errorType.Error()
}

// Is lets xerrors.Is match a SourceError against its SourceErrorType.
func (sourceError *SourceError) Is(target error) bool {
	errorType, ok := target.(*SourceErrorType)
	return ok && sourceError.IsType(errorType)
}

func (sourceError *SourceError) Error() string {
	return sourceError.SourceErrorType.Error() + " - " + sourceError.Message
}

func (sourceError *SourceError) Unwrap() error {
	return sourceError.cause
}

// LogMessage is Error() plus the cause, the creating frame and the stack. It is meant
// for logs, not for clients.
func (sourceError *SourceError) LogMessage() string {
	location := new(bytes.Buffer)
	sourceError.frame.Format(&frameOutput{Buffer: location})

	return fmt.Sprint(
		"\nMESSAGE: ", sourceError.Error(),
		"\nID: ", sourceError.ID.String(),
		"\nORIGINAL: ", sourceError.cause,
		"\nAT:", location.String(),
		"\nSTACK:\n", string(sourceError.stack),
	)
}

// ToHeader writes the error to setter, usually the headers of a response. ErrorData is
// sent as a json object.
func (sourceError *SourceError) ToHeader(setter headerSetter) error {
	setter.Set(headerName, sourceError.name)
	setter.Set(headerCode, strconv.Itoa(sourceError.apiCode))
	setter.Set(headerMessage, sourceError.Message)
	setter.Set(headerID, sourceError.ID.String())

	if sourceError.ErrorData == nil {
		return nil
	}

	encoded := new(bytes.Buffer)
	if err := codec.NewEncoder(encoded, jsonHandle).Encode(sourceError.ErrorData); err != nil {
		return xerrors.Errorf("error encoding error data: %w", err)
	}
	setter.Set(headerData, encoded.String())
	return nil
}

// frameOutput collects the output of xerrors.Frame.Format.
type frameOutput struct {
	*bytes.Buffer
}

func (output *frameOutput) Print(args ...interface{}) {
	fmt.Fprint(output.Buffer, args...)
}

func (output *frameOutput) Printf(format string, args ...interface{}) {
	fmt.Fprintf(output.Buffer, format, args...)
}

func (output *frameOutput) Detail() bool {
	return true
}
