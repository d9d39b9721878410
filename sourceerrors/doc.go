/*
Error model for xml source conversion.

Conversions between message bodies and xml sources fail in a small number of well known
ways, and callers (usually the transport that owns the request) need to tell them apart
to pick a status code and to report the failure back to a client.

This package defines two main objects for handing errors:

• SourceErrorType defines an error type.

• SourceError is an instance of an error which contains a SourceErrorType.

Default SourceErrorType Variables

Several pointers to SourceErrorType definitions are included in this package:
ConversionError, UnsupportedRepresentation and MalformedDocument.

SourceError values support xerrors.Is against their type:

	if xerrors.Is(err, sourceerrors.MalformedDocument) {
		...
	}

and xerrors.Is / xerrors.As against the io or parser error that caused them.
*/
package sourceerrors
